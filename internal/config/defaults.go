package config

import "time"

// Central place for timing constants and other defaults shared by the
// CLI and the exporter.

const (
	// Operation time-outs
	DefaultAPITimeout = 10 * time.Second // Charger HTTP request
	StatusWait        = 30 * time.Second // Wait for a status publish over MQTT
	ScrapeTimeout     = 8 * time.Second  // Status fetch during a metrics scrape
	ShutdownTimeout   = 5 * time.Second  // Metrics server graceful shutdown

	DefaultClientID      = "goe-client"
	DefaultMetricsListen = ":9105"
)
