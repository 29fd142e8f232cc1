package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jkaberg/go-echarger/charger"
	"github.com/jkaberg/go-echarger/connection"
	"github.com/jkaberg/go-echarger/internal/config"
	"github.com/jkaberg/go-echarger/internal/mqtt"
	"github.com/sirupsen/logrus"
)

// version is injected at build time via ldflags
var version = "dev"

func main() {
	cfg, args := parseFlags()

	logger := setupLogger(cfg.Verbose)

	cmd, err := parseCommand(cfg, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("Shutdown signal received")
		cancel()
	}()

	targets, closeTargets, err := buildTargets(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to set up charger connection")
	}
	defer closeTargets()

	logger.WithFields(logrus.Fields{
		"version":  version,
		"command":  cmd.name,
		"chargers": len(targets),
		"mqtt":     cfg.HasMQTT(),
	}).Debug("Starting goe-client")

	if err := cmd.run(ctx, cfg, targets, logger); err != nil {
		closeTargets()
		logger.WithError(err).Fatal("Command failed")
	}
}

// -----------------------------------------------------------------------------
// Helpers & Flags
// -----------------------------------------------------------------------------

func parseFlags() (*config.Config, []string) {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: goe-client [flags] [host] [status|set-amp N|set-access open|rfid|prices|allow|deny|serve]\n\n")
		flag.PrintDefaults()
	}

	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", getEnv("GOE_CONFIG", ""), "TOML config file")

	hosts := flag.String("host", getEnv("GOE_HOST", ""), "Charger host(s), comma separated")
	mqttURL := flag.String("mqtt-url", getEnv("GOE_MQTT_URL", ""), "MQTT URL (selects the MQTT transport)")
	serial := flag.String("serial", getEnv("GOE_SERIAL", ""), "Charger serial number for MQTT topics")
	clientID := flag.String("client-id", getEnv("GOE_CLIENT_ID", ""), "MQTT client identifier")
	verbose := flag.Bool("verbose", getEnv("GOE_VERBOSE", "false") == "true", "Verbose logging")
	metricsListen := flag.String("metrics-listen", getEnv("GOE_METRICS_LISTEN", ""), "Metrics listen address for serve")
	apiTimeoutStr := flag.String("api-timeout", getEnv("GOE_API_TIMEOUT", ""), "Charger request timeout (e.g. 10s)")

	flag.Parse()

	if *showVersion {
		fmt.Printf("goe-client %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "goe-client: %v\n", err)
		os.Exit(2)
	}

	if *hosts != "" {
		cfg.SetHosts(*hosts)
	}
	if *mqttURL != "" {
		cfg.MQTTUrl = *mqttURL
	}
	if *serial != "" {
		cfg.Serial = *serial
	}
	if *clientID != "" {
		cfg.ClientID = *clientID
	}
	if *verbose {
		cfg.Verbose = true
	}
	if *metricsListen != "" {
		cfg.MetricsListen = *metricsListen
	}
	if *apiTimeoutStr != "" {
		if d, err := time.ParseDuration(*apiTimeoutStr); err == nil && d > 0 {
			cfg.APITimeout = int(d / time.Second)
		}
	}

	return cfg, flag.Args()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func setupLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// target is one configured charger.
type target struct {
	name    string
	charger *charger.Charger
}

// buildTargets creates one charger per host, or a single MQTT charger when a
// broker is configured. The returned func releases the connections.
func buildTargets(cfg *config.Config, logger *logrus.Logger) ([]target, func(), error) {
	if cfg.HasMQTT() {
		client, err := mqtt.NewClient(cfg.MQTTUrl, cfg.ClientID, logger)
		if err != nil {
			return nil, nil, err
		}
		conn, err := connection.NewMQTT(client, cfg.Serial, logger)
		if err != nil {
			client.Disconnect(250)
			return nil, nil, err
		}
		conn.SetStatusWait(config.StatusWait)
		logger.WithFields(logrus.Fields{
			"serial":    cfg.Serial,
			"connected": client.IsConnected(),
		}).Debug("Using MQTT transport")

		closeFn := func() {
			if err := conn.Close(); err != nil {
				logger.WithError(err).Debug("Failed to unsubscribe from status topic")
			}
			client.Disconnect(250)
		}
		return []target{{name: cfg.Serial, charger: charger.New(conn, logger)}}, closeFn, nil
	}

	targets := make([]target, 0, len(cfg.Hosts))
	for _, host := range cfg.Hosts {
		conn, err := connection.NewHTTP(host, logger, connection.WithTimeout(cfg.GetAPITimeout()))
		if err != nil {
			return nil, nil, fmt.Errorf("host %q: %w", host, err)
		}
		targets = append(targets, target{name: conn.Host(), charger: charger.New(conn, logger)})
	}
	return targets, func() {}, nil
}
