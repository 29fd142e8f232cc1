// Package exporter exposes charger status as Prometheus metrics. The status is
// fetched on every scrape; nothing is polled or cached in between.
package exporter

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/jkaberg/go-echarger/status"
)

const namespace = "goe"

// StatusReader is satisfied by *charger.Charger.
type StatusReader interface {
	LatestStatus(ctx context.Context) (*status.Status, error)
}

// Target is one charger to scrape, identified by Name in the "charger" label.
type Target struct {
	Name   string
	Reader StatusReader
}

var (
	upDesc = prometheus.NewDesc(namespace+"_up",
		"Whether the last status read succeeded.", []string{"charger"}, nil)
	currentLimitDesc = prometheus.NewDesc(namespace+"_current_limit_amperes",
		"Configured charging current.", []string{"charger"}, nil)
	allowChargingDesc = prometheus.NewDesc(namespace+"_allow_charging",
		"Whether charging is allowed.", []string{"charger"}, nil)
	carStatusDesc = prometheus.NewDesc(namespace+"_car_status",
		"Car state, 1 for the current state.", []string{"charger", "state"}, nil)
	temperatureDesc = prometheus.NewDesc(namespace+"_temperature_celsius",
		"Charger temperature.", []string{"charger"}, nil)
	sessionEnergyDesc = prometheus.NewDesc(namespace+"_session_energy_joules",
		"Energy charged in the current session.", []string{"charger"}, nil)
	totalEnergyDesc = prometheus.NewDesc(namespace+"_total_energy_kwh",
		"Energy charged over the charger lifetime.", []string{"charger"}, nil)
	stopEnergyDesc = prometheus.NewDesc(namespace+"_stop_energy_kwh",
		"Session energy at which charging switches off.", []string{"charger"}, nil)
	voltageDesc = prometheus.NewDesc(namespace+"_voltage_volts",
		"Voltage per phase.", []string{"charger", "phase"}, nil)
	currentDesc = prometheus.NewDesc(namespace+"_current_amperes",
		"Current per phase.", []string{"charger", "phase"}, nil)
	powerDesc = prometheus.NewDesc(namespace+"_power_watts",
		"Power per phase and in total.", []string{"charger", "phase"}, nil)
	powerFactorDesc = prometheus.NewDesc(namespace+"_power_factor_percent",
		"Power factor per phase.", []string{"charger", "phase"}, nil)
)

var carStates = []status.CarStatus{
	status.CarReadyNoVehicle,
	status.CarCharging,
	status.CarWaitingForVehicle,
	status.CarChargingFinished,
}

// Collector implements prometheus.Collector over a set of chargers.
type Collector struct {
	targets []Target
	timeout time.Duration
	logger  *logrus.Logger
}

// NewCollector creates a collector. Each scrape reads every target
// concurrently, bounded by timeout.
func NewCollector(targets []Target, timeout time.Duration, logger *logrus.Logger) *Collector {
	return &Collector{targets: targets, timeout: timeout, logger: logger}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		upDesc, currentLimitDesc, allowChargingDesc, carStatusDesc, temperatureDesc,
		sessionEnergyDesc, totalEnergyDesc, stopEnergyDesc,
		voltageDesc, currentDesc, powerDesc, powerFactorDesc,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, t := range c.targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			c.collectTarget(ctx, t, ch)
		}(t)
	}
	wg.Wait()
}

func (c *Collector) collectTarget(ctx context.Context, t Target, ch chan<- prometheus.Metric) {
	st, err := t.Reader.LatestStatus(ctx)
	if err != nil {
		c.logger.WithError(err).WithField("charger", t.Name).Warn("Failed to read charger status")
		ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, 0, t.Name)
		return
	}

	gauge := func(desc *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, append([]string{t.Name}, labels...)...)
	}

	gauge(upDesc, 1)
	gauge(currentLimitDesc, float64(st.Ampere))
	gauge(allowChargingDesc, boolValue(st.AllowCharging))
	for _, s := range carStates {
		gauge(carStatusDesc, boolValue(st.CarStatus == s), s.String())
	}
	gauge(temperatureDesc, float64(st.Temperature))

	// dws counts 10 Ws; eto and dwo count 0.1 kWh
	gauge(sessionEnergyDesc, float64(st.Charged)*10)
	gauge(totalEnergyDesc, float64(st.TotalEnergy)/10)
	gauge(stopEnergyDesc, float64(st.StopEnergy)/10)

	nrg := st.EnergySensor
	gauge(voltageDesc, float64(nrg.VoltageL1), "l1")
	gauge(voltageDesc, float64(nrg.VoltageL2), "l2")
	gauge(voltageDesc, float64(nrg.VoltageL3), "l3")
	gauge(voltageDesc, float64(nrg.VoltageN), "n")

	gauge(currentDesc, float64(nrg.CurrentL1)/10, "l1")
	gauge(currentDesc, float64(nrg.CurrentL2)/10, "l2")
	gauge(currentDesc, float64(nrg.CurrentL3)/10, "l3")

	gauge(powerDesc, float64(nrg.PowerL1)*100, "l1")
	gauge(powerDesc, float64(nrg.PowerL2)*100, "l2")
	gauge(powerDesc, float64(nrg.PowerL3)*100, "l3")
	gauge(powerDesc, float64(nrg.PowerN)*100, "n")
	gauge(powerDesc, float64(nrg.PowerTotal)*10, "total")

	gauge(powerFactorDesc, float64(nrg.PowerFactorL1), "l1")
	gauge(powerFactorDesc, float64(nrg.PowerFactorL2), "l2")
	gauge(powerFactorDesc, float64(nrg.PowerFactorL3), "l3")
	gauge(powerFactorDesc, float64(nrg.PowerFactorN), "n")
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
