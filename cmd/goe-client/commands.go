package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jkaberg/go-echarger/charger"
	"github.com/jkaberg/go-echarger/internal/config"
	"github.com/jkaberg/go-echarger/internal/exporter"
	"github.com/jkaberg/go-echarger/status"
)

type command struct {
	name string
	run  func(ctx context.Context, cfg *config.Config, targets []target, logger *logrus.Logger) error
}

var commandNames = map[string]bool{
	"status": true, "set-amp": true, "set-access": true,
	"allow": true, "deny": true, "serve": true,
}

// parseCommand resolves the positional arguments. A leading argument that is
// not a command name is taken as the charger host.
func parseCommand(cfg *config.Config, args []string) (command, error) {
	if len(args) > 0 && !commandNames[args[0]] {
		cfg.SetHosts(args[0])
		args = args[1:]
	}
	if len(args) == 0 {
		return command{name: "status", run: runStatus}, nil
	}

	name, rest := args[0], args[1:]
	switch name {
	case "status":
		return command{name: name, run: runStatus}, nil
	case "serve":
		return command{name: name, run: runServe}, nil
	case "allow", "deny":
		allow := name == "allow"
		return command{name: name, run: control(func(ctx context.Context, c *charger.Charger) error {
			return c.SetAllowCharging(ctx, allow)
		})}, nil
	case "set-amp":
		if len(rest) != 1 {
			return command{}, errors.New("set-amp needs a current in amperes")
		}
		amps, err := strconv.ParseUint(rest[0], 10, 8)
		if err != nil {
			return command{}, fmt.Errorf("invalid current %q: %w", rest[0], err)
		}
		return command{name: name, run: control(func(ctx context.Context, c *charger.Charger) error {
			return c.SetCurrentLimit(ctx, uint8(amps))
		})}, nil
	case "set-access":
		if len(rest) != 1 {
			return command{}, errors.New("set-access needs one of open, rfid, prices")
		}
		state, err := parseAccess(rest[0])
		if err != nil {
			return command{}, err
		}
		return command{name: name, run: control(func(ctx context.Context, c *charger.Charger) error {
			return c.SetAccessState(ctx, state)
		})}, nil
	default:
		return command{}, fmt.Errorf("unknown command %q", name)
	}
}

func parseAccess(s string) (status.AccessState, error) {
	switch s {
	case "open":
		return status.AccessOpen, nil
	case "rfid":
		return status.AccessRFID, nil
	case "prices":
		return status.AccessElectricityPrices, nil
	default:
		return 0, fmt.Errorf("unknown access state %q (want open, rfid or prices)", s)
	}
}

func runStatus(ctx context.Context, cfg *config.Config, targets []target, logger *logrus.Logger) error {
	return printStatus(ctx, os.Stdout, targets, logger)
}

// printStatus fetches every charger concurrently and writes the decoded
// statuses as one JSON object keyed by charger. Failed chargers are logged
// and left out; the first failure is returned.
func printStatus(ctx context.Context, w io.Writer, targets []target, logger *logrus.Logger) error {
	var (
		mu      sync.Mutex
		results = make(map[string]*status.Status, len(targets))
		g       errgroup.Group
	)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			st, err := t.charger.LatestStatus(ctx)
			if err != nil {
				logger.WithError(err).WithField("charger", t.name).Error("Failed to read charger status")
				return err
			}
			mu.Lock()
			results[t.name] = st
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	if len(results) > 0 {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(results); encErr != nil {
			return encErr
		}
	}
	return err
}

// control applies op to every charger concurrently.
func control(op func(ctx context.Context, c *charger.Charger) error) func(context.Context, *config.Config, []target, *logrus.Logger) error {
	return func(ctx context.Context, _ *config.Config, targets []target, logger *logrus.Logger) error {
		g, ctx := errgroup.WithContext(ctx)
		for _, t := range targets {
			t := t
			g.Go(func() error {
				if err := op(ctx, t.charger); err != nil {
					return fmt.Errorf("%s: %w", t.name, err)
				}
				logger.WithField("charger", t.name).Info("Charger updated")
				return nil
			})
		}
		return g.Wait()
	}
}

func runServe(ctx context.Context, cfg *config.Config, targets []target, logger *logrus.Logger) error {
	expTargets := make([]exporter.Target, 0, len(targets))
	for _, t := range targets {
		expTargets = append(expTargets, exporter.Target{Name: t.name, Reader: t.charger})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(exporter.NewCollector(expTargets, config.ScrapeTimeout, logger))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.MetricsListen, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("listen", cfg.MetricsListen).Info("Serving charger metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Metrics server stopped")
	return nil
}
