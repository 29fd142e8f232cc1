// Package charger is the entry point for talking to a go-eCharger: it reads
// the decoded status and writes the few settings the v1 API exposes.
package charger

import (
	"context"

	"github.com/jkaberg/go-echarger/connection"
	"github.com/jkaberg/go-echarger/status"
	"github.com/sirupsen/logrus"
)

// Charger wraps a connection. It keeps no state between calls, so it is as
// safe for concurrent use as the connection it holds.
type Charger struct {
	conn   connection.Connection
	logger *logrus.Logger
}

// New creates a Charger. A nil logger falls back to the logrus standard logger.
func New(conn connection.Connection, logger *logrus.Logger) *Charger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Charger{conn: conn, logger: logger}
}

// LatestStatus fetches and decodes the charger status.
func (c *Charger) LatestStatus(ctx context.Context) (*status.Status, error) {
	const op = "latest status"

	payload, err := c.conn.FetchStatus(ctx)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Op: op, Err: err}
	}

	st, err := status.Decode(payload)
	if err != nil {
		c.logger.WithError(err).Debug("Charger returned an undecodable status")
		return nil, &Error{Kind: KindStatus, Op: op, Err: err}
	}
	return st, nil
}

// SetCurrentLimit writes the charging current in amperes ("amp").
func (c *Charger) SetCurrentLimit(ctx context.Context, amps uint8) error {
	return c.write(ctx, "set current limit", status.KeyAmpere, status.EncodeCurrent(amps))
}

// SetAccessState writes the access control mode ("ast").
func (c *Charger) SetAccessState(ctx context.Context, state status.AccessState) error {
	const op = "set access state"
	code, err := status.EncodeAccessState(state)
	if err != nil {
		return &Error{Kind: KindStatus, Op: op, Err: err}
	}
	return c.write(ctx, op, status.KeyAccessState, code)
}

// SetAllowCharging enables or disables charging ("alw").
func (c *Charger) SetAllowCharging(ctx context.Context, allow bool) error {
	return c.write(ctx, "set allow charging", status.KeyAllowCharging, status.EncodeBool(allow))
}

func (c *Charger) write(ctx context.Context, op, key, value string) error {
	c.logger.WithFields(logrus.Fields{
		"key":   key,
		"value": value,
	}).Debug("Writing charger setting")

	if err := c.conn.WriteKey(ctx, key, value); err != nil {
		return &Error{Kind: KindConnection, Op: op, Err: err}
	}
	return nil
}
