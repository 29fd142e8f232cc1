package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/jkaberg/go-echarger/internal/mqtt"
	"github.com/jkaberg/go-echarger/status"
	"github.com/sirupsen/logrus"
)

// defaultStatusWait bounds how long FetchStatus waits for the charger to
// publish. The v1 firmware publishes its status every few seconds.
const defaultStatusWait = 30 * time.Second

// Broker is the part of an MQTT client the MQTT connection uses.
// *mqtt.Client from internal/mqtt implements it.
type Broker interface {
	Publish(topic string, payload []byte, retained bool) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Unsubscribe(topic string) error
}

// MQTT reaches the charger through its MQTT API: status documents are read
// from go-eCharger/<serial>/status and writes are sent as "key=value" to
// go-eCharger/<serial>/cmd/req.
type MQTT struct {
	broker       Broker
	statusTopic  string
	commandTopic string
	wait         time.Duration
	logger       *logrus.Logger

	// holds the most recent status document not yet handed out
	latest chan []byte
}

var _ Connection = (*MQTT)(nil)

// NewMQTT subscribes to the charger's status topic.
func NewMQTT(broker Broker, serial string, logger *logrus.Logger) (*MQTT, error) {
	if serial == "" {
		return nil, fmt.Errorf("charger serial is required for MQTT")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	m := &MQTT{
		broker:       broker,
		statusTopic:  mqtt.StatusTopic(serial),
		commandTopic: mqtt.CommandTopic(serial),
		wait:         defaultStatusWait,
		logger:       logger,
		latest:       make(chan []byte, 1),
	}
	if err := broker.Subscribe(m.statusTopic, m.onStatus); err != nil {
		return nil, &TransportError{Op: opFetch, Endpoint: m.statusTopic, Err: err}
	}
	return m, nil
}

// SetStatusWait adjusts how long FetchStatus waits for a status document.
func (m *MQTT) SetStatusWait(d time.Duration) { m.wait = d }

func (m *MQTT) onStatus(topic string, payload []byte) {
	msg := append([]byte(nil), payload...)
	for {
		select {
		case m.latest <- msg:
			return
		default:
		}
		// Drop the unread document in favour of the newer one.
		select {
		case <-m.latest:
		default:
		}
	}
}

// FetchStatus returns the newest status document the charger published
// since the previous call, waiting for the next one if none is pending.
func (m *MQTT) FetchStatus(ctx context.Context) (*status.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, m.wait)
	defer cancel()

	select {
	case body := <-m.latest:
		payload, err := status.ParsePayload(body)
		if err != nil {
			return nil, &TransportError{Op: opFetch, Endpoint: m.statusTopic, Err: err}
		}
		m.logger.WithFields(logrus.Fields{
			"topic": m.statusTopic,
			"size":  len(body),
		}).Debug("Received charger status via MQTT")
		return payload, nil
	case <-ctx.Done():
		return nil, &TransportError{Op: opFetch, Endpoint: m.statusTopic, Err: fmt.Errorf("waiting for status: %w", ctx.Err())}
	}
}

// WriteKey publishes "key=value" on the command topic. A broker
// acknowledgement counts as success.
func (m *MQTT) WriteKey(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return &TransportError{Op: opWrite, Endpoint: m.commandTopic, Err: err}
	}
	m.logger.WithFields(logrus.Fields{
		"topic": m.commandTopic,
		"key":   key,
		"value": value,
	}).Debug("Writing charger key")

	if err := m.broker.Publish(m.commandTopic, []byte(key+"="+value), false); err != nil {
		return &TransportError{Op: opWrite, Endpoint: m.commandTopic, Err: err}
	}
	return nil
}

// Close stops listening for status documents.
func (m *MQTT) Close() error {
	return m.broker.Unsubscribe(m.statusTopic)
}
