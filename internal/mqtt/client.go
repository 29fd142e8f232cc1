package mqtt

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

const (
	// TopicPrefix is the root of every topic the charger uses on its MQTT API.
	TopicPrefix = "go-eCharger"

	qos        = byte(1) // At least once delivery
	opTimeout  = 5 * time.Second
	defaultCID = "goe-client"
)

// Client wraps the MQTT client with additional functionality
type Client struct {
	client   mqtt.Client
	clientID string
	logger   *logrus.Logger
}

// NewClient creates a new MQTT client with support for both WebSocket and standard MQTT protocols
func NewClient(mqttURL, clientID string, logger *logrus.Logger) (*Client, error) {
	parsedURL, err := url.Parse(mqttURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT URL: %w", err)
	}

	broker, secure, err := brokerURL(parsedURL)
	if err != nil {
		return nil, err
	}
	if clientID == "" {
		clientID = defaultCID
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetConnectTimeout(opTimeout)
	opts.SetMaxReconnectInterval(10 * time.Second)
	if secure {
		// Home brokers commonly run with self-signed certificates.
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
	}

	if parsedURL.User != nil {
		username := parsedURL.User.Username()
		password, _ := parsedURL.User.Password()
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.WithError(err).Warn("MQTT connection lost")
	})

	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		logger.Debug("MQTT reconnecting...")
	})

	firstConnect := true
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		if firstConnect {
			logger.Debug("MQTT connected")
			firstConnect = false
		} else {
			logger.Info("MQTT reconnected")
		}
	})

	client := mqtt.NewClient(opts)

	if token := client.Connect(); !token.WaitTimeout(opTimeout) {
		return nil, fmt.Errorf("connect to MQTT broker timed out after %s", opTimeout)
	} else if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.WithFields(logrus.Fields{
		"broker":    cleanURL(mqttURL),
		"protocol":  parsedURL.Scheme,
		"client_id": clientID,
	}).Info("MQTT client connected")

	return &Client{
		client:   client,
		clientID: clientID,
		logger:   logger,
	}, nil
}

// brokerURL maps the user-facing URL scheme to the one paho expects and
// reports whether the connection uses TLS.
func brokerURL(u *url.URL) (string, bool, error) {
	raw := u.String()
	switch u.Scheme {
	case "ws":
		return raw, false, nil
	case "wss":
		return raw, true, nil
	case "mqtt":
		return strings.Replace(raw, "mqtt://", "tcp://", 1), false, nil
	case "mqtts":
		return strings.Replace(raw, "mqtts://", "ssl://", 1), true, nil
	default:
		return "", false, fmt.Errorf("unsupported protocol scheme: %s (supported: ws, wss, mqtt, mqtts)", u.Scheme)
	}
}

// Publish publishes a message to the specified topic and waits for the
// broker acknowledgement.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	token := c.client.Publish(topic, qos, retained, payload)

	if !token.WaitTimeout(opTimeout) {
		return fmt.Errorf("publish to topic %s timed out after %s", topic, opTimeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	c.logger.WithFields(logrus.Fields{
		"topic":    topic,
		"size":     len(payload),
		"retained": retained,
	}).Debug("Published MQTT message")

	return nil
}

// Subscribe subscribes to a topic. The handler receives the topic and the
// raw payload of every message.
func (c *Client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := c.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})

	if !token.WaitTimeout(opTimeout) {
		return fmt.Errorf("subscribe to topic %s timed out after %s", topic, opTimeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	c.logger.WithField("topic", topic).Debug("Subscribed to MQTT topic")
	return nil
}

// Unsubscribe removes the subscription for topic.
func (c *Client) Unsubscribe(topic string) error {
	token := c.client.Unsubscribe(topic)
	if !token.WaitTimeout(opTimeout) {
		return fmt.Errorf("unsubscribe from topic %s timed out after %s", topic, opTimeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to unsubscribe from topic %s: %w", topic, token.Error())
	}
	return nil
}

// IsConnected returns true if the client is connected
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Disconnect disconnects the client. A client that already lost its
// connection is left alone.
func (c *Client) Disconnect(quiesce uint) {
	if !c.IsConnected() {
		c.logger.Debug("MQTT client not connected, skipping disconnect")
		return
	}
	c.client.Disconnect(quiesce)
	c.logger.Debug("MQTT client disconnected")
}

// cleanURL removes credentials from URL for logging
func cleanURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if parsed.User != nil {
		parsed.User = url.UserPassword("***", "***")
	}

	return parsed.String()
}

// StatusTopic returns the topic the charger publishes its status document on.
func StatusTopic(serial string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefix, serial)
}

// CommandTopic returns the topic the charger reads "key=value" commands from.
func CommandTopic(serial string) string {
	return fmt.Sprintf("%s/%s/cmd/req", TopicPrefix, serial)
}
