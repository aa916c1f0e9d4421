package mqtt

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/hearth-core/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Client.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Timeouts for broker operations.
const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// disconnectQuiesce is the grace period (ms) paho gets to flush
	// in-flight messages on Close.
	disconnectQuiesce = 250
)

// Client publishes the hub's outward notifications to an MQTT broker.
//
// Notifications are ephemeral by nature — a state change superseded five
// seconds later is worthless — so the client is strictly fire-and-forget:
// Publish never blocks and never returns an error; undeliverable messages
// are counted and logged instead. Reconnects are left to paho; while the
// connection is down, publishes are dropped rather than queued.
type Client struct {
	client pahomqtt.Client
	logger Logger

	qos         byte
	clientID    string
	statusTopic string

	connected atomic.Bool
	dropped   atomic.Uint64
}

// Connect dials the broker and announces the hub on the system status
// topic. A Last Will and Testament on the same topic lets subscribers tell
// a crash from a clean shutdown. Connection-state transitions are logged
// through the given logger.
func Connect(cfg config.MQTTConfig, logger Logger) (*Client, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	c := &Client{
		logger:      logger,
		qos:         byte(cfg.QoS),
		clientID:    cfg.Broker.ClientID,
		statusTopic: Topics{}.SystemStatus(),
	}

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetWill(c.statusTopic, string(c.statusPayload("offline", "connection_lost")), 1, true)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}
	if cfg.Reconnect.InitialDelay > 0 {
		opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	}
	if cfg.Reconnect.MaxDelay > 0 {
		opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)
	}

	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		c.connected.Store(true)
		c.announce("online", "")
		c.logger.Info("mqtt broker connected", "client_id", c.clientID)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.connected.Store(false)
		c.logger.Warn("mqtt broker connection lost, notifications will be dropped", "error", err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: no broker answer within %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The connect handler runs asynchronously; mark the state here so the
	// first notifications right after Connect are not dropped.
	c.connected.Store(true)
	return c, nil
}

// announce publishes a retained liveness payload on the status topic.
func (c *Client) announce(state, reason string) {
	c.client.Publish(c.statusTopic, 1, true, c.statusPayload(state, reason))
}

// statusPayload renders the liveness JSON body.
func (c *Client) statusPayload(state, reason string) []byte {
	body := map[string]string{
		"client_id": c.clientID,
		"status":    state,
	}
	if reason != "" {
		body["reason"] = reason
	}
	payload, _ := json.Marshal(body)
	return payload
}

// IsConnected reports whether the broker link is up.
func (c *Client) IsConnected() bool {
	return c.connected.Load() && c.client.IsConnected()
}

// Dropped returns how many notifications were discarded since Connect.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// Close announces a clean shutdown (distinct from the LWT crash status),
// gives paho a short quiesce to flush, and disconnects.
func (c *Client) Close() {
	if c.client == nil {
		return
	}
	if c.IsConnected() {
		token := c.client.Publish(c.statusTopic, 1, true, c.statusPayload("offline", "shutdown"))
		token.WaitTimeout(publishTimeout)
	}
	c.client.Disconnect(disconnectQuiesce)
	c.connected.Store(false)
}
