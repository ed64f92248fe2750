package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/holocron/internal/infrastructure/config"
	"github.com/nerrad567/holocron/internal/infrastructure/logging"
)

// Client wraps paho.mqtt.golang for Holocron's event mirror.
//
// All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics
	logger *logging.Logger

	connected bool
	connMu    sync.RWMutex
}

// Connect establishes a connection to the MQTT broker and publishes the
// retained online status.
//
// With connect-retry enabled paho keeps trying in the background; Connect
// gives up after defaultConnectTimeout and returns ErrConnectionFailed.
func Connect(cfg config.MQTTConfig, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		cfg:    cfg,
		topics: NewTopics(cfg.TopicPrefix),
		logger: logger.With("component", "mqtt"),
	}

	opts := buildClientOptions(cfg, c.topics)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.setConnected(true)
		c.publishStatus("online", "")
		c.logger.Info("mqtt connected", "broker", brokerURL(cfg))
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.setConnected(false)
		c.logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect callback runs asynchronously; mark connected now so
	// IsConnected is accurate as soon as Connect returns.
	c.setConnected(true)
	return c, nil
}

// Topics returns the topic builder for the configured prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

// QoS returns the configured default QoS.
func (c *Client) QoS() byte {
	return byte(c.cfg.QoS)
}

func (c *Client) setConnected(v bool) {
	c.connMu.Lock()
	c.connected = v
	c.connMu.Unlock()
}

// publishStatus publishes a retained status message without waiting.
func (c *Client) publishStatus(status, reason string) pahomqtt.Token {
	return c.client.Publish(c.topics.Status(), c.QoS(), true,
		statusPayload(c.cfg.Broker.ClientID, status, reason))
}

// Close publishes a graceful offline status and disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		c.publishStatus("offline", "graceful_shutdown").WaitTimeout(defaultPublishTimeout)
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setConnected(false)
	return nil
}

// HealthCheck verifies the MQTT connection is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected returns the last known connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}
