package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/holocron/internal/infrastructure/config"
	"github.com/nerrad567/holocron/internal/infrastructure/logging"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "holocron-test",
		},
		QoS:         1,
		TopicPrefix: "holocron-test",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// =============================================================================
// Topics
// =============================================================================

func TestTopics(t *testing.T) {
	tests := []struct {
		prefix     string
		wantStatus string
		wantEvent  string
	}{
		{"holocron", "holocron/status", "holocron/events/human_created"},
		{"/site/a/", "site/a/status", "site/a/events/human_created"},
		{"", "holocron/status", "holocron/events/human_created"},
	}

	for _, tt := range tests {
		topics := NewTopics(tt.prefix)
		if got := topics.Status(); got != tt.wantStatus {
			t.Errorf("NewTopics(%q).Status() = %q, want %q", tt.prefix, got, tt.wantStatus)
		}
		if got := topics.Event("human_created"); got != tt.wantEvent {
			t.Errorf("NewTopics(%q).Event() = %q, want %q", tt.prefix, got, tt.wantEvent)
		}
	}
}

// =============================================================================
// Options
// =============================================================================

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := brokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("brokerURL() = %q", got)
	}
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("brokerURL(tls) = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "holocron", Password: "secret"}
	cfg.Broker.TLS = true

	opts := buildClientOptions(cfg, NewTopics(cfg.TopicPrefix))

	if opts.ClientID != "holocron-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "holocron" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect and clean session")
	}
	if opts.TLSConfig == nil {
		t.Error("TLS config not set")
	}
	if !opts.WillEnabled || opts.WillTopic != "holocron-test/status" || !opts.WillRetained {
		t.Errorf("will = enabled:%v topic:%q retained:%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
}

func TestStatusPayload(t *testing.T) {
	var got map[string]string
	if err := json.Unmarshal([]byte(statusPayload("c1", "offline", "graceful_shutdown")), &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got["status"] != "offline" || got["client_id"] != "c1" || got["reason"] != "graceful_shutdown" || got["timestamp"] == "" {
		t.Errorf("payload = %v", got)
	}

	if strings.Contains(statusPayload("c1", "online", ""), "reason") {
		t.Error("online payload should not carry a reason")
	}
}

// =============================================================================
// Publish validation (no broker needed)
// =============================================================================

func TestValidatePublish(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"valid", "holocron/events/x", []byte("{}"), 1, nil},
		{"empty topic", "", nil, 0, ErrInvalidTopic},
		{"bad qos", "t", nil, 3, ErrInvalidQoS},
		{"too large", "t", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePublish(tt.topic, tt.payload, tt.qos)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePublish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDisconnectedClient(t *testing.T) {
	c := &Client{cfg: testConfig(), topics: NewTopics("holocron"), logger: logging.Discard()}

	if err := c.Publish("holocron/events/x", []byte("{}"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// =============================================================================
// Broker round trip (requires Mosquitto at 127.0.0.1:1883)
// =============================================================================

func TestConnectAndPublish(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping broker test in short mode")
	}

	client, err := Connect(testConfig(), logging.Discard())
	if err != nil {
		t.Skipf("no MQTT broker available: %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := client.PublishJSON(client.Topics().Event("test"), map[string]string{"k": "v"}); err != nil {
		t.Errorf("PublishJSON() error = %v", err)
	}
}
