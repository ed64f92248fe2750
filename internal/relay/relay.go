package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nerrad567/holocron/internal/eventbus"
	"github.com/nerrad567/holocron/internal/human"
	"github.com/nerrad567/holocron/internal/infrastructure/logging"
)

// Measurement and event names written by the relay.
const (
	EventHumanCreated = "human_created"

	MeasurementHumanCreated = "human_created"
	MeasurementOverrun      = "relay_overrun"
	MeasurementSession      = "ws_session"
)

// Publisher sends messages to a broker. Implemented by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// PointWriter records time-series points. Implemented by *influxdb.Client.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time)
}

// Config holds the relay's collaborators. Publisher and Writer are each
// optional; a nil one is skipped.
type Config struct {
	Bus       *eventbus.Bus[human.Human]
	Publisher Publisher
	// Topic is the MQTT topic for human_created events.
	Topic  string
	QoS    byte
	Writer PointWriter
	Logger *logging.Logger
	Clock  clockwork.Clock
}

// Relay forwards bus events to MQTT and InfluxDB.
type Relay struct {
	bus       *eventbus.Bus[human.Human]
	publisher Publisher
	topic     string
	qos       byte
	writer    PointWriter
	logger    *logging.Logger
	clock     clockwork.Clock

	relayed  atomic.Uint64
	failed   atomic.Uint64
	overruns atomic.Uint64

	handle   *eventbus.Handle[human.Human]
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a relay. Call Start to begin forwarding.
func New(cfg Config) *Relay {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Relay{
		bus:       cfg.Bus,
		publisher: cfg.Publisher,
		topic:     cfg.Topic,
		qos:       cfg.QoS,
		writer:    cfg.Writer,
		logger:    logger.With("component", "relay"),
		clock:     clock,
	}
}

// Start subscribes to the bus and begins forwarding in the background.
// Events published after Start returns are guaranteed to be seen.
func (r *Relay) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.handle = r.bus.Subscribe()

	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop ends forwarding and waits for the loop to exit.
// Safe to call multiple times and before Start.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() {
		if r.cancel == nil {
			return
		}
		r.cancel()
		r.handle.Close()
		r.wg.Wait()
	})
}

// Relayed returns the number of events forwarded.
func (r *Relay) Relayed() uint64 { return r.relayed.Load() }

// Failed returns the number of MQTT publish failures.
func (r *Relay) Failed() uint64 { return r.failed.Load() }

// Overruns returns the number of overrun notifications received.
func (r *Relay) Overruns() uint64 { return r.overruns.Load() }

func (r *Relay) loop(ctx context.Context) {
	defer r.wg.Done()
	defer r.handle.Close()

	for {
		h, err := r.handle.Next(ctx)
		var overrun *eventbus.OverrunError
		switch {
		case err == nil:
			r.forward(h)
		case errors.As(err, &overrun):
			r.recordOverrun(overrun.Missed)
		default:
			if !errors.Is(err, context.Canceled) && !errors.Is(err, eventbus.ErrClosed) {
				r.logger.Error("relay stopped", "error", err)
			}
			return
		}
	}
}

func (r *Relay) forward(h human.Human) {
	if r.publisher != nil {
		r.publish(h)
	}
	if r.writer != nil {
		r.writer.WritePoint(MeasurementHumanCreated,
			map[string]string{"home_planet": h.HomePlanet},
			map[string]any{"episodes": len(h.AppearsIn)},
			r.clock.Now())
	}
	r.relayed.Add(1)
}

func (r *Relay) publish(h human.Human) {
	payload, err := json.Marshal(h)
	if err != nil {
		r.failed.Add(1)
		r.logger.Error("encoding event", "error", err, "human_id", h.ID)
		return
	}
	if err := r.publisher.Publish(r.topic, payload, r.qos, false); err != nil {
		r.failed.Add(1)
		r.logger.Warn("mqtt publish failed", "error", err, "topic", r.topic, "human_id", h.ID)
	}
}

func (r *Relay) recordOverrun(missed uint64) {
	r.overruns.Add(1)
	r.logger.Warn("relay fell behind", "missed", missed)
	if r.writer != nil {
		r.writer.WritePoint(MeasurementOverrun, nil,
			map[string]any{"missed": missed},
			r.clock.Now())
	}
}

// RecordSession writes a ws_session point for a closed WebSocket session.
func (r *Relay) RecordSession(id string, duration time.Duration, delivered, pings uint64) {
	r.logger.Debug("session recorded", "session_id", id, "duration", duration, "delivered", delivered)
	if r.writer == nil {
		return
	}
	r.writer.WritePoint(MeasurementSession, nil,
		map[string]any{
			"duration_ms": duration.Milliseconds(),
			"delivered":   delivered,
			"pings":       pings,
		},
		r.clock.Now())
}
