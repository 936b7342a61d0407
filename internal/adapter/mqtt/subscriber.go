// Package mqtt subscribes to device telemetry topics and feeds each message
// into the ingestion pipeline.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/weather-station-ingest/internal/config"
	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"
)

const (
	sourceMQTT        = "mqtt"
	subscribeTimeout  = 5 * time.Second
	disconnectQuiesce = 250 // milliseconds
)

// ErrConnectTimeout is returned when the broker does not acknowledge the
// connection within the configured timeout.
var ErrConnectTimeout = errors.New("mqtt connect timeout")

// RawIngester accepts a message from a streaming transport.
type RawIngester interface {
	IngestRaw(ctx context.Context, raw domain.RawEvent) (domain.SensorRecord, error)
}

// Subscriber receives raw sensor payloads published by edge devices.
type Subscriber struct {
	client   paho.Client
	topic    string
	qos      byte
	timeout  time.Duration
	ingester RawIngester
	logger   *slog.Logger
	clock    clockwork.Clock
	ctx      context.Context
}

// NewSubscriber builds a client for cfg.MQTTBroker. Call Connect to start
// receiving; messages are ingested with ctx, so cancelling it abandons
// in-flight work.
func NewSubscriber(ctx context.Context, cfg *config.Config, ingester RawIngester, logger *slog.Logger) *Subscriber {
	s := &Subscriber{
		topic:    cfg.MQTTTopic,
		qos:      cfg.MQTTQoS,
		timeout:  cfg.MQTTConnectTimeout,
		ingester: ingester,
		logger:   logger,
		clock:    clockwork.NewRealClock(),
		ctx:      ctx,
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetCleanSession(false).
		SetConnectTimeout(cfg.MQTTConnectTimeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Minute)

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})
	// Subscriptions are re-established on every (re)connect.
	opts.SetOnConnectHandler(func(c paho.Client) {
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker)
		if err := s.subscribe(c); err != nil {
			logger.Error("mqtt subscribe failed", "topic", s.topic, "error", err)
		}
	})

	s.client = paho.NewClient(opts)
	return s
}

// Connect dials the broker and waits for the acknowledgement.
func (s *Subscriber) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(s.timeout) {
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (s *Subscriber) subscribe(c paho.Client) error {
	token := c.Subscribe(s.topic, s.qos, func(_ paho.Client, msg paho.Message) {
		s.HandleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("subscribe %s: timeout", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.topic, err)
	}
	s.logger.Info("mqtt subscribed", "topic", s.topic, "qos", s.qos)
	return nil
}

// HandleMessage ingests one published payload. Rejected payloads are logged
// and dropped; MQTT offers no per-message negative acknowledgement.
func (s *Subscriber) HandleMessage(topic string, payload []byte) {
	raw := domain.RawEvent{
		Source:    sourceMQTT,
		Value:     payload,
		Topic:     topic,
		Timestamp: s.clock.Now().UTC(),
	}
	if id := StationFromTopic(topic); id != "" {
		raw.Headers = map[string]string{"station": id}
	}

	rec, err := s.ingester.IngestRaw(s.ctx, raw)
	if err != nil {
		s.logger.Warn("mqtt message rejected", "topic", topic, "error", err)
		return
	}
	s.logger.Debug("mqtt message ingested", "topic", topic, "sensor_id", rec.SensorID)
}

// Close disconnects, allowing in-flight work a short quiesce period.
func (s *Subscriber) Close() {
	if s.client.IsConnected() {
		s.client.Disconnect(disconnectQuiesce)
		s.logger.Info("mqtt disconnected")
	}
}

// StationFromTopic returns the station segment of a "weather/<station>/..."
// topic, or "" when the topic has another shape.
func StationFromTopic(topic string) string {
	rest, ok := strings.CutPrefix(topic, "weather/")
	if !ok {
		return ""
	}
	station, _, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	return station
}
