// Package bridge forwards received readings to an MQTT broker.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/templumi/pkg/config"
	"github.com/itohio/templumi/pkg/monitor"
	"github.com/rs/zerolog"
)

// Client is the subset of mqtt.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

var _ Client = mqtt.Client(nil)

// Message is the JSON payload published for every reading.
type Message struct {
	Channel   string    `json:"channel"`
	Value     float64   `json:"value"`
	Whole     int64     `json:"whole"`
	Tenth     int64     `json:"tenth"`
	Unit      string    `json:"unit,omitempty"`
	Fault     bool      `json:"fault,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage converts a reading into its payload form.
func NewMessage(r monitor.Reading) Message {
	m := Message{
		Channel:   r.Channel.String(),
		Whole:     r.Whole,
		Tenth:     r.Tenth,
		Unit:      r.Channel.Unit(),
		Fault:     r.Fault,
		Timestamp: r.Timestamp,
	}
	if r.Fault {
		m.Channel = "fault"
	} else {
		m.Value = r.Value()
	}
	return m
}

// Publisher publishes readings below a base topic.
type Publisher struct {
	client Client
	topic  string
	qos    byte
	log    zerolog.Logger
}

// Dial connects to the broker in cfg.
func Dial(ctx context.Context, cfg config.MQTTConfig, log zerolog.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	c := mqtt.NewClient(opts)
	if err := wait(ctx, c.Connect()); err != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", cfg.Broker, err)
	}

	log.Info().Str("broker", cfg.Broker).Str("topic", cfg.Topic).Msg("connected to broker")
	return NewPublisher(c, cfg.Topic, cfg.QoS, log), nil
}

// NewPublisher creates a Publisher on an existing client.
func NewPublisher(client Client, topic string, qos byte, log zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
		qos:    qos,
		log:    log.With().Str("component", "bridge").Logger(),
	}
}

// Topic returns the topic a reading is published to.
func (p *Publisher) Topic(r monitor.Reading) string {
	if r.Fault {
		return p.topic + "/fault"
	}
	return p.topic + "/" + r.Channel.String()
}

// Publish sends one reading and waits for the broker acknowledgement or ctx.
func (p *Publisher) Publish(ctx context.Context, r monitor.Reading) error {
	payload, err := json.Marshal(NewMessage(r))
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	topic := p.Topic(r)
	if err := wait(ctx, p.client.Publish(topic, p.qos, false, payload)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Forward publishes every reading from in until in is closed or ctx is done.
// Failed publishes are logged and skipped.
func (p *Publisher) Forward(ctx context.Context, in <-chan monitor.Reading) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-in:
			if !ok {
				return nil
			}
			if err := p.Publish(ctx, r); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.log.Warn().Err(err).Msg("dropping reading")
			}
		}
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
