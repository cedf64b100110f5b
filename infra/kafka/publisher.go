// Package kafka publishes charging recommendations to a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kilianp07/cleancharge/core/factory"
	"github.com/kilianp07/cleancharge/core/planner"
	"github.com/kilianp07/cleancharge/core/publish"
)

// Config selects the brokers and topic.
type Config struct {
	Brokers      []string      `json:"brokers"`
	Topic        string        `json:"topic"`
	BatchTimeout time.Duration `json:"batch_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one message per recommendation keyed by region, so a
// region's recommendations stay ordered within a partition.
type Publisher struct {
	w messageWriter
}

var _ publish.Publisher = (*Publisher)(nil)

func init() {
	_ = publish.Register("kafka", func(conf map[string]any) (publish.Publisher, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}

// NewPublisher creates a Publisher backed by a kafka.Writer.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		cfg.Topic = "cleancharge.recommendations"
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{w: w}, nil
}

func (p *Publisher) Name() string { return "kafka" }

func (p *Publisher) Publish(ctx context.Context, rec planner.Recommendation) error {
	b, err := publish.Encode(rec)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.Region),
		Value: b,
		Time:  rec.CreatedAt,
		Headers: []kafka.Header{
			{Key: "mode", Value: []byte(rec.Mode)},
			{Key: "provider", Value: []byte(rec.Provider)},
		},
	})
}

func (p *Publisher) Close() error { return p.w.Close() }
