package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/config"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces store change notifications to a Kafka topic.
// It implements pipeline.Notifier.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewPublisher creates a Kafka producer for the configured change topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaChangeTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish sends one change notification keyed by store path, so changes to
// the same document land on the same partition in order.
func (p *Publisher) Publish(ctx context.Context, change domain.Change) error {
	msg, err := serializeToMessage(change)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish change for %s: %w", change.Path, err)
	}
	p.logger.Debug("change published", "path", change.Path, "run_id", change.RunID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Change into a Kafka message.
func serializeToMessage(change domain.Change) (kafkago.Message, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize change: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(change.Path),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "job", Value: []byte(change.Job)},
			{Key: "run_id", Value: []byte(change.RunID)},
			{Key: "updated_at", Value: []byte(change.UpdatedAt)},
		},
	}, nil
}
