// Package kafka publishes refreshed closure snapshots for downstream
// consumers such as dashboards and alerting.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
)

// Publisher produces closure messages to a Kafka topic.
// It implements service.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the closure topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishBatch serializes and publishes a refreshed closure batch in a single
// WriteMessages call. Messages are keyed by closure ID so updates for the same
// road land on the same partition.
func (p *Publisher) PublishBatch(ctx context.Context, closures []domain.RoadClosure) error {
	if len(closures) == 0 {
		return nil
	}
	refreshedAt := time.Now().UTC().Format(time.RFC3339)
	msgs := make([]kafkago.Message, len(closures))
	for i := range closures {
		msg, err := serializeToMessage(closures[i], refreshedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a RoadClosure into a Kafka message.
func serializeToMessage(closure domain.RoadClosure, refreshedAt string) (kafkago.Message, error) {
	data, err := json.Marshal(closure)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize closure: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(closure.ID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(closure.Status)},
			{Key: "refreshed_at", Value: []byte(refreshedAt)},
		},
	}, nil
}
