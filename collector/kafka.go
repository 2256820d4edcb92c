package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// messageReader is the part of *kafka.Reader the feed uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaFeed consumes JSON readings from a Kafka topic. Collect waits at most
// wait for the next message.
type KafkaFeed struct {
	reader messageReader
	wait   time.Duration
}

// NewKafkaFeed creates a consumer-group reader on topic.
func NewKafkaFeed(brokers []string, topic, group string, wait time.Duration) *KafkaFeed {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: maxBody,
	})
	return &KafkaFeed{reader: r, wait: wait}
}

func (f *KafkaFeed) Name() string { return "kafka" }

func (f *KafkaFeed) Collect(ctx context.Context) (*model.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, f.wait)
	defer cancel()

	msg, err := f.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("kafka read: %w", err)
	}
	ts := msg.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return DecodeReading(msg.Value, ts)
}

func (f *KafkaFeed) Close() error {
	return f.reader.Close()
}
