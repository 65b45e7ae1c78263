// Package kafka implements the eventstream Publisher on top of a Kafka
// topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	segmentio "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/eventstream"
)

// DefaultTopic is the topic turn events land on when none is configured.
const DefaultTopic = "interview.turns"

// Publisher writes interview events to Kafka.
type Publisher struct {
	writer *segmentio.Writer
	logger *zap.Logger
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic.
	Topic string
}

// NewPublisher creates a Publisher against the given brokers.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &segmentio.Writer{
		Addr:                   segmentio.TCP(c.Brokers...),
		Topic:                  topic,
		Balancer:               &segmentio.LeastBytes{},
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka event publisher initialized",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// PublishTurnCompleted emits one turn event keyed by stream id.
func (p *Publisher) PublishTurnCompleted(ctx context.Context, ev eventstream.TurnCompletedEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling turn event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, segmentio.Message{
		Key:   []byte(ev.StreamID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("writing turn event: %w", err)
	}

	p.logger.Debug("turn event published",
		zap.String("stream_id", ev.StreamID),
	)

	return nil
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
