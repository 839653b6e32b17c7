package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"credit-worker/internal/observability"
	"credit-worker/pkg/models"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes consumed messages
type MessageHandler func(ctx context.Context, msg *models.Message) error

// ConsumerClient defines the interface for Kafka consumer operations
type ConsumerClient interface {
	Start(ctx context.Context, handler MessageHandler) error
	Close() error
}

// messageReader is the subset of *kafka.Reader the consumer relies on.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer delivers messages of one topic to a handler from a single fetch
// loop, so per-partition delivery order is preserved. Handlers that need
// parallelism must hand the message off themselves.
type Consumer struct {
	reader       messageReader
	topic        string
	logger       *zap.Logger
	metrics      observability.MetricsCollector
	errorBackoff time.Duration
	closeOnce    sync.Once
	closeErr     error
}

type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	GroupID       string
	FetchMinBytes int
	FetchMaxBytes int
	Metrics       observability.MetricsCollector
	Logger        *zap.Logger
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.FetchMinBytes <= 0 {
		cfg.FetchMinBytes = 1
	}
	if cfg.FetchMaxBytes <= 0 {
		cfg.FetchMaxBytes = 10e6
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       cfg.FetchMinBytes,
		MaxBytes:       cfg.FetchMaxBytes,
		MaxWait:        time.Second,
		CommitInterval: 0, // Manual commits
		StartOffset:    kafka.FirstOffset,
	})

	return newConsumer(reader, cfg)
}

func newConsumer(reader messageReader, cfg ConsumerConfig) *Consumer {
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewInMemoryMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Consumer{
		reader:       reader,
		topic:        cfg.Topic,
		logger:       cfg.Logger.With(zap.String("topic", cfg.Topic)),
		metrics:      cfg.Metrics,
		errorBackoff: time.Second,
	}
}

// Start fetches messages until ctx is cancelled or the reader is closed. A
// handler error outside shutdown stops the loop and is returned.
func (c *Consumer) Start(ctx context.Context, handler MessageHandler) error {
	if handler == nil {
		return errors.New("kafka consumer: handler is required")
	}
	c.logger.Info("Starting consumer")

	for {
		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Consumer stopping due to context cancellation")
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info("Consumer stopping - reader closed")
				return nil
			}
			c.logger.Error("Failed to fetch message", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.errorBackoff):
			}
			continue
		}

		c.metrics.IncReceived()
		if err := c.processMessage(ctx, kafkaMsg, handler); err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Consumer stopping due to context cancellation")
				return nil
			}
			return err
		}
	}
}

// processMessage hands one message to the handler and commits its offset
// once the handler accepts it. A rejected message stays uncommitted and the
// caller stops fetching, so no later commit can move the group past it.
func (c *Consumer) processMessage(ctx context.Context, kafkaMsg kafka.Message, handler MessageHandler) error {
	msg := c.toInternalMessage(kafkaMsg)

	logger := c.logger.With(
		zap.Int("partition", kafkaMsg.Partition),
		zap.Int64("offset", kafkaMsg.Offset),
		zap.String("key", msg.Key),
	)

	if err := handler(ctx, msg); err != nil {
		logger.Error("Message handling failed, offset left uncommitted", zap.Error(err))
		return fmt.Errorf("handle message at partition %d offset %d: %w", kafkaMsg.Partition, kafkaMsg.Offset, err)
	}
	logger.Debug("Message handed off")

	c.commitMessage(kafkaMsg)
	return nil
}

// commitMessage commits the message offset
func (c *Consumer) commitMessage(msg kafka.Message) {
	if err := c.reader.CommitMessages(context.Background(), msg); err != nil {
		c.logger.Error("Failed to commit message", zap.Error(err))
	}
}

// toInternalMessage converts Kafka message to internal format
func (c *Consumer) toInternalMessage(kafkaMsg kafka.Message) *models.Message {
	headers := make(map[string]string, len(kafkaMsg.Headers))
	for _, h := range kafkaMsg.Headers {
		headers[h.Key] = string(h.Value)
	}

	return &models.Message{
		ID:        headers[models.HeaderMessageID],
		Topic:     kafkaMsg.Topic,
		Partition: kafkaMsg.Partition,
		Offset:    kafkaMsg.Offset,
		Key:       string(kafkaMsg.Key),
		Value:     kafkaMsg.Value,
		Headers:   headers,
		Timestamp: kafkaMsg.Time,
	}
}

// Close gracefully shuts down the consumer
func (c *Consumer) Close() error {
	c.closeOnce.Do(func() {
		c.logger.Info("Closing consumer")
		if err := c.reader.Close(); err != nil {
			c.closeErr = fmt.Errorf("failed to close consumer: %w", err)
		}
	})
	return c.closeErr
}

// Topic returns the subscribed topic
func (c *Consumer) Topic() string {
	return c.topic
}
