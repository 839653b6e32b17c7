package kafka

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"credit-worker/internal/observability"

	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// dialFunc opens a broker connection; swapped out in tests.
type dialFunc func(ctx context.Context, network, address string) (brokerConn, error)

type brokerConn interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// Client checks broker connectivity for the worker's topics
type Client struct {
	brokers     []string
	topics      []string
	logger      *logrus.Logger
	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	dial        dialFunc
}

func NewClient(brokers []string, topics []string, maxRetries int) *Client {
	return &Client{
		brokers:     brokers,
		topics:      topics,
		logger:      observability.GetLogger(),
		maxRetries:  maxRetries,
		baseBackoff: 1 * time.Second,
		maxBackoff:  30 * time.Second,
		dial: func(ctx context.Context, network, address string) (brokerConn, error) {
			return kafka.DialContext(ctx, network, address)
		},
	}
}

// HealthCheck succeeds as soon as one broker answers a metadata request
func (c *Client) HealthCheck(ctx context.Context) error {
	if len(c.brokers) == 0 {
		return errors.New("no brokers configured")
	}

	var lastErr error
	for _, broker := range c.brokers {
		conn, err := c.dial(ctx, "tcp", broker)
		if err != nil {
			lastErr = fmt.Errorf("failed to connect to broker %s: %w", broker, err)
			continue
		}

		_, err = conn.ReadPartitions(c.topics...)
		conn.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read partitions from %s: %w", broker, err)
			continue
		}
		return nil
	}

	return lastErr
}

// HealthCheckLoop runs health checks periodically and waits out broker
// outages with exponential backoff
func (c *Client) HealthCheckLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Health check loop stopped")
			return
		case <-ticker.C:
			if err := c.HealthCheck(ctx); err != nil {
				c.logger.WithError(err).Warn("Health check failed, waiting for brokers")
				if err := c.reconnectWithBackoff(ctx); err != nil {
					c.logger.WithError(err).Error("Brokers still unreachable")
				}
			}
		}
	}
}

// reconnectWithBackoff polls the brokers with exponential backoff until one
// answers. kafka-go readers and writers redial on their own, so nothing else
// needs rebuilding.
func (c *Client) reconnectWithBackoff(ctx context.Context) error {
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		backoff := time.Duration(math.Min(
			float64(c.baseBackoff)*math.Pow(2, float64(attempt)),
			float64(c.maxBackoff),
		))

		c.logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"backoff": backoff,
		}).Info("Attempting reconnection")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		if err := c.HealthCheck(ctx); err != nil {
			c.logger.WithError(err).Warn("Reconnection attempt failed")
			continue
		}

		c.logger.Info("Reconnection successful")
		return nil
	}

	return fmt.Errorf("failed to reconnect after %d attempts", c.maxRetries)
}

// GetBrokers returns the list of brokers
func (c *Client) GetBrokers() []string {
	return c.brokers
}
