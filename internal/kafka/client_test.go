package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	err    error
	closed bool
}

func (c *fakeConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []kafka.Partition{{Topic: "credito-analisado-topic"}}, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestClient_HealthCheck_FallsBackToNextBroker(t *testing.T) {
	client := NewClient([]string{"down:9092", "up:9092"}, nil, 1)
	var dialed []string
	conn := &fakeConn{}
	client.dial = func(ctx context.Context, network, address string) (brokerConn, error) {
		dialed = append(dialed, address)
		if address == "down:9092" {
			return nil, errors.New("connection refused")
		}
		return conn, nil
	}

	require.NoError(t, client.HealthCheck(context.Background()))
	assert.Equal(t, []string{"down:9092", "up:9092"}, dialed)
	assert.True(t, conn.closed)
}

func TestClient_HealthCheck_AllBrokersDown(t *testing.T) {
	client := NewClient([]string{"a:9092"}, nil, 1)
	client.dial = func(ctx context.Context, network, address string) (brokerConn, error) {
		return &fakeConn{err: errors.New("metadata unavailable")}, nil
	}

	err := client.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read partitions")
}

func TestClient_HealthCheck_NoBrokers(t *testing.T) {
	client := NewClient(nil, nil, 1)
	assert.Error(t, client.HealthCheck(context.Background()))
}

func TestClient_ReconnectWithBackoff(t *testing.T) {
	client := NewClient([]string{"a:9092"}, nil, 3)
	client.baseBackoff = time.Millisecond
	client.maxBackoff = 5 * time.Millisecond

	attempts := 0
	client.dial = func(ctx context.Context, network, address string) (brokerConn, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("still down")
		}
		return &fakeConn{}, nil
	}

	err := client.reconnectWithBackoff(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []string{"a:9092"}, client.GetBrokers())
}

func TestClient_ReconnectWithBackoff_GivesUp(t *testing.T) {
	client := NewClient([]string{"a:9092"}, nil, 2)
	client.baseBackoff = time.Millisecond
	client.dial = func(ctx context.Context, network, address string) (brokerConn, error) {
		return nil, errors.New("down")
	}

	err := client.reconnectWithBackoff(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestClient_HealthCheckLoop_WaitsOutOutage(t *testing.T) {
	client := NewClient([]string{"a:9092"}, nil, 5)
	client.baseBackoff = time.Millisecond
	client.maxBackoff = 2 * time.Millisecond

	var mu sync.Mutex
	dials := 0
	client.dial = func(ctx context.Context, network, address string) (brokerConn, error) {
		mu.Lock()
		defer mu.Unlock()
		dials++
		if dials <= 2 {
			return nil, errors.New("down")
		}
		return &fakeConn{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		client.HealthCheckLoop(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return dials >= 4
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("health check loop did not stop on cancel")
	}
}
