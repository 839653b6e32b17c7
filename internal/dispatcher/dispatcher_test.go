package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"credit-worker/internal/analysis"
	"credit-worker/internal/kafka"
	"credit-worker/internal/observability"
	"credit-worker/internal/publisher"
	"credit-worker/internal/workerpool"
	"credit-worker/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorFunc func(ctx context.Context, raw string) models.AnalysisOutcome

func (f processorFunc) Process(ctx context.Context, raw string) models.AnalysisOutcome {
	return f(ctx, raw)
}

// saturationSpy records how often a submission found the pool full.
type saturationSpy struct {
	pool      *workerpool.Pool
	saturated atomic.Int64
}

func (s *saturationSpy) Submit(ctx context.Context, task workerpool.Task) error {
	err := s.pool.TrySubmit(task)
	if err == workerpool.ErrQueueFull {
		s.saturated.Add(1)
		return s.pool.Submit(ctx, task)
	}
	return err
}

type failingSubmitter struct{ err error }

func (f failingSubmitter) Submit(ctx context.Context, task workerpool.Task) error {
	return f.err
}

func newPool(t *testing.T, core, max, queue int) *workerpool.Pool {
	t.Helper()
	pool, err := workerpool.New(workerpool.Config{
		Name:          "credit-analysis-test",
		CoreWorkers:   core,
		MaxWorkers:    max,
		QueueCapacity: queue,
		IdleTimeout:   50 * time.Millisecond,
	})
	require.NoError(t, err)
	return pool
}

func requestMessage(offset int64, payload string) *models.Message {
	return &models.Message{
		Topic:  models.TopicCreditRequested,
		Offset: offset,
		Value:  []byte(payload),
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Dependencies{Processor: processorFunc(nil)})
	assert.Error(t, err)

	_, err = New(Dependencies{Pool: failingSubmitter{}})
	assert.Error(t, err)
}

func TestDispatcher_HandleRequest_ReturnsBeforeProcessing(t *testing.T) {
	pool := newPool(t, 1, 1, 4)
	defer pool.Shutdown(context.Background())

	gate := make(chan struct{})
	processed := make(chan string, 1)
	d, err := New(Dependencies{
		Pool: pool,
		Processor: processorFunc(func(ctx context.Context, raw string) models.AnalysisOutcome {
			<-gate
			processed <- raw
			return models.AnalysisOutcome{}
		}),
	})
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, d.HandleRequest(context.Background(), requestMessage(1, "payload")))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	close(gate)
	select {
	case raw := <-processed:
		assert.Equal(t, "payload", raw)
	case <-time.After(2 * time.Second):
		t.Fatal("request was never processed")
	}
}

func TestDispatcher_HandleRequest_SubmitFailure(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	d, err := New(Dependencies{
		Pool:      failingSubmitter{err: workerpool.ErrPoolClosed},
		Processor: processorFunc(func(ctx context.Context, raw string) models.AnalysisOutcome { return models.AnalysisOutcome{} }),
		Metrics:   metrics,
	})
	require.NoError(t, err)

	err = d.HandleRequest(context.Background(), requestMessage(9, "x"))

	require.Error(t, err)
	assert.ErrorIs(t, err, workerpool.ErrPoolClosed)
	assert.Equal(t, int64(1), metrics.GetDispatchFailed())
	assert.Equal(t, int64(0), metrics.GetDispatched())
}

func TestDispatcher_ConcurrentRequestsAllPublishedOnce(t *testing.T) {
	const total = 100

	producer := kafka.NewMockProducer()
	metrics := observability.NewInMemoryMetrics()
	analyzer := analysis.NewAnalyzer(analysis.Dependencies{
		Publisher: publisher.NewOutcomePublisher(producer, models.TopicCreditAnalyzed, time.Second),
		Delayer:   analysis.NewDelayer(2, 3, nil),
		Metrics:   metrics,
	})

	pool := newPool(t, 2, 4, 8)
	spy := &saturationSpy{pool: pool}
	d, err := New(Dependencies{Pool: spy, Processor: analyzer, Metrics: metrics})
	require.NoError(t, err)

	for i := 0; i < total; i++ {
		payload := fmt.Sprintf(`{"creditNumber":"CRED-%03d","valorIssqn":%d.50}`, i, i*20)
		require.NoError(t, d.HandleRequest(context.Background(), requestMessage(int64(i), payload)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	published := producer.GetPublishedMessages()
	require.Len(t, published, total)

	keys := make(map[string]int, total)
	for _, m := range published {
		keys[m.Key]++

		var body map[string]any
		require.NoError(t, json.Unmarshal(m.Value, &body))
		assert.Equal(t, m.Key, body["creditNumber"])
		assert.Contains(t, []any{"APPROVED", "REJECTED"}, body["result"])
		assert.Equal(t, models.AnalyzedByAutoWorker, body["analyzedBy"])
		assert.NotNil(t, body["timestamp"])
	}
	require.Len(t, keys, total)
	for key, n := range keys {
		assert.Equal(t, 1, n, "credit %s", key)
	}

	assert.Greater(t, spy.saturated.Load(), int64(0), "expected the pool to push back at least once")
	assert.Equal(t, int64(total), metrics.GetDispatched())
	assert.Equal(t, int64(total), metrics.GetPublished())
	assert.Equal(t, metrics.GetApproved()+metrics.GetRejected(), int64(total))
}
