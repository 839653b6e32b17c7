package kafka

import (
	"context"
	"testing"
	"time"

	"credit-worker/internal/dispatcher"
	"credit-worker/internal/observability"
	"credit-worker/internal/workerpool"
	"credit-worker/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatedProcessor struct {
	gate <-chan struct{}
}

func (p gatedProcessor) Process(ctx context.Context, raw string) models.AnalysisOutcome {
	<-p.gate
	return models.AnalysisOutcome{}
}

func TestConsumer_ShutdownWhilePoolSaturated_KeepsRefusedOffset(t *testing.T) {
	pool, err := workerpool.New(workerpool.Config{
		Name:          "credit-analysis-test",
		CoreWorkers:   1,
		MaxWorkers:    1,
		QueueCapacity: 1,
	})
	require.NoError(t, err)

	gate := make(chan struct{})
	metrics := observability.NewInMemoryMetrics()
	disp, err := dispatcher.New(dispatcher.Dependencies{
		Pool:      pool,
		Processor: gatedProcessor{gate: gate},
		Metrics:   metrics,
	})
	require.NoError(t, err)

	reader := newFakeReader(
		createKafkaMessage(models.TopicCreditRequested, 0, 1, "", `{"creditNumber":"A"}`),
		createKafkaMessage(models.TopicCreditRequested, 0, 2, "", `{"creditNumber":"B"}`),
		createKafkaMessage(models.TopicCreditRequested, 0, 3, "", `{"creditNumber":"C"}`),
	)
	consumer := newConsumer(reader, ConsumerConfig{Topic: models.TopicCreditRequested, Metrics: metrics})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx, disp.HandleRequest)
	}()

	// Offset 1 runs, offset 2 waits in the queue, offset 3 blocks in Submit.
	require.Eventually(t, func() bool {
		return metrics.GetReceived() == 3 && pool.Active() == 1 && pool.Queued() == 1
	}, 2*time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}

	var offsets []int64
	for _, m := range reader.Committed() {
		offsets = append(offsets, m.Offset)
	}
	assert.Equal(t, []int64{1, 2}, offsets)
	assert.Equal(t, int64(2), metrics.GetDispatched())
	assert.Equal(t, int64(1), metrics.GetDispatchFailed())

	close(gate)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	require.NoError(t, pool.Shutdown(shutdownCtx))
}
