package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"credit-worker/internal/observability"
	"credit-worker/internal/workerpool"
	"credit-worker/pkg/models"

	"github.com/sirupsen/logrus"
)

// Submitter accepts work for asynchronous execution.
type Submitter interface {
	Submit(ctx context.Context, task workerpool.Task) error
}

// Processor analyzes one raw credit request.
type Processor interface {
	Process(ctx context.Context, raw string) models.AnalysisOutcome
}

// Dependencies collects the dispatcher collaborators.
type Dependencies struct {
	Pool      Submitter
	Processor Processor
	Metrics   observability.MetricsCollector
}

// Dispatcher hands credit requests off to the worker pool so the consumer
// can keep fetching while analyses are running.
type Dispatcher struct {
	pool      Submitter
	processor Processor
	metrics   observability.MetricsCollector
	logger    *logrus.Logger
}

func New(deps Dependencies) (*Dispatcher, error) {
	if deps.Pool == nil {
		return nil, errors.New("dispatcher: pool dependency is required")
	}
	if deps.Processor == nil {
		return nil, errors.New("dispatcher: processor dependency is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewInMemoryMetrics()
	}
	return &Dispatcher{
		pool:      deps.Pool,
		processor: deps.Processor,
		metrics:   deps.Metrics,
		logger:    observability.GetLogger(),
	}, nil
}

// HandleRequest submits msg for analysis and returns without waiting for
// it. It blocks only while the pool applies backpressure.
func (d *Dispatcher) HandleRequest(ctx context.Context, msg *models.Message) error {
	raw := string(msg.Value)

	d.logger.WithFields(logrus.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
		"payload":   raw,
	}).Info("Received credit request")

	err := d.pool.Submit(ctx, func(taskCtx context.Context) {
		d.processor.Process(taskCtx, raw)
	})
	if err != nil {
		d.metrics.IncDispatchFailed()
		return fmt.Errorf("dispatcher: submit credit request at offset %d: %w", msg.Offset, err)
	}

	d.metrics.IncDispatched()
	return nil
}
