package analysis

import (
	"context"
	"time"

	"credit-worker/internal/observability"
	"credit-worker/pkg/models"

	"github.com/sirupsen/logrus"
)

// OutcomePublisher emits analysis outcomes downstream.
type OutcomePublisher interface {
	Publish(ctx context.Context, outcome models.AnalysisOutcome) error
}

// Dependencies collects the collaborators an Analyzer needs.
type Dependencies struct {
	Publisher OutcomePublisher
	Decider   *Decider
	Delayer   *Delayer
	Metrics   observability.MetricsCollector
	Now       func() time.Time
}

// Analyzer runs one credit analysis per request message.
type Analyzer struct {
	publisher OutcomePublisher
	decider   *Decider
	delayer   *Delayer
	metrics   observability.MetricsCollector
	now       func() time.Time
	logger    *logrus.Logger
}

func NewAnalyzer(deps Dependencies) *Analyzer {
	if deps.Decider == nil {
		deps.Decider = NewDecider(nil)
	}
	if deps.Delayer == nil {
		deps.Delayer = NewDelayer(2000, 3000, nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewInMemoryMetrics()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Analyzer{
		publisher: deps.Publisher,
		decider:   deps.Decider,
		delayer:   deps.Delayer,
		metrics:   deps.Metrics,
		now:       deps.Now,
		logger:    observability.GetLogger(),
	}
}

// Process analyzes raw and publishes the outcome. Publish failures are
// logged and counted but never retried.
func (a *Analyzer) Process(ctx context.Context, raw string) models.AnalysisOutcome {
	fields := Extract(raw)

	delay := a.delayer.Simulate(ctx)

	result := a.decider.Decide(fields.TaxValue)
	outcome := models.NewAnalysisOutcome(fields.CreditNumber, result, models.AnalyzedByAutoWorker, a.now())

	entry := a.logger.WithFields(logrus.Fields{
		"credit_number": outcome.CreditNumber,
		"result":        outcome.Result,
		"delay_ms":      delay.Milliseconds(),
	})
	if fields.TaxValue != nil {
		entry = entry.WithField("tax_value", *fields.TaxValue)
	}
	entry.Info("Credit analysis decided")

	a.metrics.IncProcessed()
	if result == models.ResultApproved {
		a.metrics.IncApproved()
	} else {
		a.metrics.IncRejected()
	}

	if a.publisher == nil {
		a.logger.WithField("credit_number", outcome.CreditNumber).Error("No outcome publisher configured")
		a.metrics.IncPublishFailed()
		return outcome
	}

	// The task context may already be cancelled by shutdown; the outcome is
	// still worth delivering.
	if err := a.publisher.Publish(context.WithoutCancel(ctx), outcome); err != nil {
		a.metrics.IncPublishFailed()
		a.logger.WithError(err).
			WithField("credit_number", outcome.CreditNumber).
			Error("Failed to publish credit analyzed event")
		return outcome
	}

	a.metrics.IncPublished()
	a.logger.WithFields(logrus.Fields{
		"credit_number": outcome.CreditNumber,
	}).Info("Published credit analyzed event")
	return outcome
}
