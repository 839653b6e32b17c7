package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credit-worker/internal/kafka"
	"credit-worker/pkg/models"

	"github.com/google/uuid"
)

var errProducerNotInitialised = errors.New("outcome publisher: producer not initialised")

// OutcomePublisher writes analysis outcomes to the credit analyzed topic,
// keyed by credit number.
type OutcomePublisher struct {
	producer kafka.ProducerClient
	topic    string
	timeout  time.Duration
	newID    func() string
}

func NewOutcomePublisher(producer kafka.ProducerClient, topic string, timeout time.Duration) *OutcomePublisher {
	if topic == "" {
		topic = models.TopicCreditAnalyzed
	}
	return &OutcomePublisher{
		producer: producer,
		topic:    topic,
		timeout:  timeout,
		newID:    uuid.NewString,
	}
}

// Publish encodes outcome and appends it to the outcome topic.
func (p *OutcomePublisher) Publish(ctx context.Context, outcome models.AnalysisOutcome) error {
	if p == nil || p.producer == nil {
		return errProducerNotInitialised
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	headers := map[string]string{
		models.HeaderMessageID:   p.newID(),
		models.HeaderContentType: "application/json",
		models.HeaderAnalyzedBy:  outcome.AnalyzedBy,
	}

	if err := p.producer.Publish(ctx, p.topic, outcome.CreditNumber, EncodeOutcome(outcome), headers); err != nil {
		return fmt.Errorf("outcome publisher: publish %s: %w", outcome.CreditNumber, err)
	}
	return nil
}

// Topic returns the destination topic
func (p *OutcomePublisher) Topic() string {
	return p.topic
}
