package service

import (
	"context"

	"credit-worker/internal/observability"
	"credit-worker/pkg/models"

	"github.com/sirupsen/logrus"
)

const maxPreviewBytes = 512

// QueryAuditor records credit query messages. It only logs; queries never
// reach the analysis path.
type QueryAuditor struct {
	logger *logrus.Logger
}

func NewQueryAuditor() *QueryAuditor {
	return &QueryAuditor{
		logger: observability.GetLogger(),
	}
}

// Process logs the receipt of a credit query message
func (p *QueryAuditor) Process(ctx context.Context, msg *models.Message) error {
	p.logger.WithFields(logrus.Fields{
		"topic":      msg.Topic,
		"partition":  msg.Partition,
		"offset":     msg.Offset,
		"key":        msg.Key,
		"message_id": msg.ID,
		"size":       len(msg.Value),
		"payload":    preview(msg.Value),
	}).Info("Received credit query")

	return nil
}

func preview(value []byte) string {
	if len(value) <= maxPreviewBytes {
		return string(value)
	}
	return string(value[:maxPreviewBytes]) + "..."
}
