package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"credit-worker/internal/config"
	"credit-worker/internal/kafka"
	"credit-worker/internal/observability"
	"credit-worker/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func main() {
	creditNumber := flag.String("credit", "", "credit number; generated when empty")
	taxValue := flag.Float64("value", 500.00, "valorIssqn sent with the request")
	count := flag.Int("count", 1, "number of requests to send")
	plain := flag.String("plain", "", "send this plain text instead of a JSON request")
	flag.Parse()

	cfg := config.Load()
	observability.InitLogger(cfg.Logging.Level)
	logger := observability.GetLogger()

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:     cfg.Kafka.Brokers,
		Acks:        cfg.Producer.Acks,
		MaxAttempts: 3,
		MaxRetries:  2,
	})
	defer producer.Close()

	for i := 0; i < *count; i++ {
		number := *creditNumber
		if number == "" {
			number = "CRED-" + uuid.NewString()[:8]
		}

		payload := *plain
		if payload == "" {
			payload = fmt.Sprintf(`{"creditNumber":"%s","valorIssqn":%.2f}`, number, *taxValue)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := producer.Publish(ctx, cfg.Consumer.RequestTopic, number, []byte(payload), map[string]string{
			models.HeaderMessageID:   uuid.NewString(),
			models.HeaderContentType: "application/json",
		})
		cancel()

		entry := logger.WithFields(logrus.Fields{
			"topic":         cfg.Consumer.RequestTopic,
			"credit_number": number,
		})
		if err != nil {
			entry.WithError(err).Error("Failed to send credit request")
			continue
		}
		entry.Info("Credit request sent")
	}
}
