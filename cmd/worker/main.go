package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"credit-worker/internal/analysis"
	"credit-worker/internal/config"
	"credit-worker/internal/dispatcher"
	"credit-worker/internal/kafka"
	"credit-worker/internal/observability"
	"credit-worker/internal/publisher"
	"credit-worker/internal/service"
	"credit-worker/internal/workerpool"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.Logging.Level)
	logger := observability.GetLogger()

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	zlog, err := observability.NewZapLogger(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build transport logger")
	}
	defer zlog.Sync()

	logger.WithFields(logrus.Fields{
		"brokers":       cfg.Kafka.Brokers,
		"request_topic": cfg.Consumer.RequestTopic,
		"query_topic":   cfg.Consumer.QueryTopic,
		"outcome_topic": cfg.Producer.Topic,
		"group_id":      cfg.Consumer.GroupID,
	}).Info("Starting credit analysis worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := kafka.NewClient(cfg.Kafka.Brokers, []string{
		cfg.Consumer.RequestTopic, cfg.Consumer.QueryTopic, cfg.Producer.Topic,
	}, 5)
	checkCtx, cancelCheck := context.WithTimeout(ctx, 10*time.Second)
	if err := client.HealthCheck(checkCtx); err != nil {
		logger.WithError(err).Warn("Kafka not reachable at startup, continuing")
	}
	cancelCheck()

	metrics := observability.NewInMemoryMetrics()

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Acks:         cfg.Producer.Acks,
		MaxAttempts:  cfg.Producer.MaxAttempts,
		WriteTimeout: cfg.Producer.WriteTimeout,
		Logger:       zlog.Named("producer"),
	})

	analyzer := analysis.NewAnalyzer(analysis.Dependencies{
		Publisher: publisher.NewOutcomePublisher(producer, cfg.Producer.Topic, cfg.Producer.WriteTimeout),
		Decider:   analysis.NewDecider(nil),
		Delayer:   analysis.NewDelayer(cfg.Analysis.SimulationMinMs, cfg.Analysis.SimulationRandomExtraMs, nil),
		Metrics:   metrics,
	})

	pool, err := workerpool.New(workerpool.Config{
		Name:          "credit-analysis",
		CoreWorkers:   cfg.Pool.CoreSize,
		MaxWorkers:    cfg.Pool.MaxSize,
		QueueCapacity: cfg.Pool.QueueCapacity,
		IdleTimeout:   cfg.Pool.IdleTimeout,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create worker pool")
	}

	disp, err := dispatcher.New(dispatcher.Dependencies{
		Pool:      pool,
		Processor: analyzer,
		Metrics:   metrics,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create dispatcher")
	}

	requests := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Consumer.RequestTopic,
		GroupID:       cfg.Consumer.GroupID,
		FetchMinBytes: cfg.Consumer.FetchMinBytes,
		FetchMaxBytes: cfg.Consumer.FetchMaxBytes,
		Metrics:       metrics,
		Logger:        zlog.Named("requests"),
	})
	queries := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Consumer.QueryTopic,
		GroupID:       cfg.Consumer.GroupID,
		FetchMinBytes: cfg.Consumer.FetchMinBytes,
		FetchMaxBytes: cfg.Consumer.FetchMaxBytes,
		Logger:        zlog.Named("queries"),
	})
	auditor := service.NewQueryAuditor()

	var wg sync.WaitGroup
	subscribe := func(c *kafka.Consumer, handler kafka.MessageHandler) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Start(ctx, handler); err != nil {
				// The failed offset is uncommitted; restart to have it redelivered.
				logger.WithError(err).WithField("topic", c.Topic()).Error("Consumer stopped with error, shutting down")
				stop()
			}
		}()
	}
	subscribe(requests, disp.HandleRequest)
	subscribe(queries, auditor.Process)

	wg.Add(1)
	go func() {
		defer wg.Done()
		client.HealthCheckLoop(ctx, cfg.Kafka.HealthCheckInterval)
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	for _, c := range []*kafka.Consumer{requests, queries} {
		if err := c.Close(); err != nil {
			logger.WithError(err).WithField("topic", c.Topic()).Error("Error closing consumer")
		}
	}
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Worker pool did not drain in time")
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Error("Error closing producer")
	}

	logger.WithFields(logrus.Fields{
		"received":        metrics.GetReceived(),
		"dispatched":      metrics.GetDispatched(),
		"dispatch_failed": metrics.GetDispatchFailed(),
		"processed":       metrics.GetProcessed(),
		"approved":        metrics.GetApproved(),
		"rejected":        metrics.GetRejected(),
		"published":       metrics.GetPublished(),
		"publish_failed":  metrics.GetPublishFailed(),
	}).Info("Credit analysis worker stopped")
}
