package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"credit-worker/pkg/models"

	"github.com/joho/godotenv"
)

type Config struct {
	Kafka    KafkaConfig
	Logging  LoggingConfig
	Consumer ConsumerConfig
	Producer ProducerConfig
	Analysis AnalysisConfig
	Pool     PoolConfig
}

type KafkaConfig struct {
	Brokers             []string
	HealthCheckInterval time.Duration
}

type LoggingConfig struct {
	Level string
}

type ConsumerConfig struct {
	RequestTopic  string
	QueryTopic    string
	GroupID       string
	FetchMinBytes int
	FetchMaxBytes int
}

type ProducerConfig struct {
	Topic        string
	Acks         int
	MaxAttempts  int
	WriteTimeout time.Duration
}

// AnalysisConfig controls the simulated analysis latency, in milliseconds.
type AnalysisConfig struct {
	SimulationMinMs         int
	SimulationRandomExtraMs int
}

type PoolConfig struct {
	CoreSize      int
	MaxSize       int
	QueueCapacity int
	IdleTimeout   time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment only")
	}
	return &Config{
		Kafka: KafkaConfig{
			Brokers:             parseBrokers(getEnv("KAFKA_BROKERS", "localhost:9092")),
			HealthCheckInterval: getEnvMillis("HEALTH_CHECK_INTERVAL_MS", 30000),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Consumer: ConsumerConfig{
			RequestTopic:  getEnv("KAFKA_REQUEST_TOPIC", models.TopicCreditRequested),
			QueryTopic:    getEnv("KAFKA_QUERY_TOPIC", models.TopicCreditQuery),
			GroupID:       getEnv("KAFKA_CONSUMER_GROUP_ID", models.ConsumerGroupAnalise),
			FetchMinBytes: getEnvInt("KAFKA_CONSUMER_FETCH_MIN_BYTES", 1),
			FetchMaxBytes: getEnvInt("KAFKA_CONSUMER_FETCH_MAX_BYTES", 10485760),
		},
		Producer: ProducerConfig{
			Topic:        getEnv("KAFKA_OUTCOME_TOPIC", models.TopicCreditAnalyzed),
			Acks:         parseAcks(getEnv("KAFKA_PRODUCER_ACKS", "all")),
			MaxAttempts:  getEnvInt("KAFKA_PRODUCER_MAX_ATTEMPTS", 1),
			WriteTimeout: getEnvMillis("KAFKA_PRODUCER_WRITE_TIMEOUT_MS", 10000),
		},
		Analysis: AnalysisConfig{
			SimulationMinMs:         getEnvInt("ANALYSIS_SIMULATION_MIN_MS", 2000),
			SimulationRandomExtraMs: getEnvInt("ANALYSIS_SIMULATION_RANDOM_EXTRA_MS", 3000),
		},
		Pool: PoolConfig{
			CoreSize:      getEnvInt("WORKER_POOL_CORE_SIZE", 4),
			MaxSize:       getEnvInt("WORKER_POOL_MAX_SIZE", 8),
			QueueCapacity: getEnvInt("WORKER_POOL_QUEUE_CAPACITY", 500),
			IdleTimeout:   getEnvMillis("WORKER_POOL_IDLE_TIMEOUT_MS", 60000),
		},
	}
}

// Validate reports the first inconsistency found in the configuration.
func (c *Config) Validate() error {
	if len(c.Kafka.Brokers) == 0 {
		return errors.New("brokers cannot be empty")
	}
	if c.Consumer.RequestTopic == "" || c.Consumer.QueryTopic == "" || c.Producer.Topic == "" {
		return errors.New("topics cannot be empty")
	}
	if c.Consumer.GroupID == "" {
		return errors.New("groupID cannot be empty")
	}
	if c.Analysis.SimulationMinMs < 0 {
		return errors.New("simulation min ms cannot be negative")
	}
	if c.Pool.CoreSize < 1 {
		return errors.New("pool core size must be at least 1")
	}
	if c.Pool.MaxSize < c.Pool.CoreSize {
		return errors.New("pool max size cannot be smaller than core size")
	}
	if c.Pool.QueueCapacity < 1 {
		return errors.New("pool queue capacity must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Millisecond
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	result := make([]string, 0, len(parts))
	for _, broker := range parts {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseAcks(acks string) int {
	switch strings.ToLower(acks) {
	case "all", "-1":
		return -1
	case "0":
		return 0
	case "1":
		return 1
	default:
		return -1 // default to all
	}
}
