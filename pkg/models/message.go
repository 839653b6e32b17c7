package models

import "time"

// Message represents a message in the system
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Partition int               `json:"partition"`
	Offset    int64             `json:"offset"`
	Key       string            `json:"key"`
	Value     []byte            `json:"value"`
	Headers   map[string]string `json:"headers"`
	Timestamp time.Time         `json:"timestamp"`
}

// MessageHeader constants
const (
	HeaderMessageID   = "message-id"
	HeaderContentType = "content-type"
	HeaderAnalyzedBy  = "analyzed-by"
)

// Topics and consumer group used by the analysis pipeline
const (
	TopicCreditRequested = "solicitacao-creditos-topic"
	TopicCreditQuery     = "consulta-creditos-topic"
	TopicCreditAnalyzed  = "credito-analisado-topic"
	ConsumerGroupAnalise = "analise-group"
)
