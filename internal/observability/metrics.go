package observability

import (
	"sync/atomic"
)

// MetricsCollector provides hooks for metrics collection
// Can be implemented to integrate with Prometheus, StatsD, etc.
type MetricsCollector interface {
	IncReceived()
	IncDispatched()
	IncDispatchFailed()
	IncProcessed()
	IncApproved()
	IncRejected()
	IncPublished()
	IncPublishFailed()
}

// InMemoryMetrics is a simple in-memory implementation for testing/demo
type InMemoryMetrics struct {
	Received       atomic.Int64
	Dispatched     atomic.Int64
	DispatchFailed atomic.Int64
	Processed      atomic.Int64
	Approved       atomic.Int64
	Rejected       atomic.Int64
	Published      atomic.Int64
	PublishFailed  atomic.Int64
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{}
}

func (m *InMemoryMetrics) IncReceived() {
	m.Received.Add(1)
}

func (m *InMemoryMetrics) IncDispatched() {
	m.Dispatched.Add(1)
}

func (m *InMemoryMetrics) IncDispatchFailed() {
	m.DispatchFailed.Add(1)
}

func (m *InMemoryMetrics) IncProcessed() {
	m.Processed.Add(1)
}

func (m *InMemoryMetrics) IncApproved() {
	m.Approved.Add(1)
}

func (m *InMemoryMetrics) IncRejected() {
	m.Rejected.Add(1)
}

func (m *InMemoryMetrics) IncPublished() {
	m.Published.Add(1)
}

func (m *InMemoryMetrics) IncPublishFailed() {
	m.PublishFailed.Add(1)
}

func (m *InMemoryMetrics) GetReceived() int64 {
	return m.Received.Load()
}

func (m *InMemoryMetrics) GetDispatched() int64 {
	return m.Dispatched.Load()
}

func (m *InMemoryMetrics) GetDispatchFailed() int64 {
	return m.DispatchFailed.Load()
}

func (m *InMemoryMetrics) GetProcessed() int64 {
	return m.Processed.Load()
}

func (m *InMemoryMetrics) GetApproved() int64 {
	return m.Approved.Load()
}

func (m *InMemoryMetrics) GetRejected() int64 {
	return m.Rejected.Load()
}

func (m *InMemoryMetrics) GetPublished() int64 {
	return m.Published.Load()
}

func (m *InMemoryMetrics) GetPublishFailed() int64 {
	return m.PublishFailed.Load()
}
