package models

import "time"

// Result is the outcome of a credit analysis.
type Result string

const (
	ResultApproved Result = "APPROVED"
	ResultRejected Result = "REJECTED"
)

const (
	// UnknownCreditNumber is used when a request carries no credit number.
	UnknownCreditNumber = "UNKNOWN"
	// AnalyzedByAutoWorker identifies outcomes produced by this worker.
	AnalyzedByAutoWorker = "AUTO_WORKER"
)

// AnalysisOutcome is the event published to the credit analyzed topic.
// Its wire form is produced by publisher.EncodeOutcome.
type AnalysisOutcome struct {
	CreditNumber string
	Result       Result
	AnalyzedBy   string
	Timestamp    time.Time
}

// NewAnalysisOutcome builds an outcome, falling back to UnknownCreditNumber
// when creditNumber is empty.
func NewAnalysisOutcome(creditNumber string, result Result, analyzedBy string, at time.Time) AnalysisOutcome {
	if creditNumber == "" {
		creditNumber = UnknownCreditNumber
	}
	return AnalysisOutcome{
		CreditNumber: creditNumber,
		Result:       result,
		AnalyzedBy:   analyzedBy,
		Timestamp:    at,
	}
}

func (r Result) Valid() bool {
	return r == ResultApproved || r == ResultRejected
}
