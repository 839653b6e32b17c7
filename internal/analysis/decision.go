package analysis

import (
	"math/rand"

	"credit-worker/pkg/models"
)

const (
	// LowTaxThreshold separates the biased rule from the coin flip.
	LowTaxThreshold = 1000.0
	// LowTaxApprovalPercent is the approval chance below LowTaxThreshold.
	LowTaxApprovalPercent = 70
)

// RandSource draws uniform integers in [0, n).
type RandSource interface {
	IntN(n int) int
}

// globalRand uses the runtime generator, which is safe for concurrent use
// and needs no seeding.
type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.Intn(n)
}

// DefaultRand returns the process-wide concurrency-safe source.
func DefaultRand() RandSource {
	return globalRand{}
}

// Decider turns an optional tax value into an approval decision.
type Decider struct {
	rnd RandSource
}

func NewDecider(rnd RandSource) *Decider {
	if rnd == nil {
		rnd = DefaultRand()
	}
	return &Decider{rnd: rnd}
}

// Decide approves 70% of requests with a tax value below 1000 and half of
// everything else, including requests without a tax value.
func (d *Decider) Decide(taxValue *float64) models.Result {
	if taxValue != nil && *taxValue < LowTaxThreshold {
		if d.rnd.IntN(100) < LowTaxApprovalPercent {
			return models.ResultApproved
		}
		return models.ResultRejected
	}
	if d.rnd.IntN(2) == 0 {
		return models.ResultApproved
	}
	return models.ResultRejected
}
