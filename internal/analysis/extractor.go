package analysis

import (
	"regexp"
	"strconv"

	"credit-worker/pkg/models"
)

var (
	creditNumberPattern = regexp.MustCompile(`"(?:creditNumber|numeroCredito)"\s*:\s*"([^"]+)"`)
	taxValuePattern     = regexp.MustCompile(`"(?:valorIssqn|taxValue)"\s*:\s*([0-9]+(?:\.[0-9]+)?)`)
)

// ExtractedFields holds what could be recovered from a raw request payload.
// TaxValue is nil when the field is missing or not a number.
type ExtractedFields struct {
	CreditNumber string
	TaxValue     *float64
}

// Extract pulls the credit number and tax value out of raw without requiring
// it to be valid JSON. It never fails: missing fields fall back to
// models.UnknownCreditNumber and a nil tax value.
func Extract(raw string) ExtractedFields {
	return ExtractedFields{
		CreditNumber: extractCreditNumber(raw),
		TaxValue:     extractTaxValue(raw),
	}
}

func extractCreditNumber(raw string) string {
	if raw == "" {
		return models.UnknownCreditNumber
	}
	match := creditNumberPattern.FindStringSubmatch(raw)
	if match == nil {
		return models.UnknownCreditNumber
	}
	return match[1]
}

func extractTaxValue(raw string) *float64 {
	if raw == "" {
		return nil
	}
	match := taxValuePattern.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}
	return &value
}
