package analysis

import (
	"testing"

	"credit-worker/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_CreditNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "well formed json", raw: `{"creditNumber":"CRED-123","valorIssqn":500.00}`, want: "CRED-123"},
		{name: "whitespace around colon", raw: `{"creditNumber" :   "CRED-7"}`, want: "CRED-7"},
		{name: "portuguese key", raw: `{"numeroCredito":"123456"}`, want: "123456"},
		{name: "malformed json", raw: `{"creditNumber":"ABC-1", "valorIssqn": }}}`, want: "ABC-1"},
		{name: "first match wins", raw: `"creditNumber":"FIRST" "creditNumber":"SECOND"`, want: "FIRST"},
		{name: "escaped quote is not unescaped", raw: `{"creditNumber":"AB\"CD"}`, want: `AB\`},
		{name: "plain text", raw: "plain text, no structure", want: models.UnknownCreditNumber},
		{name: "empty payload", raw: "", want: models.UnknownCreditNumber},
		{name: "empty value", raw: `{"creditNumber":""}`, want: models.UnknownCreditNumber},
		{name: "unquoted value", raw: `{"creditNumber":123}`, want: models.UnknownCreditNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.raw).CreditNumber)
		})
	}
}

func TestExtract_TaxValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{name: "decimal", raw: `{"valorIssqn":500.00}`, want: ptr(500)},
		{name: "integer", raw: `{"valorIssqn": 1500}`, want: ptr(1500)},
		{name: "fraction", raw: `{"taxValue":999.99}`, want: ptr(999.99)},
		{name: "quoted number is ignored", raw: `{"valorIssqn":"500"}`, want: nil},
		{name: "negative is ignored", raw: `{"valorIssqn":-5}`, want: nil},
		{name: "missing", raw: `{"creditNumber":"X"}`, want: nil},
		{name: "empty payload", raw: "", want: nil},
		{name: "first match wins", raw: `"valorIssqn":10 "valorIssqn":2000`, want: ptr(10)},
		{name: "exponent stops at mantissa", raw: `{"valorIssqn":1e5}`, want: ptr(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.raw).TaxValue
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestExtract_ScenarioPayload(t *testing.T) {
	fields := Extract(`{"creditNumber":"CRED-123","valorIssqn":500.00}`)

	assert.Equal(t, "CRED-123", fields.CreditNumber)
	require.NotNil(t, fields.TaxValue)
	assert.Equal(t, 500.0, *fields.TaxValue)
}

func ptr(v float64) *float64 {
	return &v
}
