package publisher

import (
	"strings"

	"credit-worker/pkg/models"
)

// TimestampLayout is ISO-8601 local date-time without a zone offset.
const TimestampLayout = "2006-01-02T15:04:05.000"

var valueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// EncodeOutcome renders outcome as a single-line flat JSON record. A zero
// timestamp is written as null.
func EncodeOutcome(outcome models.AnalysisOutcome) []byte {
	var b strings.Builder
	b.Grow(128)

	b.WriteString(`{"creditNumber":"`)
	b.WriteString(valueEscaper.Replace(outcome.CreditNumber))
	b.WriteString(`","result":"`)
	b.WriteString(valueEscaper.Replace(string(outcome.Result)))
	b.WriteString(`","analyzedBy":"`)
	b.WriteString(valueEscaper.Replace(outcome.AnalyzedBy))
	b.WriteString(`","timestamp":`)
	if outcome.Timestamp.IsZero() {
		b.WriteString("null")
	} else {
		b.WriteByte('"')
		b.WriteString(outcome.Timestamp.Format(TimestampLayout))
		b.WriteByte('"')
	}
	b.WriteByte('}')

	return []byte(b.String())
}
