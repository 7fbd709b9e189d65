package mapper

import (
	"math"
	"strconv"
	"strings"

	"github.com/dan-strohschein/pgtab/dataset"
)

// RenderLiteral renders v as a SQL literal for a VALUES list.
// Text and timestamps are single-quoted with embedded quotes doubled.
func RenderLiteral(v dataset.Value) string {
	switch v.Kind() {
	case dataset.KindNull:
		return "NULL"
	case dataset.KindInt:
		return strconv.FormatInt(v.Int(), 10)
	case dataset.KindFloat:
		f := v.Float()
		switch {
		case math.IsNaN(f):
			return "NULL"
		case math.IsInf(f, 1):
			return "'Infinity'"
		case math.IsInf(f, -1):
			return "'-Infinity'"
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case dataset.KindBool:
		if v.Bool() {
			return "TRUE"
		}
		return "FALSE"
	case dataset.KindTimestamp:
		return QuoteString(v.Time().Format(dataset.TimestampLayout))
	case dataset.KindTimestampTZ:
		return QuoteString(v.Time().Format(dataset.TimestampTZLayout))
	default:
		return QuoteString(v.Text())
	}
}

// RenderRow renders a row as a parenthesized, comma-separated tuple.
func RenderRow(row []dataset.Value) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range row {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(RenderLiteral(v))
	}
	b.WriteByte(')')
	return b.String()
}

// QuoteString wraps s in single quotes, doubling any embedded quote.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
