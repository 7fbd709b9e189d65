package dataset

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindNull is the missing-value sentinel.
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindText
	// KindTimestamp is a wall-clock timestamp without zone information.
	KindTimestamp
	// KindTimestampTZ is an instant carrying its zone.
	KindTimestampTZ
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	case KindTimestampTZ:
		return "timestamptz"
	default:
		return "unknown"
	}
}

// Value is a single scalar cell of a Frame.
// The zero Value is Null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	t    time.Time
}

func Null() Value { return Value{} }
func Int(v int64) Value { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }
func Text(v string) Value { return Value{kind: KindText, s: v} }
func Timestamp(v time.Time) Value { return Value{kind: KindTimestamp, t: v} }
func TimestampTZ(v time.Time) Value { return Value{kind: KindTimestampTZ, t: v} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the missing-value sentinel.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() int64 { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Bool() bool { return v.b }
func (v Value) Text() string { return v.s }
func (v Value) Time() time.Time { return v.t }

// Interface returns the Go value held by v, or nil for Null.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindText:
		return v.s
	case KindTimestamp, KindTimestampTZ:
		return v.t
	default:
		return nil
	}
}

// String formats v for display. Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindText:
		return v.s
	case KindTimestamp:
		return v.t.Format(TimestampLayout)
	case KindTimestampTZ:
		return v.t.Format(TimestampTZLayout)
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}

// Layouts used when timestamps are rendered as text.
const (
	TimestampLayout   = "2006-01-02 15:04:05.999999999"
	TimestampTZLayout = "2006-01-02 15:04:05.999999999-07:00"
)
