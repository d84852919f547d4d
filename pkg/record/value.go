package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the concrete type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
)

// Value is a closed union over the field types that flow through the
// engine: string, number, boolean, null or timestamp. Records are maps
// of field name to Value, which keeps transform and validation code
// free of untyped interface{} plumbing.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
}

// Null returns the null Value. The zero Value is also null.
func Null() Value { return Value{} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time wraps a timestamp, normalized to UTC.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t.UTC()} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the held string. Zero value for other kinds.
func (v Value) Str() string { return v.str }

// Num returns the held number. Zero for other kinds.
func (v Value) Num() float64 { return v.num }

// BoolVal returns the held boolean. False for other kinds.
func (v Value) BoolVal() bool { return v.b }

// TimeVal returns the held timestamp. Zero time for other kinds.
func (v Value) TimeVal() time.Time { return v.t }

// AsFloat converts the value to a float64 where a numeric reading
// exists: numbers directly, numeric strings via parsing, booleans as
// 0/1. The second return is false when no numeric reading exists.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(v.str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsString renders the value for display, persistence of conflict
// snapshots and string-typed rules. Null renders as the empty string.
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// Compare orders the value against a raw filter operand. Both sides
// are compared numerically when the value has a numeric reading and
// the operand parses as a number; otherwise lexicographically on the
// string renderings. Returns -1, 0 or 1.
func (v Value) Compare(operand string) int {
	if f, ok := v.AsFloat(); ok {
		if of, err := strconv.ParseFloat(operand, 64); err == nil {
			switch {
			case f < of:
				return -1
			case f > of:
				return 1
			default:
				return 0
			}
		}
	}
	s := v.AsString()
	switch {
	case s < operand:
		return -1
	case s > operand:
		return 1
	default:
		return 0
	}
}

// FromAny converts a dynamically typed cell (as produced by database
// scans and JSON decoding) into a Value. Unrecognized types fall back
// to their fmt rendering as a string.
func FromAny(raw interface{}) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case time.Time:
		return Time(x)
	case []byte:
		return String(string(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return String(x.String())
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// ToAny converts the value back to a plain Go type for drivers and
// JSON encoders.
func (v Value) ToAny() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// MarshalJSON encodes the value as its natural JSON type. Timestamps
// encode as RFC 3339 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

// UnmarshalJSON decodes any JSON scalar. JSON carries no timestamp
// type, so incoming date strings stay strings until a date_format rule
// touches them.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}
