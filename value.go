package eventsink

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind identifies which of the supported value kinds a Value holds.
type Kind uint8

// Supported value kinds.
const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a single event field value. Only the kinds listed above are
// representable; use ValueOf to convert arbitrary Go values.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	// bits is 32 for values that came from a float32.
	bits int
	tm   time.Time
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer Value.
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Float returns a float Value.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f, bits: 64} }

// Float32 returns a float Value that renders with float32 precision, so
// float32(0.1) is written as 0.1.
func Float32(f float32) Value { return Value{kind: KindFloat, flt: float64(f), bits: 32} }

// Bool returns a boolean Value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

// Time returns a timestamp Value. It is written as RFC 3339 in UTC.
func Time(t time.Time) Value { return Value{kind: KindTime, tm: t} }

// Kind reports the kind of v.
func (v Value) Kind() Kind { return v.kind }

// Interface returns v as a plain Go value (string, int64, float64, bool or time.Time).
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.num == 1
	case KindTime:
		return v.tm
	default:
		return v.str
	}
}

// ValueOf converts a Go value into a Value.
//
// Accepted types: string, every signed and unsigned integer width, float32,
// float64, bool, time.Time and Value. Unsigned values above math.MaxInt64 and any
// other type return an error wrapping ErrUnsupportedValue.
func ValueOf(x interface{}) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return unsignedValue(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return unsignedValue(t)
	case float32:
		return Float32(t), nil
	case float64:
		return Float(t), nil
	case time.Time:
		return Time(t), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, x)
	}
}

func unsignedValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, u)
	}
	return Int(int64(u)), nil
}

// appendJSON writes v in its natural JSON form.
// Non-finite floats have no JSON number form and are written as strings.
func (v Value) appendJSON(b []byte) []byte {
	switch v.kind {
	case KindInt:
		return strconv.AppendInt(b, v.num, 10)
	case KindFloat:
		switch {
		case math.IsNaN(v.flt):
			return appendString(b, "NaN")
		case math.IsInf(v.flt, 1):
			return appendString(b, "+Inf")
		case math.IsInf(v.flt, -1):
			return appendString(b, "-Inf")
		}
		bits := v.bits
		if bits != 32 {
			bits = 64
		}
		return strconv.AppendFloat(b, v.flt, 'g', -1, bits)
	case KindBool:
		return strconv.AppendBool(b, v.num == 1)
	case KindTime:
		return appendString(b, v.tm.UTC().Format(time.RFC3339Nano))
	default:
		return appendString(b, v.str)
	}
}
