// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feature

import (
	"fmt"
	"strconv"
	"time"
)

// Kind enumerates the concrete types a cell can hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindTime
)

// Value is one nullable cell of a Table.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Int returns the value as int64. Floats are truncated toward zero.
func (v Value) Int() int64 {
	if v.kind == KindFloat {
		return int64(v.f)
	}
	return v.i
}

// Float returns the value as float64.
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Time returns the value as a timestamp.
func (v Value) Time() time.Time { return v.t }

// String renders the value for hashing, keys and logs.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindTime:
		return v.t.Format(timestampLayout)
	}
	return ""
}

// key returns a comparable representation used by joins and group-bys.
func (v Value) key() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindTime:
		return v.t.UnixNano()
	}
	return nil
}

// less orders values of compatible kinds; null sorts last.
func (v Value) less(o Value) bool {
	if v.kind == KindNull {
		return false
	}
	if o.kind == KindNull {
		return true
	}
	switch {
	case v.kind == KindTime && o.kind == KindTime:
		return v.t.Before(o.t)
	case v.kind == KindString && o.kind == KindString:
		return v.s < o.s
	default:
		return v.Float() < o.Float()
	}
}

// MarshalJSON keeps tables and prediction logs serializable.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return []byte(strconv.FormatFloat(v.f, 'g', -1, 64)), nil
	case KindString:
		return []byte(strconv.Quote(v.s)), nil
	case KindTime:
		return []byte(strconv.Quote(v.t.Format(timestampLayout))), nil
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}
