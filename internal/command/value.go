// Package command assembles command lines for the database client tools. A
// command line is the tool's executable followed by one token per option,
// rendered from an ordered option set that merges persistent connection
// options with per-call overrides.
package command

import (
	"strconv"
	"strings"
)

// Kind enumerates the shapes an option value can take.
type Kind int

const (
	// KindFlag is an option that is present but carries no value.
	KindFlag Kind = iota
	// KindScalar is a single string or integer value.
	KindScalar
	// KindSequence is an ordered, possibly nested, list of values.
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindFlag:
		return "flag"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Value is an option value. The zero Value is a Flag.
type Value struct {
	kind    Kind
	text    string
	numeric bool
	num     int
	items   []Value
}

// Flag returns a value that renders as a bare flag.
func Flag() Value {
	return Value{kind: KindFlag}
}

// Scalar returns a string value. Scalar("0") is truthy; use Int(0) for a
// numeric zero.
func Scalar(s string) Value {
	return Value{kind: KindScalar, text: s}
}

// Int returns a numeric value. Int(0) is falsy.
func Int(n int) Value {
	return Value{kind: KindScalar, text: strconv.Itoa(n), numeric: true, num: n}
}

// Sequence returns a list value. Nested sequences are flattened on render.
func Sequence(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSequence, items: cp}
}

// Strings is shorthand for a sequence of scalars.
func Strings(ss ...string) Value {
	items := make([]Value, len(ss))
	for i, s := range ss {
		items[i] = Scalar(s)
	}
	return Value{kind: KindSequence, items: items}
}

// Kind reports the shape of v.
func (v Value) Kind() Kind {
	return v.kind
}

// Truthy reports whether a known flag with this value renders as flag=value.
// Flags, empty strings, numeric zero and sequences without leaves are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindScalar:
		if v.numeric {
			return v.num != 0
		}
		return v.text != ""
	case KindSequence:
		return len(v.Leaves()) > 0
	default:
		return false
	}
}

// Leaves flattens v depth-first into its scalar leaves. Flags contribute
// nothing.
func (v Value) Leaves() []string {
	var out []string
	v.appendLeaves(&out)
	return out
}

func (v Value) appendLeaves(out *[]string) {
	switch v.kind {
	case KindScalar:
		*out = append(*out, v.text)
	case KindSequence:
		for _, item := range v.items {
			item.appendLeaves(out)
		}
	}
}

// String renders the value as it appears after "=" in a flag token.
func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return v.text
	case KindSequence:
		return strings.Join(v.Leaves(), ",")
	default:
		return ""
	}
}
