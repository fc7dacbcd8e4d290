package models

import (
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueAbsent ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
	ValuePath
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "bool"
	case ValuePath:
		return "path"
	default:
		return "absent"
	}
}

// Value is one profile attribute as read by a criterion or field definition.
// The zero value is absent.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	path []string
}

// Absent returns the absent value.
func Absent() Value { return Value{} }

func StringValue(s string) Value  { return Value{kind: ValueString, str: s} }
func NumberValue(n float64) Value { return Value{kind: ValueNumber, num: n} }
func BoolValue(b bool) Value      { return Value{kind: ValueBool, b: b} }

// PathValue returns an administrative path value. An empty path is absent.
func PathValue(path []string) Value {
	if len(path) == 0 {
		return Absent()
	}
	return Value{kind: ValuePath, path: append([]string(nil), path...)}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsAbsent() bool  { return v.kind == ValueAbsent }

// Str returns the string payload; empty unless Kind is ValueString.
func (v Value) Str() string { return v.str }

// Num returns the numeric payload; zero unless Kind is ValueNumber.
func (v Value) Num() float64 { return v.num }

// Bool returns the boolean payload; false unless Kind is ValueBool.
func (v Value) Bool() bool { return v.b }

// Path returns a copy of the path payload.
func (v Value) Path() []string { return append([]string(nil), v.path...) }

// Text renders the value as a document field string.
func (v Value) Text() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValuePath:
		return strings.Join(v.path, ", ")
	default:
		return ""
	}
}
