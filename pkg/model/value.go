package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	valueEmpty valueKind = iota
	valueNumber
	valueCode
)

// Value is a parsed field value: the empty placeholder, a number, or a
// categorical code. The zero Value is Empty.
type Value struct {
	kind valueKind
	num  float64
	code string
}

// Empty returns the placeholder stored when a field has no usable input.
func Empty() Value {
	return Value{}
}

// Number wraps a finite float. Non-finite input collapses to Empty.
func Number(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Empty()
	}
	return Value{kind: valueNumber, num: v}
}

// Code wraps a categorical option code.
func Code(code string) Value {
	return Value{kind: valueCode, code: code}
}

// IsEmpty reports whether v is the empty placeholder.
func (v Value) IsEmpty() bool {
	return v.kind == valueEmpty
}

// Float returns the numeric payload.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == valueNumber
}

// Code returns the categorical payload.
func (v Value) Code() (string, bool) {
	return v.code, v.kind == valueCode
}

// String renders the value the way an input control displays it.
func (v Value) String() string {
	switch v.kind {
	case valueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case valueCode:
		return v.code
	default:
		return ""
	}
}

// Interface returns the JSON-friendly representation: "" for Empty, float64
// for numbers and string for codes.
func (v Value) Interface() any {
	switch v.kind {
	case valueNumber:
		return v.num
	case valueCode:
		return v.code
	default:
		return ""
	}
}

// MarshalJSON encodes Empty as "", matching what the prediction service
// receives for untouched inputs.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// ParseFieldValue converts raw input into a Value according to the field
// kind. Numeric input that does not parse as a finite float yields Empty, and
// categorical input that is not a declared code yields Empty as well.
func ParseFieldValue(spec FieldSpec, raw string) Value {
	trimmed := strings.TrimSpace(raw)
	switch spec.Kind {
	case FieldKindNumeric:
		if trimmed == "" {
			return Empty()
		}
		num, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Empty()
		}
		return Number(num)
	case FieldKindCategorical:
		if spec.HasOption(trimmed) {
			return Code(trimmed)
		}
		return Empty()
	default:
		return Empty()
	}
}

// ParseAny accepts decoded JSON input (numbers, strings, nil) and routes it
// through ParseFieldValue.
func ParseAny(spec FieldSpec, raw any) Value {
	switch typed := raw.(type) {
	case nil:
		return Empty()
	case string:
		return ParseFieldValue(spec, typed)
	case float64:
		return ParseFieldValue(spec, strconv.FormatFloat(typed, 'f', -1, 64))
	case int:
		return ParseFieldValue(spec, strconv.Itoa(typed))
	case json.Number:
		return ParseFieldValue(spec, typed.String())
	case bool:
		if typed {
			return ParseFieldValue(spec, "1")
		}
		return ParseFieldValue(spec, "0")
	default:
		return Empty()
	}
}

// Equal reports whether two values hold the same payload.
func (v Value) Equal(other Value) bool {
	return v.kind == other.kind && v.num == other.num && v.code == other.code
}
