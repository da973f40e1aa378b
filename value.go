package docsift

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ValueKind identifies the variant held by a Value.
type ValueKind int

// Value variants. The set is closed: every resolved field is exactly one of
// these.
const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindObject
)

// Value is a tagged union holding one resolved field value. The zero Value
// is null.
type Value struct {
	kind ValueKind
	str  string
	i    int64
	f    float64
	b    bool
	list []Value
	obj  map[string]any
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list Value.
func List(vs []Value) Value { return Value{kind: KindList, list: vs} }

// StringList returns a list Value holding the given strings.
func StringList(ss []string) Value {
	vs := make([]Value, 0, len(ss))
	for _, s := range ss {
		vs = append(vs, String(s))
	}
	return List(vs)
}

// Object returns an object Value.
func Object(m map[string]any) Value { return Value{kind: KindObject, obj: m} }

// ValueOf converts a decoded configuration value (YAML/JSON scalar, list or
// mapping) into a Value. Unrecognized types become null.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case []any:
		vs := make([]Value, 0, len(t))
		for _, el := range t {
			vs = append(vs, ValueOf(el))
		}
		return List(vs)
	case []string:
		return StringList(t)
	case map[string]any:
		return Object(t)
	}
	return Null()
}

// Kind returns the variant held by the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Found reports whether the value counts as a successful extraction.
//
// This deliberately preserves a quirk of the extraction rules: a resolved
// zero, false, empty string, empty list or empty object is treated the same
// as "not found", so selector iteration continues past it and the configured
// fallback applies. Do not "fix" this without changing the selector schemas
// that depend on it.
func (v Value) Found() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindString:
		return v.str != ""
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindBool:
		return v.b
	case KindList:
		return len(v.list) > 0
	case KindObject:
		return len(v.obj) > 0
	}
	return false
}

// Str returns the string variant. It returns "" for non-string values.
func (v Value) Str() string { return v.str }

// Int64 returns the integer variant. It returns 0 for non-integer values.
func (v Value) Int64() int64 { return v.i }

// Float64 returns the float variant. It returns 0 for non-float values.
func (v Value) Float64() float64 { return v.f }

// Strings returns the elements of a list value that are strings.
func (v Value) Strings() []string {
	if v.kind != KindList {
		return nil
	}
	out := make([]string, 0, len(v.list))
	for _, el := range v.list {
		if el.kind == KindString {
			out = append(out, el.str)
		}
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindObject:
		return json.Marshal(v.obj)
	}
	return []byte("null"), nil
}

// dateLayouts are tried in order when coercing date/datetime fields.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Coerce converts a value to the declared field type. Coercion never fails:
// when the value cannot be represented in the target type the original value
// is returned unchanged. Null and empty-string inputs coerce to null.
func Coerce(v Value, t FieldType) Value {
	if v.IsNull() || (v.kind == KindString && v.str == "") {
		return Null()
	}

	switch t {
	case TypeInteger:
		switch v.kind {
		case KindInt:
			return v
		case KindFloat:
			return Int(int64(v.f))
		case KindString:
			// Thousands separators are common in scraped counts ("1,234").
			f, err := strconv.ParseFloat(strings.ReplaceAll(v.str, ",", ""), 64)
			if err != nil {
				return v
			}
			return Int(int64(f))
		}
		return v

	case TypeFloat:
		switch v.kind {
		case KindFloat:
			return v
		case KindInt:
			return Float(float64(v.i))
		case KindString:
			f, err := strconv.ParseFloat(strings.ReplaceAll(v.str, ",", ""), 64)
			if err != nil {
				return v
			}
			return Float(f)
		}
		return v

	case TypeBoolean:
		switch v.kind {
		case KindBool:
			return v
		case KindString:
			s := strings.ToLower(v.str)
			return Bool(s == "true" || s == "yes" || s == "1")
		}
		return Bool(v.Found())

	case TypeDate, TypeDatetime:
		if v.kind != KindString {
			return v
		}
		s := strings.ReplaceAll(v.str, "Z", "+00:00")
		if parsed, err := time.Parse(time.RFC3339, v.str); err == nil {
			return String(parsed.Format(time.RFC3339))
		}
		for _, layout := range dateLayouts[1:] {
			if parsed, err := time.Parse(layout, s); err == nil {
				return String(parsed.Format(time.RFC3339))
			}
		}
		return v

	case TypeArray:
		if v.kind == KindList {
			return v
		}
		if v.Found() {
			return List([]Value{v})
		}
		return List(nil)

	case TypeURL:
		if v.kind == KindString {
			return String(strings.TrimSpace(v.str))
		}
		return v

	case TypeEmail:
		if v.kind == KindString {
			return String(strings.ToLower(strings.TrimSpace(v.str)))
		}
		return v
	}

	// string, object and unknown types pass through unchanged.
	return v
}
