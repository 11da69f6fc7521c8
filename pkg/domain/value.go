package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// Kind identifies the variant held by a Value.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindNull   Kind = "null"
	KindList   Kind = "list"
	KindMap    Kind = "map"
)

// Value is a context or payload value.
// It is a closed set of variants: String, Number, Bool, Null, List and Map.
type Value interface {
	// Kind reports the variant.
	Kind() Kind
	// String returns the canonical string form used for string comparison.
	String() string

	isValue()
}

// String is a text value.
type String string

// Number is a numeric value. All numbers are carried as float64.
type Number float64

// Bool is a boolean value.
type Bool bool

// Null is the absent value.
type Null struct{}

// List is an ordered sequence of values.
type List []Value

// Map is a string-keyed mapping of values.
// It is also the type of a snapshot's execution context.
type Map map[string]Value

func (String) Kind() Kind { return KindString }
func (Number) Kind() Kind { return KindNumber }
func (Bool) Kind() Kind   { return KindBool }
func (Null) Kind() Kind   { return KindNull }
func (List) Kind() Kind   { return KindList }
func (Map) Kind() Kind    { return KindMap }

func (String) isValue() {}
func (Number) isValue() {}
func (Bool) isValue()   {}
func (Null) isValue()   {}
func (List) isValue()   {}
func (Map) isValue()    {}

func (s String) String() string { return string(s) }

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'f', -1, 64) }

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (Null) String() string { return "null" }

// String renders the list as canonical JSON.
func (l List) String() string { return canonicalString(l) }

// String renders the map as canonical JSON (keys sorted).
func (m Map) String() string { return canonicalString(m) }

func canonicalString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// MarshalJSON encodes Null as a JSON null.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// UnmarshalJSON decodes a JSON object into a Map of tagged values.
func (m *Map) UnmarshalJSON(data []byte) error {
	raw, err := decodeJSON(data)
	if err != nil {
		return err
	}
	if raw == nil {
		*m = nil
		return nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", raw)
	}
	v, err := FromAny(obj)
	if err != nil {
		return err
	}
	*m = v.(Map)
	return nil
}

// UnmarshalJSON decodes a JSON array into a List of tagged values.
func (l *List) UnmarshalJSON(data []byte) error {
	raw, err := decodeJSON(data)
	if err != nil {
		return err
	}
	if raw == nil {
		*l = nil
		return nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("expected JSON array, got %T", raw)
	}
	v, err := FromAny(arr)
	if err != nil {
		return err
	}
	*l = v.(List)
	return nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// UnmarshalValue decodes any JSON document into a Value.
func UnmarshalValue(data []byte) (Value, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	return FromAny(raw)
}

// FromAny converts decoded JSON/YAML data (or plain Go scalars) into a Value.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case int:
		return Number(t), nil
	case int8:
		return Number(t), nil
	case int16:
		return Number(t), nil
	case int32:
		return Number(t), nil
	case int64:
		return Number(t), nil
	case uint:
		return Number(t), nil
	case uint8:
		return Number(t), nil
	case uint16:
		return Number(t), nil
	case uint32:
		return Number(t), nil
	case uint64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case []string:
		out := make(List, len(t))
		for i, s := range t {
			out[i] = String(s)
		}
		return out, nil
	case []any:
		out := make(List, len(t))
		for i, item := range t {
			iv, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = iv
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(t))
		for k, item := range t {
			iv, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = iv
		}
		return out, nil
	case map[any]any:
		out := make(Map, len(t))
		for k, item := range t {
			key := fmt.Sprint(k)
			iv, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = iv
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", reflect.TypeOf(v))
}

// MustValue is like FromAny but panics on unsupported input.
// Intended for literals in tests and builders.
func MustValue(v any) Value {
	val, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return val
}

// ToAny converts a Value back into plain Go data.
func ToAny(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(t)
	case Number:
		return float64(t)
	case Bool:
		return bool(t)
	case List:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ToAny(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = ToAny(item)
		}
		return out
	}
	return nil
}

// Length returns the collection length of v.
// Strings count runes. Other scalars have no length.
func Length(v Value) (int, bool) {
	switch t := v.(type) {
	case List:
		return len(t), true
	case Map:
		return len(t), true
	case String:
		return utf8.RuneCountInString(string(t)), true
	}
	return 0, false
}

// Clone returns a deep copy of the map.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, v := range l {
		out[i] = CloneValue(v)
	}
	return out
}

// CloneValue deep copies collection values; scalars are returned as-is.
func CloneValue(v Value) Value {
	switch t := v.(type) {
	case List:
		return t.Clone()
	case Map:
		return t.Clone()
	}
	return v
}

// ToMap converts a plain map into a Map.
func ToMap(m map[string]any) (Map, error) {
	if m == nil {
		return Map{}, nil
	}
	v, err := FromAny(m)
	if err != nil {
		return nil, err
	}
	return v.(Map), nil
}
