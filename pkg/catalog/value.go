package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindInvalid ValueKind = iota
	KindString
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is an attribute value: a string for enum attributes, a bool for
// boolean attributes. The zero Value is invalid.
type Value struct {
	kind ValueKind
	str  string
	b    bool
}

// StringValue returns an enum-style value.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// BoolValue returns a boolean value.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsString returns the string payload when v holds a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsBool returns the bool payload when v holds a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// String is the canonical representation used by condition matching and
// violation reasons.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Equal reports whether both values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.str == o.str && v.b == o.b
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		*v = StringValue(t)
	case bool:
		*v = BoolValue(t)
	case nil:
		*v = Value{}
	default:
		return fmt.Errorf("attribute value must be a string or bool, got %T", raw)
	}
	return nil
}

// MarshalYAML renders the payload as a plain scalar.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindBool:
		return v.b, nil
	default:
		return nil, nil
	}
}

// Attributes is a selection's current attribute values keyed by attribute key.
type Attributes map[string]Value

// Clone returns an independent copy; a nil receiver yields an empty map.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Keys returns the attribute keys in lexicographic order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StringMap flattens values to their canonical string representations.
func (a Attributes) StringMap() map[string]string {
	out := make(map[string]string, len(a))
	for k, v := range a {
		out[k] = v.String()
	}
	return out
}
