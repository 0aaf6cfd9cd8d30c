package model

import (
	"bytes"
	"encoding/json"
)

// ValueKind tags how a field value arrived.
type ValueKind uint8

const (
	// ValueUnset marks a zero Value.
	ValueUnset ValueKind = iota
	// ValueRaw carries the scalar directly.
	ValueRaw
	// ValueWrapped carries the scalar one level down, as in {"value": V}.
	ValueWrapped
)

// Value is the tagged union Raw(V) | Wrapped(V) for decoded field values.
type Value struct {
	kind   ValueKind
	scalar any
}

// Raw builds a bare value.
func Raw(v any) Value { return Value{kind: ValueRaw, scalar: v} }

// Wrapped builds a value that was nested one level.
func Wrapped(v any) Value { return Value{kind: ValueWrapped, scalar: v} }

// Kind reports the tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsSet reports whether the value was constructed via Raw or Wrapped.
func (v Value) IsSet() bool { return v.kind != ValueUnset }

// Scalar unwraps the value. Both tags yield the same scalar; the tag only
// records the payload shape.
func (v Value) Scalar() any { return v.scalar }

// UnmarshalJSON decides the tag at the boundary: an object with a "value"
// member is Wrapped, anything else is Raw. Numbers decode as json.Number.
func (v *Value) UnmarshalJSON(b []byte) error {
	var wrapper struct {
		Value json.RawMessage `json:"value"`
	}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return err
		}
		if wrapper.Value != nil {
			s, err := decodeScalar(wrapper.Value)
			if err != nil {
				return err
			}
			*v = Wrapped(s)
			return nil
		}
	}
	s, err := decodeScalar(trimmed)
	if err != nil {
		return err
	}
	*v = Raw(s)
	return nil
}

// MarshalJSON writes the shape the value arrived in.
func (v Value) MarshalJSON() ([]byte, error) {
	scalar := v.scalar
	if s, ok := scalar.(interface{ String() string }); ok {
		if _, isNum := scalar.(json.Number); !isNum {
			scalar = s.String()
		}
	}
	if v.kind == ValueWrapped {
		return json.Marshal(map[string]any{"value": scalar})
	}
	return json.Marshal(scalar)
}

func decodeScalar(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Field is one named entry of a decoded record.
type Field struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value Value  `json:"value"`
}
