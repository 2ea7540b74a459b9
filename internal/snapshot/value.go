package snapshot

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"unicode/utf16"
)

// maxDepth bounds recursion in FromAny. Snapshots are small documents; a
// value this deep is almost certainly a cyclic structure, which the
// canonical contract forbids.
const maxDepth = 64

// Value is a sealed interface over the types a snapshot may contain.
// Only Null, Bool, String, Int, Float, Array, and Object implement it.
//
// Entity snapshots are JSON-like: acyclic maps, lists, and scalars. The
// sealed set makes serialization order and scalar formatting a specified
// contract rather than whatever the in-memory representation happens to be.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents a JSON null inside a snapshot.
// An explicit type rather than nil so every Value satisfies the sealed interface.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean snapshot field.
type Bool bool

func (Bool) value() {}

// String represents a string snapshot field.
type String string

func (String) value() {}

// Int represents an integral numeric snapshot field.
type Int int64

func (Int) value() {}

// Float represents a non-integral numeric snapshot field.
// Integral floats are normalized to Int by FromAny so that 8 and 8.0
// serialize identically.
type Float float64

func (Float) value() {}

// Array represents an ordered list of snapshot values.
type Array []Value

func (Array) value() {}

// Object represents a map of field names to snapshot values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// FromAny converts a decoded-JSON Go value (map[string]any, []any, string,
// bool, numbers, nil) into a sealed Value. Returns an error for types that
// have no snapshot representation and for values nested deeper than the
// cyclic-structure guard allows.
func FromAny(v any) (Value, error) {
	return fromAny(v, 0)
}

// ObjectFromAny converts a decoded-JSON map into an Object.
// A nil map converts to a nil Object (absent snapshot).
func ObjectFromAny(m map[string]any) (Object, error) {
	if m == nil {
		return nil, nil
	}
	val, err := fromAny(m, 0)
	if err != nil {
		return nil, err
	}
	return val.(Object), nil
}

func fromAny(v any, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("value nested deeper than %d levels (cyclic structure?)", maxDepth)
	}

	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Array:
		// Pre-built containers recurse so the depth guard sees through them.
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := fromAny(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case Object:
		obj := make(Object, len(val))
		for k, elem := range val {
			conv, err := fromAny(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	case Value:
		// Remaining sealed types are scalars.
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float64:
		return numberValue(val), nil
	case float32:
		return numberValue(float64(val)), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("unrepresentable number %q", string(val))
		}
		return numberValue(f), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := fromAny(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			conv, err := fromAny(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot type: %T", v)
	}
}

// numberValue normalizes integral floats to Int so numeric identity does not
// depend on how the caller's JSON decoder produced the number.
func numberValue(f float64) Value {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return Int(int64(f))
	}
	return Float(f)
}

// Clone returns a deep copy of the object. A nil object clones to nil.
// The recorder clones snapshots at append time so later mutation by the
// caller cannot retroactively alter the logged state.
func (obj Object) Clone() Object {
	if obj == nil {
		return nil
	}
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case Object:
		return val.Clone()
	default:
		// Scalars are immutable.
		return val
	}
}

// SortedKeys returns keys ordered by UTF-16 code units.
// Go's sort.Strings compares UTF-8 bytes, which produces a DIFFERENT order
// for strings outside the BMP; stored checksums were computed with UTF-16
// ordering, so this must not change.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 compares strings code unit by code unit in their UTF-16
// encoding, with correct surrogate handling.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}

	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

// UnmarshalJSON implements json.Unmarshaler for Object.
// Numbers are decoded through json.Number so integers larger than 2^53
// survive the round trip through the store.
func (obj *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*obj = make(Object, len(raw))
	for k, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("snapshot key %q: %w", k, err)
		}
		(*obj)[k] = val
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Array.
func (arr *Array) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*arr = make(Array, len(raw))
	for i, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("snapshot index %d: %w", i, err)
		}
		(*arr)[i] = val
	}
	return nil
}

// unmarshalValue decodes one JSON value into the matching sealed type.
func unmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		return Null{}, nil

	case '[':
		var arr Array
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, err
		}
		return arr, nil

	case '{':
		var obj Object
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return obj, nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		if i, err := n.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("unrepresentable number %q", string(n))
		}
		return numberValue(f), nil
	}
}

// ParseObject decodes a JSON object (as stored by the backends) into an Object.
// Empty input decodes to a nil Object, representing an absent snapshot.
func ParseObject(data string) (Object, error) {
	if data == "" {
		return nil, nil
	}
	var obj Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return obj, nil
}
