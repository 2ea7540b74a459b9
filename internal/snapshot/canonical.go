package snapshot

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Marshal produces the canonical serialization of a snapshot value.
// This is the ONLY serialization used for checksum computation and for
// field-level diffing, so it must stay byte-for-byte stable:
//
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings NFC normalized
//  4. Integers base-10; floats shortest round-trip decimal; integral
//     floats never occur (FromAny normalizes them to Int)
//
// Marshal is total over the sealed Value types; a nil Value marshals as null.
func Marshal(v Value) []byte {
	var buf bytes.Buffer
	marshalValue(&buf, v)
	return buf.Bytes()
}

// MarshalString is Marshal returning a string, for diff comparisons.
func MarshalString(v Value) string {
	return string(Marshal(v))
}

func marshalValue(buf *bytes.Buffer, v Value) {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case String:
		buf.Write(marshalCanonicalString(string(val)))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		buf.WriteString(formatFloat(float64(val)))
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			marshalValue(buf, elem)
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(marshalCanonicalString(k))
			buf.WriteByte(':')
			marshalValue(buf, val[k])
		}
		buf.WriteByte('}')
	}
}

// formatFloat renders a float with the shortest decimal representation that
// round-trips. NaN and infinities have no JSON representation; they cannot
// enter through FromAny, but render as null rather than corrupting output.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// marshalCanonicalString produces the canonical JSON form of a string:
// NFC normalized, no HTML escaping, only control characters, backslash,
// and quote escaped.
func marshalCanonicalString(s string) []byte {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // <, > and & must NOT be escaped
	if err := enc.Encode(normalized); err != nil {
		// A Go string always encodes; this branch is unreachable.
		panic(err)
	}

	// json.Encoder adds a trailing newline, remove it
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	return result
}
