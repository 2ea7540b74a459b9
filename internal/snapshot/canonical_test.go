package snapshot

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalDeterministicAcrossConstruction(t *testing.T) {
	// Same semantic content, different construction paths.
	a := Object{"subject": String("Math"), "grade": Int(8)}

	b := make(Object)
	b["grade"] = Int(8)
	b["subject"] = String("Math")

	fromAny, err := ObjectFromAny(map[string]any{"grade": 8.0, "subject": "Math"})
	require.NoError(t, err)

	assert.Equal(t, Marshal(a), Marshal(b))
	assert.Equal(t, Marshal(a), Marshal(fromAny))
}

func TestMarshalScalars(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null{}, "null"},
		{"nil value", nil, "null"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"int", Int(8), "8"},
		{"negative int", Int(-3), "-3"},
		{"float", Float(7.5), "7.5"},
		{"small float", Float(0.25), "0.25"},
		{"string", String("Math"), `"Math"`},
		{"empty object", Object{}, "{}"},
		{"empty array", Array{}, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MarshalString(tt.in))
		})
	}
}

func TestMarshalDoesNotEscapeHTML(t *testing.T) {
	got := MarshalString(Object{"note": String(`6 < 8 & "quoted"`)})
	assert.Equal(t, `{"note":"6 < 8 & \"quoted\""}`, got)
}

func TestMarshalNormalizesNFC(t *testing.T) {
	// "é" composed (U+00E9) vs decomposed (e + U+0301) must serialize
	// identically, in keys and in values.
	composed := Object{"café": String("José")}
	decomposed := Object{"café": String("José")}

	assert.Equal(t, Marshal(composed), Marshal(decomposed))
}

func TestMarshalSortsNestedObjectKeys(t *testing.T) {
	got := MarshalString(Object{
		"b": Int(2),
		"a": Object{"z": Int(26), "m": Int(13)},
	})
	assert.Equal(t, `{"a":{"m":13,"z":26},"b":2}`, got)
}

func TestMarshalGolden(t *testing.T) {
	g := goldie.New(t)

	obj := Object{
		"student":    String("Noor van Dijk"),
		"grade":      Int(8),
		"weight":     Float(0.25),
		"passed":     Bool(true),
		"note":       Null{},
		"subject":    String("Wiskunde & Meetkunde"),
		"components": Array{Int(7), Float(8.5), String("herkansing")},
		"meta":       Object{"b": Int(2), "a": Int(1)},
	}

	g.Assert(t, "canonical", Marshal(obj))
}
