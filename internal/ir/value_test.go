package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	values := []IRValue{IRNull{}, IRString("a"), IRInt(1), IRFloat(1.5), IRBool(true), IRArray{}, IRObject{}}
	for _, v := range values {
		assert.NotNil(t, v)
	}
}

func TestFromGo(t *testing.T) {
	type custom string

	tests := []struct {
		name  string
		input any
		want  IRValue
	}{
		{"nil", nil, IRNull{}},
		{"string", "bob", IRString("bob")},
		{"int", 42, IRInt(42)},
		{"int32", int32(-7), IRInt(-7)},
		{"uint8", uint8(9), IRInt(9)},
		{"uint", uint(12), IRInt(12)},
		{"bool", true, IRBool(true)},
		{"float64", 9.99, IRFloat(9.99)},
		{"float32", float32(2.5), IRFloat(2.5)},
		{"floats in slice", []any{1, 2.5}, IRArray{IRInt(1), IRFloat(2.5)}},
		{"bytes", []byte("raw"), IRString("raw")},
		{"ir passthrough", IRInt(3), IRInt(3)},
		{"named string", custom("x"), IRString("x")},
		{"slice of any", []any{1, "a"}, IRArray{IRInt(1), IRString("a")}},
		{"typed slice", []int{1, 2, 3}, IRArray{IRInt(1), IRInt(2), IRInt(3)}},
		{"array", [2]string{"a", "b"}, IRArray{IRString("a"), IRString("b")}},
		{"map", map[string]any{"k": 1}, IRObject{"k": IRInt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromGoRejectsNonFiniteFloats(t *testing.T) {
	for _, v := range []any{math.NaN(), math.Inf(1), []any{1, math.Inf(-1)}, map[string]any{"x": math.NaN()}} {
		_, err := FromGo(v)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNonFinite)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	for _, f := range []float64{9.99, 2.5, -0.125, 1e-7, 1e21} {
		v, err := FromGo(f)
		require.NoError(t, err)
		back, err := ToGo(v)
		require.NoError(t, err)
		assert.Equal(t, f, back)
	}
}

func TestMarshalFloatES6(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{1.5, "1.5"},
		{2, "2"},
		{math.Copysign(0, -1), "0"},
		{0.1 + 0.2, "0.30000000000000004"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{1e21, "1e+21"},
		{123456789012345680000, "123456789012345680000"},
		{-2.5e-8, "-2.5e-8"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := MarshalIRValue(IRFloat(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))

			canonical, err := MarshalCanonical(IRFloat(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(canonical))
		})
	}
}

func TestFromGoUnsupported(t *testing.T) {
	_, err := FromGo(struct{}{})
	assert.Error(t, err)
}

func TestToGo(t *testing.T) {
	tests := []struct {
		name  string
		input IRValue
		want  any
	}{
		{"null", IRNull{}, nil},
		{"string", IRString("a"), "a"},
		{"int", IRInt(5), int64(5)},
		{"float", IRFloat(2.5), 2.5},
		{"bool", IRBool(false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ToGo(IRArray{})
	assert.Error(t, err)
	_, err = ToGo(IRObject{})
	assert.Error(t, err)
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...), which sorts before
	// U+FF61 in UTF-16 but after it in UTF-8.
	obj := IRObject{"｡": IRInt(1), "\U0001F600": IRInt(2), "a": IRInt(3)}
	assert.Equal(t, []string{"a", "\U0001F600", "｡"}, obj.SortedKeys())
}

func TestMarshalIRValue(t *testing.T) {
	v := IRObject{
		"name":  IRString("bob"),
		"id":    IRInt(1),
		"tags":  IRArray{IRString("x"), IRNull{}},
		"admin": IRBool(false),
	}
	b, err := MarshalIRValue(v)
	require.NoError(t, err)
	assert.Equal(t, `{"admin":false,"id":1,"name":"bob","tags":["x",null]}`, string(b))
}
