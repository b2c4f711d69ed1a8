package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"int", IRInt(-100), "-100"},
		{"bool", IRBool(true), "true"},
		{"float", 1.25, "1.25"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"sorted keys", IRObject{"zebra": IRInt(1), "alpha": IRInt(2)}, `{"alpha":2,"zebra":1}`},
		{"go map", map[string]any{"b": []any{1, "x"}, "a": true}, `{"a":true,"b":[1,"x"]}`},
		{"no html escape", IRString("<a & b>"), `"<a & b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	for _, v := range []any{nil, IRNull{}, IRFloat(math.Inf(1)), IRArray{IRNull{}}} {
		_, err := MarshalCanonical(v)
		assert.Error(t, err, "%#v", v)
	}
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	decomposed, err := MarshalCanonical(IRString("e\u0301"))
	require.NoError(t, err)
	composed, err := MarshalCanonical(IRString("\u00e9"))
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical(IRString("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))

	// A literal backslash followed by "u2028" stays escaped.
	literal, err := MarshalCanonical(IRString(`a\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028"`, string(literal))
}

func TestFingerprintDeterminism(t *testing.T) {
	a := map[string]any{"kind": "eq", "args": []any{"people.name", "bob"}}
	b := map[string]any{"args": []any{"people.name", "bob"}, "kind": "eq"}

	fa, err := Fingerprint(DomainAST, a)
	require.NoError(t, err)
	fb, err := Fingerprint(DomainAST, b)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.Len(t, fa, 64)
	assert.NotEqual(t, fa, MustFingerprint(DomainRows, a), "domains must not collide")
}

func TestMustFingerprintPanics(t *testing.T) {
	assert.Panics(t, func() { MustFingerprint(DomainAST, 1.5) })
}

func TestFingerprintRows(t *testing.T) {
	rows := []IRObject{
		{"id": IRInt(1), "name": IRString("Ernie"), "nickname": IRNull{}},
		{"id": IRInt(2), "name": IRString("Bert"), "nickname": IRString("Bertie")},
	}
	fp, err := FingerprintRows(rows)
	require.NoError(t, err)
	assert.Len(t, fp, 64)

	again, err := FingerprintRows([]IRObject{
		{"nickname": IRNull{}, "name": IRString("Ernie"), "id": IRInt(1)},
		{"id": IRInt(2), "name": IRString("Bert"), "nickname": IRString("Bertie")},
	})
	require.NoError(t, err)
	assert.Equal(t, fp, again)

	swapped, err := FingerprintRows([]IRObject{rows[1], rows[0]})
	require.NoError(t, err)
	assert.NotEqual(t, fp, swapped)

	empty, err := FingerprintRows(nil)
	require.NoError(t, err)
	assert.NotEqual(t, fp, empty)
}
