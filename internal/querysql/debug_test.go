package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugSQL(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		params []any
		want   string
	}{
		{"string", `"a"."b" = ?`, []any{"bob"}, `"a"."b" = 'bob'`},
		{"escaped quote", `x = ?`, []any{"o'brien"}, `x = 'o''brien'`},
		{"int and bool", `x = ? AND y = ?`, []any{int64(3), true}, `x = 3 AND y = 1`},
		{"null", `x = ?`, []any{nil}, `x = NULL`},
		{"question in identifier", `"what?" = ?`, []any{int64(1)}, `"what?" = 1`},
		{"question in string", `x = '?' AND y = ?`, []any{"z"}, `x = '?' AND y = 'z'`},
		{"missing params", `x IN (?, ?)`, []any{int64(1)}, `x IN (1, ?)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DebugSQL(tt.sql, tt.params))
		})
	}
}

func TestInlineValue(t *testing.T) {
	assert.Equal(t, "0", InlineValue(false))
	assert.Equal(t, "7", InlineValue(7))
	assert.Equal(t, "'x'", InlineValue([]byte("x")))
	assert.Equal(t, "9.99", InlineValue(9.99))
	assert.Equal(t, "1e-07", InlineValue(1e-7))
}
