package querydoc

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Field is one key of an Object.
type Field struct {
	Key   string
	Value any
}

// Object is a mapping that keeps its source order. The YAML and CUE front
// ends produce Objects so conditions compile in the order they were
// written; plain map[string]any input is walked in sorted key order.
type Object []Field

// Get returns the value of key.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// DecodeError reports a malformed query document.
type DecodeError struct {
	Field   string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func errorf(field, format string, args ...any) error {
	return &DecodeError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func join(field, key string) string {
	if field == "" {
		return key
	}
	return field + "." + key
}

func index(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}

// fields returns the fields of an Object or string-keyed map.
func fields(v any) (Object, bool) {
	switch m := v.(type) {
	case Object:
		return m, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Object, len(keys))
		for i, k := range keys {
			out[i] = Field{Key: k, Value: m[k]}
		}
		return out, true
	default:
		return nil, false
	}
}

func list(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// items returns v as a list, wrapping a single value.
func items(v any) []any {
	if l, ok := list(v); ok {
		return l
	}
	if v == nil {
		return nil
	}
	return []any{v}
}

// scalar normalises document data to the values the compiler binds:
// strings, bools, nil, int64 and float64. Integral floats (JSON numbers)
// become int64.
func scalar(field string, v any) (any, error) {
	switch n := v.(type) {
	case nil, string, bool, int64:
		return v, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return nil, errorf(field, "integer %d overflows int64", n)
		}
		return int64(n), nil
	case float32:
		return scalar(field, float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, errorf(field, "number %v is not finite", n)
		}
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return n, nil
		}
		return int64(n), nil
	default:
		return nil, errorf(field, "unsupported value %T", v)
	}
}

func integer(field string, v any) (int, error) {
	s, err := scalar(field, v)
	if err != nil {
		return 0, err
	}
	n, ok := s.(int64)
	if !ok {
		return 0, errorf(field, "expected an integer, got %T", v)
	}
	if n < 0 {
		return 0, errorf(field, "must not be negative, got %d", n)
	}
	return int(n), nil
}

func text(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errorf(field, "expected a string, got %T", v)
	}
	if strings.TrimSpace(s) == "" {
		return "", errorf(field, "must not be empty")
	}
	return s, nil
}
