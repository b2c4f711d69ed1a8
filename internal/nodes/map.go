package nodes

import (
	"fmt"
)

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   any
	Value any
}

// Map is an ordered mapping. Keys are names (string or Stub), KeyPaths,
// or valueless predicates; values are nested trees or literals. Order
// matters because it fixes the order of emitted conditions.
type Map []Entry

// MapOf builds a Map from alternating keys and values.
func MapOf(pairs ...any) (Map, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("MapOf: odd number of arguments (%d)", len(pairs))
	}
	m := make(Map, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m = append(m, Entry{Key: pairs[i], Value: pairs[i+1]})
	}
	return m, nil
}

// Get returns the value of the first entry whose key names name.
func (m Map) Get(name string) (any, bool) {
	for _, e := range m {
		if k, ok := KeyName(e.Key); ok && k == name {
			return e.Value, true
		}
	}
	return nil, false
}

// KeyName returns the name of a string or Stub key.
func KeyName(key any) (string, bool) {
	switch k := key.(type) {
	case string:
		return k, true
	case Stub:
		return string(k), true
	default:
		return "", false
	}
}
