// Package rawutil provides tolerant accessors for raw platform payloads.
// Search endpoints return loosely typed JSON; these helpers read it without
// panicking on missing or differently typed fields.
package rawutil

import (
	"strconv"
)

// String returns m[key] as a string, or "" when absent or not a string.
func String(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Int64 returns m[key] as an int64. JSON numbers arrive as float64; numeric
// strings are parsed; anything else yields 0.
func Int64(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Bool returns m[key] as a bool, or false when absent or not a bool.
func Bool(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// Map returns m[key] as a nested map, or nil when absent or not a map.
func Map(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

// Slice returns m[key] as a slice, or nil when absent or not a slice.
func Slice(m map[string]any, key string) []any {
	if v, ok := m[key].([]any); ok {
		return v
	}
	return nil
}

// StringSlice returns m[key] as a slice of strings, skipping non-string
// elements.
func StringSlice(m map[string]any, key string) []string {
	raw := Slice(m, key)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
