package lifecycle

import (
	"time"
)

// Args is a typed view over the free-form argument bag attached to a remote
// command. Commands arrive from outside the adapter's control, so every
// accessor takes an explicit default: a missing or mistyped field yields the
// default rather than an error. A malformed command bag can never crash the
// adapter.
type Args map[string]any

// String returns the string at key, or def.
func (a Args) String(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

// Int returns the integer at key, or def. JSON decoding produces float64
// for all numbers, so numeric widths are converted.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Float returns the float at key, or def.
func (a Args) Float(key string, def float64) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Bool returns the boolean at key, or def.
func (a Args) Bool(key string, def bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return def
}

// Duration returns the duration at key, or def. String values are parsed
// with time.ParseDuration ("250ms", "10s"); numeric values are seconds.
func (a Args) Duration(key string, def time.Duration) time.Duration {
	switch v := a[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case float64:
		return time.Duration(v * float64(time.Second))
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	}
	return def
}

// StringSlice returns the string list at key, or def. Mixed-type lists
// contribute only their string elements.
func (a Args) StringSlice(key string, def []string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

// Map returns the nested bag at key, or nil.
func (a Args) Map(key string) Args {
	switch v := a[key].(type) {
	case map[string]any:
		return Args(v)
	case Args:
		return v
	}
	return nil
}

// Has reports whether key is present at all.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}
