// Package attrs reads values back out of slog-style key/value slices, so a
// single attribute list can feed both a log line and an audit event.
package attrs

// ExtractString returns the string stored under key in a [k1, v1, k2, v2, ...]
// slice, or "" when the key is absent or its value is not a string.
func ExtractString(attrs []any, key string) string {
	v, _ := lookup(attrs, key).(string)
	return v
}

func lookup(attrs []any, key string) any {
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); ok && k == key {
			return attrs[i+1]
		}
	}
	return nil
}
