package logger

import (
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be redacted. Account seeds are the
// only secret the ledger tooling handles; the rest cover config values.
var sensitiveKeyPatterns = []string{
	"seed",
	"secret",
	"password",
	"passphrase",
	"credential",
	"private",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive rewrites an attribute whose key suggests secret content.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		if IsSensitiveKey(a.Key) && a.Value.String() != "" {
			return slog.String(a.Key, redactedValue)
		}
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// redactArgs applies the same rule to a loose key/value list.
func redactArgs(args []any) []any {
	out := args
	copied := false
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || !IsSensitiveKey(key) {
			continue
		}
		if s, ok := args[i+1].(string); ok && s != "" {
			if !copied {
				out = append([]any(nil), args...)
				copied = true
			}
			out[i+1] = redactedValue
		}
	}
	return out
}

// maskValue keeps the first and last three characters of value.
func maskValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}

// RedactString partially masks a value before it is logged or printed.
func RedactString(value string) string {
	return maskValue(value)
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
