package logging

import (
	"strings"
)

const redactedValue = "[REDACTED]"

// Redactor replaces the values of sensitive log fields.
type Redactor struct {
	sensitiveKeys map[string]bool
}

// NewRedactor creates a Redactor covering credential and key material.
func NewRedactor() *Redactor {
	return &Redactor{
		sensitiveKeys: map[string]bool{
			// Credentials
			"username": true,
			"password": true,
			"user":     true,
			"pass":     true,

			// Server-issued material
			"active_key": true,
			"key":        true,
			"token":      true,
			"session_id": true,

			// Raw protocol bodies carry hex-encoded credentials
			"body":    true,
			"payload": true,
			"request": true,
		},
	}
}

// AddSensitiveKey adds a custom key to the redaction list.
func (r *Redactor) AddSensitiveKey(key string) {
	r.sensitiveKeys[strings.ToLower(key)] = true
}

// RemoveSensitiveKey removes a key from the redaction list.
func (r *Redactor) RemoveSensitiveKey(key string) {
	delete(r.sensitiveKeys, strings.ToLower(key))
}

// RedactFields returns a copy of fields with sensitive values replaced.
// Nested maps are redacted recursively.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}

	redacted := make(map[string]any, len(fields))
	for k, v := range fields {
		switch {
		case r.isSensitiveKey(k):
			redacted[k] = redactedValue
		case isMap(v):
			redacted[k] = r.RedactFields(v.(map[string]any))
		default:
			redacted[k] = v
		}
	}
	return redacted
}

// isSensitiveKey matches exact keys only; substring matching caught
// harmless fields such as "request_id".
func (r *Redactor) isSensitiveKey(key string) bool {
	return r.sensitiveKeys[strings.ToLower(key)]
}

func isMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}
