// Package redact provides utilities for redacting sensitive information from strings
// before they are logged. Upstream responses and transport errors can echo back
// credentials, bearer tokens or user e-mail addresses; everything that reaches a
// log line from an external service passes through here first.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	TruncatedSuffix               = "...[truncated]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules are applied in order. JWTs go first so the auth-header rule does not
// swallow the more specific placeholder.
var rules = []rule{
	{
		pattern:     regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		replacement: RedactedJWTPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(bearer|basic)\s+[A-Za-z0-9._~+/=-]{8,}`),
		replacement: "$1 " + RedactedCredentialPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(https?)://[^/\s:@]+:[^/\s@]+@`),
		replacement: "$1://" + RedactedCredentialPlaceholder + "@",
	},
	{
		pattern: regexp.MustCompile(
			`(?i)(api[_-]?key|api[_-]?secret|token|secret|password|key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
		),
		replacement: RedactedKeyPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		replacement: RedactedEmailPlaceholder,
	},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}

// Body prepares a raw upstream response body for logging: it is cut to at
// most limit bytes and then redacted.
func Body(raw []byte, limit int) string {
	if limit > 0 && len(raw) > limit {
		return String(string(raw[:limit])) + TruncatedSuffix
	}
	return String(string(raw))
}
