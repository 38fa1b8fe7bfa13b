// Package redact strips sensitive information from strings before they are
// logged or returned in error responses. It prevents accidental leakage of
// credentials, connection strings, upstream hosts, and other data that may be
// embedded in error messages from the database or the inference backend.
package redact

import "regexp"

// Placeholders substituted for matched sensitive content.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	PathPlaceholder       = "[REDACTED_PATH]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	HostPlaceholder       = "[REDACTED_HOST]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules are applied in order; earlier rules win when patterns overlap
// (connection strings before bare hosts, JWTs before generic keys).
var rules = []rule{
	// Database connection strings with embedded credentials.
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql|mongodb)://[^@\s]+@[^\s]+`), CredentialPlaceholder},

	// Passwords in key=value or key: value form.
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]['"]?)[^'"&\s]{3,}`), CredentialPlaceholder},

	// JWT tokens: three base64url segments, the first two starting with the
	// standard {"... header/payload prefix.
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), JWTPlaceholder},

	// API keys, tokens, and secrets.
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|bearer)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), KeyPlaceholder},

	// SQL statements leaked from driver errors.
	{regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE)[\s\w,*()='"]*`), SQLPlaceholder},

	// Email addresses.
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},

	// Absolute filesystem paths. Must run before the host rule so that
	// dotted file names inside a path stay part of the path match.
	{regexp.MustCompile(`(/[\w.-]+){2,}`), PathPlaceholder},

	// Host names with optional ports, as seen in transport errors from the
	// inference backend ("dial tcp: lookup ollama.internal:11434 ...").
	{regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`), HostPlaceholder},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's message. It returns an
// empty string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
