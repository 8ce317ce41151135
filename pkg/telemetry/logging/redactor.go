package logging

import (
	"fmt"
	"regexp"
	"strings"

	"caldera-hq/basalt/pkg/config"
)

// Redactor removes secret material from log fields: tokens, passwords,
// private keys, and option values whose path marks them as secret.
type Redactor struct {
	patterns map[string]*redactPattern
	enabled  bool
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Common secret pattern names.
const (
	PatternForgeToken  = "forge_token"
	PatternToken       = "token"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
	PatternPrivateKey  = "private_key"
	PatternURLUserinfo = "url_userinfo"
)

// NewRedactor creates a new Redactor with default and custom patterns.
func NewRedactor(customPatterns []config.RedactPattern) *Redactor {
	r := &Redactor{
		patterns: make(map[string]*redactPattern),
		enabled:  true,
	}

	// Add default patterns
	r.addDefaultPatterns()

	// Add custom patterns
	for _, p := range customPatterns {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			// Skip invalid patterns (log warning in production)
			continue
		}
		r.patterns[p.Name] = &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		}
	}

	return r
}

// addDefaultPatterns adds built-in secret redaction patterns.
func (r *Redactor) addDefaultPatterns() {
	patterns := map[string]struct {
		regex       string
		replacement string
	}{
		// Forge access tokens (GitHub, GitLab) as used for channel auth
		PatternForgeToken: {
			regex:       `\b(ghp_[A-Za-z0-9]{16,}|github_pat_[A-Za-z0-9_]{16,}|glpat-[A-Za-z0-9\-_]{16,})\b`,
			replacement: "***",
		},

		// Generic token assignments
		PatternToken: {
			regex:       `(token|access[-_]?token)[:=]\s*[^\s]+`,
			replacement: "$1: ***",
		},

		// Bearer tokens
		PatternBearerToken: {
			regex:       `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`,
			replacement: "Bearer ***",
		},

		// Generic password fields
		PatternPassword: {
			regex:       `(password|passwd|passphrase|pwd)[:=]\s*[^\s]+`,
			replacement: "$1: ***",
		},

		// PEM-encoded private key material
		PatternPrivateKey: {
			regex:       `-----BEGIN [A-Z ]*PRIVATE KEY-----(?s:.*?)-----END [A-Z ]*PRIVATE KEY-----`,
			replacement: "[private key redacted]",
		},

		// Credentials embedded in URLs (git remotes, registries)
		PatternURLUserinfo: {
			regex:       `://[^/\s:@]+:[^/\s@]+@`,
			replacement: "://***:***@",
		},
	}

	for name, p := range patterns {
		regex := regexp.MustCompile(p.regex)
		r.patterns[name] = &redactPattern{
			name:        name,
			regex:       regex,
			replacement: p.replacement,
		}
	}
}

// RedactString redacts secrets from a string value.
func (r *Redactor) RedactString(value string) string {
	if !r.enabled || value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}

	return redacted
}

// RedactArgs redacts secrets from variadic log arguments.
// Args are in the form: key1, value1, key2, value2, ...
func (r *Redactor) RedactArgs(args ...any) []any {
	if !r.enabled || len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	// Process key-value pairs
	for i := 1; i < len(redacted); i += 2 {
		// Check if this is a sensitive field by key name
		if i > 0 {
			key, ok := redacted[i-1].(string)
			if ok && r.isSensitiveKey(key) {
				redacted[i] = r.redactValue(redacted[i])
			}
		}

		// Also redact string values that match patterns
		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}

	return redacted
}

// isSensitiveKey checks if a key name indicates secret material.
func (r *Redactor) isSensitiveKey(key string) bool {
	// Convert to lowercase for case-insensitive matching
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"password", "passwd", "passphrase", "pwd",
		"secret", "token",
		"auth", "authorization",
		"private_key", "privatekey",
		"ssh_key", "sshkey",
		"credential",
	}

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return false
}

// redactValue redacts a sensitive value completely.
func (r *Redactor) redactValue(value any) any {
	switch v := value.(type) {
	case string:
		// For sensitive keys, completely redact the value
		if v == "" {
			return ""
		}
		// Keep a hint of the value type/length for debugging
		if len(v) <= 4 {
			return "***"
		}
		return v[:min(4, len(v))] + "***"
	case fmt.Stringer:
		return "***"
	default:
		return "***"
	}
}

// min returns the minimum of two integers.
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// secretOptionSegments marks option path segments whose values must
// never appear in logs or rendered output diagnostics.
var secretOptionSegments = []string{
	"password", "passphrase", "secret", "token", "privatekey", "private_key",
}

// IsSecretOptionPath reports whether an option path names a secret value,
// judged by its last segment (e.g. "basalt.roles.mysql.rootPassword").
func IsSecretOptionPath(path string) bool {
	idx := strings.LastIndex(path, ".")
	last := path
	if idx >= 0 {
		last = path[idx+1:]
	}
	last = strings.ToLower(last)

	for _, seg := range secretOptionSegments {
		if strings.Contains(last, seg) {
			return true
		}
	}
	return false
}

// RedactOptionValue redacts an option value when its path marks it as
// secret, otherwise returns the value unchanged.
func RedactOptionValue(path, value string) string {
	if !IsSecretOptionPath(path) {
		return value
	}
	if len(value) <= 4 {
		return "***"
	}
	return value[:4] + "***"
}

// RedactToken redacts a token, keeping only a prefix for identification.
func RedactToken(token string) string {
	if len(token) <= 4 {
		return "***"
	}

	// Keep first 4 characters for identification
	return token[:4] + "***"
}

// urlUserinfoRegex strips embedded credentials from URLs.
var urlUserinfoRegex = regexp.MustCompile(`://[^/\s:@]+:[^/\s@]+@`)

// RedactURL removes embedded credentials from a URL (e.g. a git remote
// with a token in the userinfo part).
func RedactURL(raw string) string {
	return urlUserinfoRegex.ReplaceAllString(raw, "://***:***@")
}
