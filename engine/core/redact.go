package core

import (
	"regexp"
	"strings"
)

// Patterns for secrets that leak into upstream error strings. Most travel
// collaborators take their key as a query parameter, so URLs are scrubbed too.
var (
	bearerTokenRe = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9\-\._~\+\/]+=*`)
	queryKeyRe    = regexp.MustCompile(`(?i)([?&](?:key|appid|api_key|apikey|token)=)[^&\s"']+`)
	kvSecretRe    = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|password|x-api-key)\s*[:=]\s*["']?[^"'\s&]+["']?`,
	)
	pathKeyRe    = regexp.MustCompile(`(/v6/)[A-Za-z0-9]{16,}(/)`)
	genericKeyRe = regexp.MustCompile(
		`\b(AIza[0-9A-Za-z_\-]{30,}|sk-[A-Za-z0-9_\-]{16,}|tvly-[A-Za-z0-9_\-]{16,})\b`,
	)
)

// RedactString trims, truncates and scrubs common secret patterns.
func RedactString(s string) string {
	const maxLen = 512
	s = strings.TrimSpace(s)
	s = queryKeyRe.ReplaceAllString(s, "$1[REDACTED]")
	s = pathKeyRe.ReplaceAllString(s, "$1[REDACTED]$2")
	s = bearerTokenRe.ReplaceAllString(s, "$1[REDACTED]")
	s = kvSecretRe.ReplaceAllString(s, "$1=[REDACTED]")
	s = genericKeyRe.ReplaceAllString(s, "[REDACTED]")
	if len(s) > maxLen {
		s = s[:maxLen] + "…"
	}
	return s
}

// RedactError applies RedactString to an error, returning an empty string when nil.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return RedactString(err.Error())
}
