package logging

import (
	"log/slog"
	"strings"
)

// Placeholder replaces every redacted value.
const Placeholder = "<<SECRET>>"

// sensitiveKeys are attribute keys and query/form parameter names whose
// values must never reach a log sink.
var sensitiveKeys = []string{
	"password",
	"password_hash",
	"secret",
	"salt",
	"token",
	"access_token",
	"authorization",
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if key == k {
			return true
		}
	}
	return false
}

// redactAttr is the slog ReplaceAttr hook. Sensitive keys lose their value
// entirely; other string values have embedded key=value credentials
// rewritten by Redact.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, Placeholder)
	}
	if a.Value.Kind() == slog.KindString {
		s := a.Value.String()
		if r := Redact(s); r != s {
			return slog.String(a.Key, r)
		}
	}
	return a
}

// Redact rewrites "key=value" fragments whose key is sensitive, keeping the
// rest of the text. A value ends at the next '&', whitespace or end of
// string, so request URIs and form bodies are handled:
//
//	Redact("/admin/users?username=bob&password=hunter2") // "/admin/users?username=bob&password=<<SECRET>>"
func Redact(s string) string {
	if !strings.Contains(s, "=") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			b.WriteString(s[i:])
			break
		}
		eq += i

		keyStart := eq
		for keyStart > i && isKeyChar(s[keyStart-1]) {
			keyStart--
		}
		key := s[keyStart:eq]

		valEnd := eq + 1
		for valEnd < len(s) && s[valEnd] != '&' && s[valEnd] != ' ' && s[valEnd] != '\n' {
			valEnd++
		}

		b.WriteString(s[i : eq+1])
		if isSensitiveKey(key) && valEnd > eq+1 {
			b.WriteString(Placeholder)
		} else {
			b.WriteString(s[eq+1 : valEnd])
		}
		i = valEnd
	}

	return b.String()
}

func isKeyChar(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
