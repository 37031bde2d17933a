// Package logging configures the slog logger shared by Circuit Stash.
//
// Records carry service and version attributes, are filtered by level and
// are written as JSON (or text, for local use) to stdout or stderr:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Packages that accept a plain *slog.Logger get one from Component, which
// adds a component attribute.
//
// # Redaction
//
// Attributes named password, secret, token, salt, password_hash or
// authorization are replaced with <<SECRET>>. String values containing
// key=value pairs for those names (request URIs, form bodies) keep their
// surrounding text and lose only the value:
//
//	logger.Info("http request", "path", "/login?username=bob&password=x")
//	// path="/login?username=bob&password=<<SECRET>>"
package logging
