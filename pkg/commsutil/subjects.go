package commsutil

import "strings"

// Default COMMS subjects.
const (
	SubjectRouter     = "api.router.v1"
	SubjectRouteEvent = "api.router.calls"
)

// unknownToken stands in for an empty subject token.
const unknownToken = "_unknown"

// BuildRouteEventSubject builds the per-procedure audit subject under base,
// e.g. "api.router.calls.getProduct".
func BuildRouteEventSubject(base, proc string) string {
	return base + "." + SubjectToken(proc)
}

// SubjectToken makes s safe as a single subject token. Separators and
// wildcards become underscores.
func SubjectToken(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return unknownToken
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
