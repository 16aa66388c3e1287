// Package middleware provides Echo middleware for the amiibot HTTP API.
package middleware

const (
	pathMetrics = "/metrics"
	pathHealthz = "/healthz"
	pathReadyz  = "/readyz"
)

// probePaths are polled by orchestrators; their successes are not
// interesting after the first one.
var probePaths = map[string]struct{}{
	pathHealthz: {},
	pathReadyz:  {},
}

// routePath returns the matched route template, falling back to the raw
// request path for unmatched requests.
func routePath(template, raw string) string {
	if template != "" {
		return template
	}
	return raw
}
