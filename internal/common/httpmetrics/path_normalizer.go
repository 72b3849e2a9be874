package httpmetrics

import (
	"strconv"
	"strings"
)

const otherPath = "/other"

// NormalizePath maps a request path to a bounded metric label. Numeric
// segments under /api/ become {id}; anything outside the served surface
// (/api/, /health, /metrics) collapses to /other so scanners probing random
// paths cannot blow up label cardinality.
func NormalizePath(path string) string {
	switch {
	case path == "/health", path == "/metrics":
		return path
	case path == "/api" || strings.HasPrefix(path, "/api/"):
	default:
		return otherPath
	}

	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isID(part) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isID(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
