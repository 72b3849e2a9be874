package http

import (
	"strconv"
	"strings"
)

// PathInt64 extracts the positive integer segment that follows prefix,
// e.g. PathInt64("/api/users/7", "/api/users/") == 7. Trailing slashes are
// tolerated; any further segment makes the path invalid.
func PathInt64(path, prefix string) (int64, bool) {
	if !strings.HasPrefix(path, prefix) {
		return 0, false
	}

	raw := strings.TrimSuffix(strings.TrimPrefix(path, prefix), "/")
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
