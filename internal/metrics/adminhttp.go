package metrics

import (
	"net/http"
	"regexp"
	"sync"
)

// adminPathNormalizers maps request paths to the label they are counted
// under. It holds exact matches for /healthz and /metrics only; any other
// path is counted under its own literal value.
var adminPathNormalizers = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{pattern: regexp.MustCompile(`^/healthz$`), replacement: "/healthz"},
	{pattern: regexp.MustCompile(`^/metrics$`), replacement: "/metrics"},
}

// adminRequestCounts and its lock back the admin surface's own lightweight
// request accounting, independent of the dispatcher's business metrics.
var (
	adminRequestCounts     = map[string]int{}
	adminRequestCountsLock sync.RWMutex
)

func normalizeAdminPath(path string) string {
	for _, n := range adminPathNormalizers {
		if n.pattern.MatchString(path) {
			return n.pattern.ReplaceAllLiteralString(path, n.replacement)
		}
	}
	return path
}

func recordAdminRequest(endpoint string) {
	adminRequestCountsLock.Lock()
	defer adminRequestCountsLock.Unlock()
	adminRequestCounts[endpoint]++
}

// AdminRequestCountsSnapshot returns a copy of the current request counts,
// useful for a lightweight debug endpoint alongside /metrics.
func AdminRequestCountsSnapshot() map[string]int {
	adminRequestCountsLock.RLock()
	defer adminRequestCountsLock.RUnlock()
	snapshot := make(map[string]int, len(adminRequestCounts))
	for k, v := range adminRequestCounts {
		snapshot[k] = v
	}
	return snapshot
}

// AdminRequestMiddleware records every request that reaches the router it
// wraps, including ones later rejected downstream.
func AdminRequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recordAdminRequest(r.Method + " " + normalizeAdminPath(r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
