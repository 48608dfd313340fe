package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// knownPrefixes keeps the path label bounded: anything outside the API
// surface is collapsed into one bucket so scanners cannot inflate the
// metric cardinality.
var knownPrefixes = []string{"/api/", "/healthz", "/readyz", "/metrics"}

func pathLabel(path string) string {
	for _, prefix := range knownPrefixes {
		if strings.HasPrefix(path, prefix) {
			return path
		}
	}
	return "other"
}

// HTTPMetricsMiddleware records a counter and latency histogram per request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		ObserveHTTPRequest(r.Method, pathLabel(r.URL.Path), strconv.Itoa(rec.statusCode()), time.Since(start))
	})
}

// statusRecorder captures the first status code written. A handler that
// never calls WriteHeader implicitly answered 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
