package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

var (
	uuidSegment  = regexp.MustCompile(`/[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	tokenSegment = regexp.MustCompile(`/edit/[^/]+`)
)

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader captures the status code and writes it to the underlying ResponseWriter
func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
		r.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called before writing body
func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// Middleware returns an HTTP middleware that records the request count and
// latency of each request, labelled by method, route and status code.
// A panicking handler is recorded as 500 and answered with 500.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		start := time.Now()

		defer func() {
			panicked := recover() != nil
			if panicked && !recorder.written {
				recorder.WriteHeader(http.StatusInternalServerError)
			}
			status := recorder.statusCode
			if panicked {
				status = http.StatusInternalServerError
			}

			path := routePattern(r)
			code := strconv.Itoa(status)
			RecordRequest(r.Method, path, code)
			RecordRequestDuration(r.Method, path, code, time.Since(start).Seconds())
		}()

		next.ServeHTTP(recorder, r)
	})
}

// routePattern returns the matched chi route pattern, falling back to a
// normalized path for unrouted requests.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath replaces IDs and tokens in a path to bound label cardinality.
// Examples:
//
//	/api/stories/6f1d3c52-0000-4000-8000-000000000000 -> /api/stories/{id}
//	/api/guest/edit/edit_abc123                     -> /api/guest/edit/{token}
func normalizePath(path string) string {
	path = uuidSegment.ReplaceAllString(path, "/{id}")
	return tokenSegment.ReplaceAllString(path, "/edit/{token}")
}
