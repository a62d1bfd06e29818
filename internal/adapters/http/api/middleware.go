package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/pooldraft/pkg/metrics"
)

// route binds a method pattern to its handler and metrics label.
type route struct {
	pattern  string
	endpoint string
	handler  http.HandlerFunc
}

// instrument records request count, latency and error class per endpoint.
func instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		metrics.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(rec.status), metrics.SinceMs(start))
		if class := errorClass(rec.status); class != "" {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, class)
		}
	}
}

// errorClass labels failed responses; successful ones return "".
func errorClass(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return ""
	case status == http.StatusServiceUnavailable:
		return "transient"
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusUnprocessableEntity:
		return "validation"
	case status == http.StatusConflict:
		return "conflict"
	case status == http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
