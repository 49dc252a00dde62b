package middleware

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDHeader carries the id the request was logged with.
const RequestIDHeader = "X-Request-Id"

// LoggingHandler logs every request once it has been served. Requests
// without an id get a random one, echoed in the response.
func LoggingHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		rw.Header().Set(RequestIDHeader, requestID)

		m := httpsnoop.CaptureMetrics(h, rw, r)

		log.WithFields(log.Fields{
			"requestId":  requestID,
			"method":     r.Method,
			"path":       r.RequestURI,
			"remote":     r.RemoteAddr,
			"user-agent": r.UserAgent(),
			"status":     m.Code,
			"size":       m.Written,
			"duration":   float64(m.Duration.Microseconds()) / float64(1000),
		}).Info("HTTP request")
	})
}
