package middleware

import (
	"net/http"
	"strings"
	"time"

	"hoa-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogging logs one line per API request. Health and metrics probes are
// skipped.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		// the actor is only known after auth runs further down the chain
		var actorID int
		next.ServeHTTP(wrapped, r.WithContext(withActorSink(r.Context(), &actorID)))

		fields := logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       truncatePath(r.URL.Path),
			"status":     wrapped.statusCode,
			"bytes":      wrapped.bytesWritten,
			"duration":   time.Since(start).String(),
			"ip":         ClientIP(r),
		}
		if actorID != 0 {
			fields["user_id"] = actorID
		}

		entry := utils.Logger.WithFields(fields)
		switch {
		case wrapped.statusCode >= http.StatusInternalServerError:
			entry.Error("request")
		case wrapped.statusCode >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	})
}

func shouldSkipLogging(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/files/")
}

func truncatePath(path string) string {
	if len(path) > 500 {
		return path[:500]
	}
	return path
}
