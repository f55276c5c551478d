package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmeister/storefront-backend/pkg/logger"
)

type requestIDKey struct{}

const requestIDHeader = "X-Request-Id"

// RequestID assigns every request an ID, honoring one supplied by the caller,
// and attaches it to the request logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, requestID)
			}

			w.Header().Set(requestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the request ID, or an empty string outside a
// request scope.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
