package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/utafrali/cartsvc/pkg/logger"
)

// CorrelationIDHeader is the request header carrying the client-supplied
// correlation ID. When absent a fresh UUID is generated.
const CorrelationIDHeader = "X-Correlation-ID"

// RequestLogger puts a correlation ID and a request-scoped logger into the
// request context. Downstream handlers retrieve the logger with
// logger.FromContext and every line they emit carries the correlation ID.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := r.Header.Get(CorrelationIDHeader)
			if correlationID == "" {
				correlationID = uuid.NewString()
			}

			ctx := logger.WithCorrelationID(r.Context(), correlationID)
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))

			w.Header().Set(CorrelationIDHeader, correlationID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
