package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"debtorbatch/internal/logger"
)

// Correlation propagates X-Correlation-ID through the context and echoes it
// on the response, minting one when the caller sent none.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		w.Header().Set("X-Correlation-ID", correlationID)
		ctx := logger.WithCorrelationID(r.Context(), correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
