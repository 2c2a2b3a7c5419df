package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/activitylog"
	"github.com/google/uuid"
)

const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID tags the request context with the id written to every audit
// entry the request produces. A client supplied id is kept.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(activitylog.WithCorrelationID(r.Context(), id)))
	})
}
