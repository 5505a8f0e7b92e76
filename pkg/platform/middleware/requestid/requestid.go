// Package requestid propagates a request ID through the context.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"sdnscreen/pkg/requestcontext"
)

// Header is the request and response header carrying the request ID.
const Header = "X-Request-ID"

// Middleware reuses an inbound X-Request-ID or mints one, stores it in the
// context and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
