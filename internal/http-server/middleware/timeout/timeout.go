package timeout

import (
	"context"
	"net/http"
	"time"
)

// Timeout caps every request context at the given number of seconds. The
// allocation retry loop observes the context between attempts, so a slow
// store cannot pin a request forever.
func Timeout(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout*time.Second)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}
