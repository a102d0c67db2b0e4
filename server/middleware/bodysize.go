package middleware

import (
	"net/http"

	"github.com/kbukum/todoapi/util"
)

const defaultMaxBodySize = 1 << 20

// BodySizeLimit caps request bodies at maxSize ("1MB", "512KB", ...).
// Reading past the cap fails, which JSON binding reports as a bad request.
func BodySizeLimit(maxSize string) Middleware {
	limit := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
