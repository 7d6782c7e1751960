// Package recovery converts handler panics into 500 responses.
package recovery

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kjstillabower/flow/middleware/requestid"
)

// Middleware recovers from a downstream panic, logs it, and answers 500 with
// a JSON error envelope. http.ErrAbortHandler passes through so an aborted
// connection still terminates the handler the way net/http expects.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", requestid.FromContext(r.Context())),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]string{
						"code":      "INTERNAL",
						"message":   "Internal server error",
						"requestId": requestid.FromContext(r.Context()),
					},
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
