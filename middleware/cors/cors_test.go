package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestAllowAll_Preflight verifies a preflight request is answered with
// permissive CORS headers.
func TestAllowAll_Preflight(t *testing.T) {
	handler := AllowAll()(okHandler())

	req := httptest.NewRequest("OPTIONS", "/resource", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}

// TestMiddleware_RestrictsOrigin verifies configured origins are enforced.
func TestMiddleware_RestrictsOrigin(t *testing.T) {
	handler := Middleware(Options{AllowedOrigins: []string{"https://good.example"}})(okHandler())

	req := httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q for disallowed origin, want empty", got)
	}
}
