package accesslog

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/flow/middleware/requestid"
)

// TestMiddleware_LogsRequestLine verifies one structured entry per request
// with method, path, status, and the request ID.
func TestMiddleware_LogsRequestLine(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	handler := requestid.Middleware(Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))

	req := httptest.NewRequest("GET", "/things/42", nil)
	req.Header.Set(requestid.Header, "rid-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "GET" || fields["path"] != "/things/42" {
		t.Errorf("fields = %v, want method GET path /things/42", fields)
	}
	if fields["status"] != int64(http.StatusAccepted) {
		t.Errorf("status field = %v, want 202", fields["status"])
	}
	if fields["request_id"] != "rid-1" {
		t.Errorf("request_id field = %v, want rid-1", fields["request_id"])
	}
}

// hijackRecorder is a ResponseRecorder that also satisfies http.Hijacker.
type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

// TestMiddleware_PreservesHijacker verifies handlers can still take over the
// connection when wrapped by the logging middleware.
func TestMiddleware_PreservesHijacker(t *testing.T) {
	core, _ := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	rec := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("wrapped writer does not implement http.Hijacker")
		}
		if _, _, err := hj.Hijack(); err != nil {
			t.Fatalf("Hijack() error = %v", err)
		}
	}))
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if !rec.hijacked {
		t.Error("Hijack did not reach the underlying writer")
	}
}

// TestMiddleware_DefaultsStatus200 verifies handlers that never call
// WriteHeader log 200.
func TestMiddleware_DefaultsStatus200(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if got := logs.All()[0].ContextMap()["status"]; got != int64(http.StatusOK) {
		t.Errorf("status field = %v, want 200", got)
	}
}
