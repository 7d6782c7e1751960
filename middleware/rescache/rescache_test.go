package rescache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kjstillabower/flow/middleware/requestid"
)

// countingHandler writes a constant payload with an ETag and counts
// invocations.
type countingHandler struct {
	calls int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("ETag", `"v1"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("payload"))
}

// TestMiddleware_ServesFromCache verifies the second GET replays the stored
// response without reinvoking the handler.
func TestMiddleware_ServesFromCache(t *testing.T) {
	upstream := &countingHandler{}
	handler := Middleware(NewMemoryStore(), time.Minute)(upstream)

	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, httptest.NewRequest("GET", "http://example.com/doc", nil))
	if upstream.calls != 1 {
		t.Fatalf("calls after first request = %d, want 1", upstream.calls)
	}

	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, httptest.NewRequest("GET", "http://example.com/doc", nil))
	if upstream.calls != 1 {
		t.Errorf("calls after second request = %d, want 1 (cache hit)", upstream.calls)
	}
	if w2.Body.String() != "payload" {
		t.Errorf("replayed body = %q, want payload", w2.Body.String())
	}
	if w2.Header().Get("X-Cache") != "HIT" {
		t.Error("replayed response missing X-Cache: HIT")
	}
	if w2.Header().Get("ETag") != `"v1"` {
		t.Errorf("replayed ETag = %q, want \"v1\"", w2.Header().Get("ETag"))
	}
}

// TestMiddleware_FreshHitGets304 verifies a cache hit whose validators match
// the request answers 304 without a body.
func TestMiddleware_FreshHitGets304(t *testing.T) {
	handler := Middleware(NewMemoryStore(), time.Minute)(&countingHandler{})

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "http://example.com/doc", nil))

	req := httptest.NewRequest("GET", "http://example.com/doc", nil)
	req.Header.Set("If-None-Match", `"v1"`)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("304 body = %q, want empty", w.Body.String())
	}
}

// TestMiddleware_SkipsNonGET verifies POST requests bypass the cache.
func TestMiddleware_SkipsNonGET(t *testing.T) {
	upstream := &countingHandler{}
	handler := Middleware(NewMemoryStore(), time.Minute)(upstream)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "http://example.com/doc", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "http://example.com/doc", nil))

	if upstream.calls != 2 {
		t.Errorf("calls = %d, want 2 (no caching)", upstream.calls)
	}
}

// TestMiddleware_SkipsErrorResponses verifies non-2xx responses are not
// stored.
func TestMiddleware_SkipsErrorResponses(t *testing.T) {
	calls := 0
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})
	handler := Middleware(NewMemoryStore(), time.Minute)(upstream)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "http://example.com/err", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "http://example.com/err", nil))

	if calls != 2 {
		t.Errorf("calls = %d, want 2 (errors not cached)", calls)
	}
}

// TestMiddleware_ReplayKeepsPerRequestHeaders verifies a cache hit does not
// overwrite headers set by outer middleware with values from the request
// that populated the entry.
func TestMiddleware_ReplayKeepsPerRequestHeaders(t *testing.T) {
	handler := requestid.Middleware(Middleware(NewMemoryStore(), time.Minute)(&countingHandler{}))

	first := httptest.NewRequest("GET", "http://example.com/doc", nil)
	first.Header.Set(requestid.Header, "id-one")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest("GET", "http://example.com/doc", nil)
	second.Header.Set(requestid.Header, "id-two")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, second)

	if got := w.Header().Get(requestid.Header); got != "id-two" {
		t.Errorf("%s = %q, want id-two", requestid.Header, got)
	}
	if w.Header().Get("X-Cache") != "HIT" {
		t.Error("second response should be a cache hit")
	}
	if w.Header().Get("ETag") != `"v1"` {
		t.Errorf("replayed ETag = %q, want \"v1\"", w.Header().Get("ETag"))
	}
}

// TestMiddleware_KeysByHostAndURI verifies different hosts do not share
// entries.
func TestMiddleware_KeysByHostAndURI(t *testing.T) {
	upstream := &countingHandler{}
	handler := Middleware(NewMemoryStore(), time.Minute)(upstream)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "http://a.example.com/doc", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "http://b.example.com/doc", nil))

	if upstream.calls != 2 {
		t.Errorf("calls = %d, want 2 (distinct hosts)", upstream.calls)
	}
}
