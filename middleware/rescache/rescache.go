// Package rescache caches rendered GET responses in a pluggable store and
// replays them, answering 304 to revalidations that are still fresh.
package rescache

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kjstillabower/flow/internal/fresh"
)

// cachedResponse is the stored form of a rendered response.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Middleware serves GET responses from store while entries are live,
// rendering and storing on miss. Only 2xx responses are stored. A hit whose
// validators still match the request's conditional headers is answered with
// 304 and no body. Store errors fall through to the live handler.
func Middleware(store Store, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Host + r.URL.RequestURI()

			if raw, ok, err := store.Get(r.Context(), key); err == nil && ok {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil {
					replay(w, r, &cached)
					return
				}
			}

			before := w.Header().Clone()
			recorder := newRecorder(w)
			next.ServeHTTP(recorder, r)
			if recorder.status >= 200 && recorder.status < 300 {
				raw, err := json.Marshal(cachedResponse{
					Status: recorder.status,
					Header: headerDelta(before, w.Header()),
					Body:   recorder.body.Bytes(),
				})
				if err == nil {
					_ = store.Set(r.Context(), key, raw, ttl)
				}
			}
		})
	}
}

// headerDelta returns the headers the inner handler set: entries of after
// that are absent from or different in before. Headers written by outer
// middleware before this one ran stay out of the cached entry, so a replay
// never carries another request's values.
func headerDelta(before, after http.Header) http.Header {
	delta := http.Header{}
	for name, values := range after {
		if prior, ok := before[name]; ok && equalValues(prior, values) {
			continue
		}
		delta[name] = append([]string(nil), values...)
	}
	return delta
}

func equalValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func replay(w http.ResponseWriter, r *http.Request, cached *cachedResponse) {
	h := w.Header()
	for name, values := range cached.Header {
		h[name] = values
	}
	h.Set("X-Cache", "HIT")
	if fresh.Fresh(r.Header, h) {
		h.Del("Content-Type")
		h.Del("Content-Length")
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)
}

// recorder tees the response into a buffer while passing it through.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
