package flow

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/flow/internal/proxyaddr"
)

// HandlerFunc handles one request through its Ctx.
type HandlerFunc func(c *Ctx)

// Middleware wraps an http.Handler. Standard net/http middleware composes
// directly with flow apps.
type Middleware func(next http.Handler) http.Handler

// ETagMode selects how Send and JSON generate entity tags.
type ETagMode int

const (
	// ETagStrong generates strong entity tags. Default.
	ETagStrong ETagMode = iota
	// ETagWeak generates weak (W/-prefixed) entity tags.
	ETagWeak
	// ETagOff disables entity tag generation.
	ETagOff
)

// App is a flow application: a router plus the per-request derivation
// settings. The exported fields are read at request time, so they may be
// adjusted before the app starts serving.
type App struct {
	// TrustProxy decides which forwarding hops the X-Forwarded-* and
	// Forwarded headers are trusted for. Nil trusts no proxy: the socket
	// peer is always the client and forwarding headers are ignored.
	TrustProxy proxyaddr.TrustFunc

	// SubdomainOffset is the number of trailing host labels outside the
	// application, default 2 (TLD plus registrable domain).
	SubdomainOffset int

	// ETag selects entity tag generation for Send and JSON.
	ETag ETagMode

	// Logger, when set, is used by Listen and route dispatch. Optional.
	Logger *zap.Logger

	router *mux.Router
}

// New returns an App with default settings.
func New() *App {
	return &App{
		SubdomainOffset: 2,
		router:          mux.NewRouter(),
	}
}

// Handle registers handler for the given method and Express-style path
// pattern (e.g. /users/:id). The returned mux route allows further
// constraints (host, schemes) in gorilla/mux terms.
func (a *App) Handle(method, path string, handler HandlerFunc) *mux.Route {
	methods := []string{method}
	if method == http.MethodGet {
		methods = append(methods, http.MethodHead)
	}
	return a.router.HandleFunc(translatePath(path), func(w http.ResponseWriter, r *http.Request) {
		handler(NewCtx(w, r, a))
	}).Methods(methods...)
}

// Get registers handler for GET (and HEAD) requests on path.
func (a *App) Get(path string, handler HandlerFunc) *mux.Route {
	return a.Handle(http.MethodGet, path, handler)
}

// Post registers handler for POST requests on path.
func (a *App) Post(path string, handler HandlerFunc) *mux.Route {
	return a.Handle(http.MethodPost, path, handler)
}

// Put registers handler for PUT requests on path.
func (a *App) Put(path string, handler HandlerFunc) *mux.Route {
	return a.Handle(http.MethodPut, path, handler)
}

// Patch registers handler for PATCH requests on path.
func (a *App) Patch(path string, handler HandlerFunc) *mux.Route {
	return a.Handle(http.MethodPatch, path, handler)
}

// Delete registers handler for DELETE requests on path.
func (a *App) Delete(path string, handler HandlerFunc) *mux.Route {
	return a.Handle(http.MethodDelete, path, handler)
}

// Head registers handler for HEAD requests only on path. Get already
// answers HEAD for its routes; Head is for HEAD-specific handlers.
func (a *App) Head(path string, handler HandlerFunc) *mux.Route {
	return a.Handle(http.MethodHead, path, handler)
}

// Options registers handler for OPTIONS requests on path.
func (a *App) Options(path string, handler HandlerFunc) *mux.Route {
	return a.Handle(http.MethodOptions, path, handler)
}

// Use appends middleware to the chain around every matched route.
func (a *App) Use(mw ...Middleware) {
	for _, m := range mw {
		a.router.Use(mux.MiddlewareFunc(m))
	}
}

// Mount serves handler under prefix with the prefix stripped from the inner
// request path: mounting at /abc and requesting /abc/def hands the handler a
// request for /def. The pre-mount URL stays available through
// Ctx.OriginalURL and Ctx.BaseURL. Mounting another *App nests applications.
func (a *App) Mount(prefix string, handler http.Handler) {
	p := "/" + strings.Trim(prefix, "/")
	if p == "/" {
		a.router.PathPrefix("/").Handler(handler)
		return
	}
	stripped := mountHandler(p, handler)
	a.router.PathPrefix(p + "/").Handler(stripped)
	a.router.Path(p).Handler(stripped)
}

// NotFound installs handler for requests matching no route.
func (a *App) NotFound(handler HandlerFunc) {
	a.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(NewCtx(w, r, a))
	})
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Listen serves the app on addr until the server fails. Read and write
// timeouts are fixed; callers needing shutdown control should build their
// own http.Server around the app.
func (a *App) Listen(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      a,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if a.Logger != nil {
		a.Logger.Info("server starting", zap.String("addr", addr))
	}
	return srv.ListenAndServe()
}

type ctxKey int

const (
	baseURLKey ctxKey = iota
	originalURLKey
)

// mountHandler strips prefix from the request path before invoking h,
// recording the original URL and accumulated base path in the context.
func mountHandler(prefix string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, ok := ctx.Value(originalURLKey).(string); !ok {
			ctx = context.WithValue(ctx, originalURLKey, r.URL.RequestURI())
		}
		base, _ := ctx.Value(baseURLKey).(string)
		ctx = context.WithValue(ctx, baseURLKey, base+prefix)

		r2 := r.Clone(ctx)
		r2.URL.Path = strippedPath(r.URL.Path, prefix)
		if r.URL.RawPath != "" {
			r2.URL.RawPath = strippedPath(r.URL.RawPath, prefix)
		}
		h.ServeHTTP(w, r2)
	})
}

func strippedPath(path, prefix string) string {
	inner := strings.TrimPrefix(path, prefix)
	if inner == "" {
		return "/"
	}
	return inner
}

// translatePath converts Express-style :name segments to gorilla/mux {name}
// segments. Segments without a leading colon pass through unchanged.
func translatePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if len(seg) > 1 && seg[0] == ':' {
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}
