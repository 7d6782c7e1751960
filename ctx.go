package flow

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

// Ctx carries one request/response pair through a handler. All derived
// request properties (params, query, protocol, subdomains, client address)
// are computed on demand from the current header and connection state, never
// cached across header mutation.
type Ctx struct {
	w   http.ResponseWriter
	r   *http.Request
	app *App

	status int
}

// NewCtx wraps a response writer and request. app may be nil, in which case
// default settings apply (no trusted proxy, subdomain offset 2, strong ETags).
func NewCtx(w http.ResponseWriter, r *http.Request, app *App) *Ctx {
	return &Ctx{w: w, r: r, app: app}
}

// Request returns the underlying *http.Request.
func (c *Ctx) Request() *http.Request { return c.r }

// ResponseWriter returns the underlying http.ResponseWriter.
func (c *Ctx) ResponseWriter() http.ResponseWriter { return c.w }

// Method returns the request method.
func (c *Ctx) Method() string { return c.r.Method }

// Path returns the request path. Inside a mounted handler this is the
// mount-stripped path: mounting at /abc and requesting /abc/def yields /def.
func (c *Ctx) Path() string { return c.r.URL.Path }

// BaseURL returns the accumulated mount prefix, empty for an unmounted app.
func (c *Ctx) BaseURL() string {
	base, _ := c.r.Context().Value(baseURLKey).(string)
	return base
}

// OriginalURL returns the request URI as received before any mount
// stripping.
func (c *Ctx) OriginalURL() string {
	if orig, ok := c.r.Context().Value(originalURLKey).(string); ok {
		return orig
	}
	return c.r.URL.RequestURI()
}

// Param returns the named route parameter, empty when absent.
func (c *Ctx) Param(name string) string {
	return mux.Vars(c.r)[name]
}

// Params returns all route parameters. The map is never nil.
func (c *Ctx) Params() map[string]string {
	vars := mux.Vars(c.r)
	if vars == nil {
		return map[string]string{}
	}
	return vars
}

// Query returns the parsed query string. A request without a query string
// yields an empty, non-nil mapping.
func (c *Ctx) Query() url.Values {
	return c.r.URL.Query()
}

// QueryParam returns the first value of the named query parameter.
func (c *Ctx) QueryParam(name string) string {
	return c.r.URL.Query().Get(name)
}

// GetHeader returns a request header value.
func (c *Ctx) GetHeader(name string) string {
	return c.r.Header.Get(name)
}

var defaultApp = &App{SubdomainOffset: 2}

// settings returns the effective app settings, tolerating a nil app.
func (c *Ctx) settings() *App {
	if c.app != nil {
		return c.app
	}
	return defaultApp
}
