package flow

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/kjstillabower/flow/internal/etag"
)

// Status sets the pending response status for the next Send/JSON call.
// It returns c for chaining.
func (c *Ctx) Status(code int) *Ctx {
	c.status = code
	return c
}

// Set sets a response header, replacing existing values.
func (c *Ctx) Set(name, value string) {
	c.w.Header().Set(name, value)
}

// Append adds a response header value without replacing existing ones.
func (c *Ctx) Append(name, value string) {
	c.w.Header().Add(name, value)
}

// Vary appends a field name to the Vary response header.
func (c *Ctx) Vary(field string) {
	c.w.Header().Add("Vary", field)
}

// Location sets the Location response header.
func (c *Ctx) Location(url string) {
	c.w.Header().Set("Location", url)
}

// Redirect responds with the given 3xx status and Location header.
func (c *Ctx) Redirect(code int, url string) {
	http.Redirect(c.w, c.r, url, code)
}

// Send writes body as text/plain (unless a Content-Type is already set) with
// the pending status. When the configured ETag mode is enabled an entity tag
// is generated, and a fresh GET/HEAD request receives 304 with no body
// instead. A write failure on a dead connection is returned, not swallowed.
func (c *Ctx) Send(body string) error {
	return c.send([]byte(body), "text/plain; charset=utf-8")
}

// SendBytes is Send for a raw byte body with no implied Content-Type.
func (c *Ctx) SendBytes(body []byte) error {
	return c.send(body, "")
}

// JSON marshals v and sends it as application/json, with the same entity tag
// and freshness handling as Send.
func (c *Ctx) JSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("flow: marshal response: %w", err)
	}
	return c.send(b, "application/json")
}

// SendStatus sets the status code and sends its canonical text as the body.
func (c *Ctx) SendStatus(code int) error {
	return c.Status(code).Send(http.StatusText(code))
}

func (c *Ctx) send(body []byte, contentType string) error {
	h := c.w.Header()
	if contentType != "" && h.Get("Content-Type") == "" {
		h.Set("Content-Type", contentType)
	}

	status := c.status
	if status == 0 {
		status = http.StatusOK
	}

	if len(body) > 0 && h.Get("ETag") == "" {
		switch c.settings().ETag {
		case ETagStrong:
			h.Set("ETag", etag.Strong(body))
		case ETagWeak:
			h.Set("ETag", etag.Weak(body))
		}
	}

	if c.freshFor(status) {
		h.Del("Content-Type")
		h.Del("Content-Length")
		h.Del("Transfer-Encoding")
		c.w.WriteHeader(http.StatusNotModified)
		return nil
	}

	h.Set("Content-Length", strconv.Itoa(len(body)))
	c.w.WriteHeader(status)
	if c.r.Method == http.MethodHead || len(body) == 0 {
		return nil
	}
	if _, err := c.w.Write(body); err != nil {
		return fmt.Errorf("flow: write response: %w", err)
	}
	return nil
}

// Hijack takes over the underlying connection, when the server supports it.
// After a hijack the framework writes nothing further; closing the returned
// connection mid-request surfaces as a transport error to the client.
func (c *Ctx) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := c.w.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("flow: response writer does not support hijacking")
	}
	return hj.Hijack()
}
