package flow

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/kjstillabower/flow/internal/forwarded"
	"github.com/kjstillabower/flow/internal/fresh"
	"github.com/kjstillabower/flow/internal/proxyaddr"
)

// Protocol returns "http" or "https" for this request. A TLS connection is
// https. When the socket peer is trusted by the app's TrustProxy policy, the
// leftmost X-Forwarded-Proto entry wins, then the proto parameter of the
// first RFC 7239 Forwarded element; otherwise the socket decides.
func (c *Ctx) Protocol() string {
	proto := "http"
	if c.r.TLS != nil {
		proto = "https"
	}
	if !c.peerTrusted() {
		return proto
	}
	if xfp := c.r.Header.Get("X-Forwarded-Proto"); xfp != "" {
		first, _, _ := strings.Cut(xfp, ",")
		if first = strings.ToLower(strings.TrimSpace(first)); first != "" {
			return first
		}
	}
	if fwd := c.r.Header.Get("Forwarded"); fwd != "" {
		if elems := forwarded.Parse(fwd); len(elems) > 0 && elems[0].Proto != "" {
			return strings.ToLower(elems[0].Proto)
		}
	}
	return proto
}

// Secure reports whether the derived protocol is https.
func (c *Ctx) Secure() bool {
	return c.Protocol() == "https"
}

// Hostname returns the request host without port. When the socket peer is
// trusted, the first X-Forwarded-Host value wins over the Host header.
// Brackets around an IPv6 literal are preserved.
func (c *Ctx) Hostname() string {
	host := c.r.Host
	if c.peerTrusted() {
		if xfh := c.r.Header.Get("X-Forwarded-Host"); xfh != "" {
			first, _, _ := strings.Cut(xfh, ",")
			host = strings.TrimSpace(first)
		}
	}
	return stripHostPort(host)
}

// Subdomains returns the host labels in front of the registrable domain,
// most specific first: host a.b.example.com with the default offset 2
// yields ["a", "b"]. The result is empty, never a panic, when the host is
// absent, an IP literal, or a bracketed IPv6 literal, or when the host has
// no labels beyond the offset.
func (c *Ctx) Subdomains() []string {
	host := c.Hostname()
	if host == "" || strings.HasPrefix(host, "[") {
		return nil
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return nil
	}
	labels := strings.Split(host, ".")
	offset := c.settings().SubdomainOffset
	if offset < 0 || len(labels) <= offset {
		return nil
	}
	return labels[:len(labels)-offset]
}

// IP returns the derived client address: the socket peer, or the nearest
// untrusted entry of the X-Forwarded-For chain when the peer is trusted.
func (c *Ctx) IP() string {
	ip, _ := c.resolveAddr()
	return ip
}

// IPs returns the trusted X-Forwarded-For chain, client first. Empty when
// the socket peer is untrusted or the header is absent.
func (c *Ctx) IPs() []string {
	_, chain := c.resolveAddr()
	return chain
}

// Fresh reports whether the client's conditional headers (If-None-Match,
// If-Modified-Since) match the validators already set on the response, so
// the pending response may be a 304. Only GET and HEAD requests with a 2xx
// or 304 pending status can be fresh.
func (c *Ctx) Fresh() bool {
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return c.freshFor(status)
}

// Stale is the negation of Fresh.
func (c *Ctx) Stale() bool {
	return !c.Fresh()
}

func (c *Ctx) freshFor(status int) bool {
	if m := c.r.Method; m != http.MethodGet && m != http.MethodHead {
		return false
	}
	if (status < http.StatusOK || status >= http.StatusMultipleChoices) && status != http.StatusNotModified {
		return false
	}
	return fresh.Fresh(c.r.Header, c.w.Header())
}

func (c *Ctx) resolveAddr() (string, []string) {
	return proxyaddr.Resolve(
		c.r.RemoteAddr,
		proxyaddr.Split(c.r.Header.Values("X-Forwarded-For")),
		c.settings().TrustProxy,
	)
}

func (c *Ctx) peerTrusted() bool {
	trust := c.settings().TrustProxy
	if trust == nil {
		return false
	}
	peer, err := netip.ParseAddr(stripAddrPort(c.r.RemoteAddr))
	if err != nil {
		return false
	}
	return trust(peer, 0)
}

// stripHostPort removes a trailing :port from a Host header value, keeping
// IPv6 brackets intact.
func stripHostPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if end := strings.IndexByte(host, ']'); end >= 0 {
			return host[:end+1]
		}
		return host
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}

// stripAddrPort removes a trailing :port and brackets from a socket address.
func stripAddrPort(addr string) string {
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().String()
	}
	return strings.Trim(addr, "[]")
}
