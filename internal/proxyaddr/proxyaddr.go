// Package proxyaddr resolves the client address of a request from the socket
// peer and the X-Forwarded-For chain under a configurable trust policy.
package proxyaddr

import (
	"net/netip"
	"strings"
)

// TrustFunc decides whether the address at the given hop may append to the
// forwarded chain. Hop 0 is the socket peer; hop 1 the rightmost
// X-Forwarded-For entry, and so on toward the client.
type TrustFunc func(addr netip.Addr, hop int) bool

// TrustNone trusts no proxy. The socket peer is always the client.
func TrustNone(netip.Addr, int) bool { return false }

// TrustAll trusts every hop. The leftmost X-Forwarded-For entry wins.
func TrustAll(netip.Addr, int) bool { return true }

// TrustLoopback trusts loopback peers only.
func TrustLoopback(addr netip.Addr, _ int) bool {
	return addr.IsLoopback()
}

// TrustHops trusts exactly n forwarding hops in front of the server.
func TrustHops(n int) TrustFunc {
	return func(_ netip.Addr, hop int) bool { return hop < n }
}

// TrustCIDR trusts peers inside any of the given prefixes
// (e.g. "10.0.0.0/8", "172.16.0.0/12").
func TrustCIDR(cidrs ...string) (TrustFunc, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(c))
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, p)
	}
	return func(addr netip.Addr, _ int) bool {
		for _, p := range prefixes {
			if p.Contains(addr.Unmap()) {
				return true
			}
		}
		return false
	}, nil
}

// Resolve walks the forwarded chain from the socket peer toward the client,
// right to left, as long as each hop is trusted. It returns the derived
// client address and the forwarded addresses that were considered, client
// first. An untrusted peer yields the peer itself and an empty chain.
//
// remoteAddr is the socket peer in host or host:port form. forwardedFor is
// the X-Forwarded-For chain, leftmost first, as sent on the wire.
func Resolve(remoteAddr string, forwardedFor []string, trust TrustFunc) (string, []string) {
	if trust == nil {
		trust = TrustNone
	}

	peer := stripPort(remoteAddr)
	peerAddr, err := netip.ParseAddr(peer)
	if err != nil || !trust(peerAddr, 0) {
		return peer, nil
	}

	// addrs holds peer plus the trusted chain suffix, socket first.
	addrs := []string{peer}
	for hop, i := 1, len(forwardedFor)-1; i >= 0; hop, i = hop+1, i-1 {
		entry := strings.TrimSpace(forwardedFor[i])
		if entry == "" {
			break
		}
		addrs = append(addrs, stripPort(entry))
		addr, err := netip.ParseAddr(stripPort(entry))
		if err != nil || !trust(addr, hop) {
			break
		}
	}

	chain := make([]string, 0, len(addrs)-1)
	for i := len(addrs) - 1; i >= 1; i-- {
		chain = append(chain, addrs[i])
	}
	return addrs[len(addrs)-1], chain
}

// Split breaks one or more comma-joined X-Forwarded-For values into entries,
// leftmost first, dropping empty segments.
func Split(values []string) []string {
	var out []string
	for _, v := range values {
		for _, entry := range strings.Split(v, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				out = append(out, entry)
			}
		}
	}
	return out
}

// stripPort removes a trailing :port and IPv6 brackets from an address.
func stripPort(s string) string {
	s = strings.TrimSpace(s)
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().String()
	}
	if strings.HasPrefix(s, "[") {
		if end := strings.IndexByte(s, ']'); end > 0 {
			return s[1:end]
		}
	}
	return s
}
