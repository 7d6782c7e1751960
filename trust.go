package flow

import "github.com/kjstillabower/flow/internal/proxyaddr"

// TrustFunc decides, per forwarding hop, whether an address may speak for
// the client via X-Forwarded-* / Forwarded headers. Hop 0 is the socket peer.
type TrustFunc = proxyaddr.TrustFunc

// Trust policies for App.TrustProxy.
var (
	TrustAll      TrustFunc = proxyaddr.TrustAll
	TrustNone     TrustFunc = proxyaddr.TrustNone
	TrustLoopback TrustFunc = proxyaddr.TrustLoopback
)

// TrustHops trusts exactly n forwarding hops in front of the server.
func TrustHops(n int) TrustFunc { return proxyaddr.TrustHops(n) }

// TrustCIDR trusts peers inside the given prefixes.
func TrustCIDR(cidrs ...string) (TrustFunc, error) { return proxyaddr.TrustCIDR(cidrs...) }
