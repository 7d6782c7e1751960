// Package etag generates HTTP entity tags from response bodies.
package etag

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
)

// Strong returns a strong entity tag for body: a quoted "<len-hex>-<digest>"
// where digest is the truncated base64 SHA-1 of the body. Identical bodies
// always produce identical tags.
func Strong(body []byte) string {
	sum := sha1.Sum(body)
	digest := base64.StdEncoding.EncodeToString(sum[:])
	if len(digest) > 27 {
		digest = digest[:27]
	}
	return fmt.Sprintf("%q", fmt.Sprintf("%x-%s", len(body), digest))
}

// Weak returns the weak form of Strong: the same tag prefixed with W/.
func Weak(body []byte) string {
	return "W/" + Strong(body)
}
