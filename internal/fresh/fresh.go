// Package fresh computes HTTP conditional-request freshness: whether the
// validators a client sent (If-None-Match, If-Modified-Since) still match the
// response the server is about to send, so the response can be a 304.
package fresh

import (
	"net/http"
	"strings"
)

// Fresh reports whether the request described by reqHeader is still fresh
// with respect to the ETag and Last-Modified values in resHeader.
//
// A request with no conditional headers is never fresh. An end-to-end reload
// (Cache-Control: no-cache) is never fresh. If-None-Match takes precedence
// over If-Modified-Since when both are present; entity tags compare under
// weak comparison, so W/"x" matches "x".
func Fresh(reqHeader, resHeader http.Header) bool {
	modifiedSince := reqHeader.Get("If-Modified-Since")
	noneMatch := reqHeader.Get("If-None-Match")
	if modifiedSince == "" && noneMatch == "" {
		return false
	}

	if hasNoCache(reqHeader.Get("Cache-Control")) {
		return false
	}

	if noneMatch != "" && noneMatch != "*" {
		etag := resHeader.Get("ETag")
		if etag == "" {
			return false
		}
		if !tagMatches(noneMatch, etag) {
			return false
		}
	}

	if modifiedSince != "" {
		lastModified := resHeader.Get("Last-Modified")
		if lastModified == "" {
			return false
		}
		lm, err := http.ParseTime(lastModified)
		if err != nil {
			return false
		}
		ims, err := http.ParseTime(modifiedSince)
		if err != nil {
			return false
		}
		if lm.After(ims) {
			return false
		}
	}

	return true
}

// tagMatches reports whether any entity tag in the If-None-Match value
// matches etag, ignoring W/ weakness markers on either side.
func tagMatches(noneMatch, etag string) bool {
	for _, tag := range strings.Split(noneMatch, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if tag == etag || tag == "W/"+etag || "W/"+tag == etag {
			return true
		}
	}
	return false
}

// hasNoCache reports whether a Cache-Control value contains a no-cache token.
func hasNoCache(cacheControl string) bool {
	for _, directive := range strings.Split(cacheControl, ",") {
		if strings.EqualFold(strings.TrimSpace(directive), "no-cache") {
			return true
		}
	}
	return false
}
