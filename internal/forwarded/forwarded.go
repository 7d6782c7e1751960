// Package forwarded parses the RFC 7239 Forwarded header.
package forwarded

import "strings"

// Element is one forwarded element: the parameters contributed by a single
// proxy hop. Unknown extension parameters are dropped.
type Element struct {
	For   string
	By    string
	Host  string
	Proto string
}

// Parse splits a Forwarded header value into its elements, leftmost (closest
// to the client) first. Malformed parameters are skipped rather than
// reported; a fully malformed value yields no elements.
func Parse(header string) []Element {
	var elems []Element
	for _, part := range splitQuoted(header, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var el Element
		ok := false
		for _, pair := range splitQuoted(part, ';') {
			key, value, found := strings.Cut(pair, "=")
			if !found {
				continue
			}
			key = strings.ToLower(strings.TrimSpace(key))
			value = unquote(strings.TrimSpace(value))
			switch key {
			case "for":
				el.For = value
			case "by":
				el.By = value
			case "host":
				el.Host = value
			case "proto":
				el.Proto = value
			default:
				continue
			}
			ok = true
		}
		if ok {
			elems = append(elems, el)
		}
	}
	return elems
}

// splitQuoted splits s on sep, ignoring separators inside double-quoted
// strings. Backslash escapes inside quotes are honored.
func splitQuoted(s string, sep byte) []string {
	var parts []string
	var quoted, escaped bool
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case quoted && s[i] == '\\':
			escaped = true
		case s[i] == '"':
			quoted = !quoted
		case s[i] == sep && !quoted:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// unquote removes surrounding double quotes and resolves backslash escapes.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	inner := s[1 : len(s)-1]
	if !strings.ContainsRune(inner, '\\') {
		return inner
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}
