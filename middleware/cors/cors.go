// Package cors adapts github.com/rs/cors to flow's middleware shape.
package cors

import (
	"net/http"

	"github.com/rs/cors"
)

// Options re-exports rs/cors options.
type Options = cors.Options

// Middleware returns CORS middleware with the given options.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return cors.New(opts).Handler
}

// Default returns CORS middleware with the rs/cors defaults: all origins,
// simple methods, no credentials.
func Default() func(http.Handler) http.Handler {
	return cors.Default().Handler
}

// AllowAll returns permissive CORS middleware: any origin, method, header.
func AllowAll() func(http.Handler) http.Handler {
	return cors.AllowAll().Handler
}
