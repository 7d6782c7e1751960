// Package flow is a minimal HTTP web framework on top of net/http with
// Express-style request and response ergonomics: route params, query
// extraction, prefix mounting with inner-URL stripping, trust-proxy aware
// protocol/host/IP derivation, and conditional-request freshness (ETag /
// If-None-Match handling with automatic 304 responses).
//
// Route matching is delegated to gorilla/mux; flow translates Express-style
// patterns (/users/:id) to mux patterns (/users/{id}). The underlying HTTP
// server, socket handling, and TLS termination are net/http's.
//
//	app := flow.New()
//	app.Get("/greet/:name", func(c *flow.Ctx) {
//		c.Send("hello " + c.Param("name"))
//	})
//	log.Fatal(app.Listen(":8080"))
package flow
