// Package transport defines the handler contract and middleware chain that
// every stackauth layer implements.
//
// A Handler turns a Request into a Response. Because each layer consumes and
// produces the same values, handlers can wrap one another to any depth: the
// authentication gate wraps the application, the challenge relay wraps the
// application, and both can sit inside or outside cross-cutting middleware.
//
// # Request and Response
//
// Request wraps a *http.Request and adds a mutable attribute bag that layers
// use to hand facts to one another (for example, that a request already
// carries an authentication token). Response is a buffered value with a
// status code, headers and body, so outer layers can inspect and replace it
// after the inner handler has returned.
//
// # Middleware
//
// Middleware wraps a Handler with cross-cutting behavior. Built-in middleware
// provides panic recovery, request ID assignment (X-Request-ID) and
// structured logging via log/slog.
//
// The net/http bridge lives in the http subpackage.
package transport
