// Package app assembles the read-only API server around a finished batch.
//
// NewApplication wires the price and health services, the chi router and
// the http.Server. The middleware chain runs in this order:
//
//	RequestID → RealIP → OTel → ErrorMiddleware → SecurityHeaders → RateLimiter
//
// /metrics is mounted outside the rate limiter and serves the same
// Prometheus registry the batch metrics were recorded on.
//
// Run blocks until its context is cancelled, SIGINT or SIGTERM arrives, or
// the listener fails, then shuts the server and the OTel providers down
// within Server.ShutdownTimeout.
package app
