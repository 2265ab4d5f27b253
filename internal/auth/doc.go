// Package auth extracts and propagates the caller's PhantomBuster API key.
//
// # Overview
//
// The gateway holds no credential of its own for outbound calls. Every
// inbound HTTP request carries the caller's key as a bearer token; the
// middleware extracts it and binds it to the request's context.Context,
// and everything downstream (tool handlers, the PhantomBuster client)
// reads it back with FromContext.
//
// # Isolation
//
// Two concurrently handled requests each run under their own context, so
// a key bound for one request is never observable while servicing another.
// The key is never stored outside the context.
//
// # Rejection
//
// Requests without a credential are rejected with HTTP 401 and a JSON-RPC
// shaped error body before any handler or outbound call can run.
package auth
