// Package server hosts the MCP endpoint over HTTP.
//
// # Request Lifecycle
//
// A single route, /mcp, accepts every request. The middleware chain runs
// recover, then auth, then the MCP transport: the recover layer turns panics into a
// JSON-RPC internal-error envelope when nothing has been written yet, the
// auth layer rejects credential-less requests with 401 and binds the
// caller's API key into the request context, and the MCP transport runs
// in stateless mode so each HTTP request gets its own short-lived
// session-less transport, torn down when the request's context ends.
//
// # Listeners
//
// The server listens on plain TCP by default, or on a Tailscale tsnet
// node when tailscale.enabled is set (optionally exposed publicly via
// Funnel).
package server
