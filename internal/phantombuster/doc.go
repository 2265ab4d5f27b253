// Package phantombuster is the single chokepoint for outbound calls to
// the PhantomBuster REST API.
//
// # Authentication
//
// Every call authenticates with the API key bound to the request context
// by the auth package; the client holds no key of its own. If no key is
// bound the call fails with ErrNoCredential before any network activity.
//
// # Errors
//
// Transport-level and upstream-reported failures are normalized into
// *APIError carrying the most specific human-readable message available:
// the upstream "error" field, then the upstream "message" field, then the
// transport error text, then a fixed fallback. Nothing is ever retried.
package phantombuster
