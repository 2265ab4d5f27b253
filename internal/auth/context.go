// ABOUTME: Per-request API key binding propagated via context.Context
// ABOUTME: Provides WithCredential/FromContext used throughout the request extent

package auth

import (
	"context"
)

// credentialKey is the key type for storing the caller's API key in context.Context.
type credentialKey struct{}

// WithCredential returns a new context carrying the caller's API key.
// The binding is visible to the full dynamic extent of work running under
// the returned context, including goroutines it spawns, and to nothing else.
func WithCredential(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, credentialKey{}, key)
}

// FromContext returns the API key bound to ctx, or "" if none is bound.
// An empty result is a normal condition the caller must check.
func FromContext(ctx context.Context) string {
	key, _ := ctx.Value(credentialKey{}).(string)
	return key
}
