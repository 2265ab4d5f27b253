// Package tools registers the PhantomBuster MCP tools.
//
// # Tools
//
// Four tools are exposed: phantom_launch, phantom_status, phantom_results,
// and phantom_list. Tool names and input shapes are a compatibility
// contract with existing clients and must not change.
//
// # Error Contract
//
// Every failure (input validation, a missing per-request API key, or an
// upstream error) is converted at the handler boundary into an
// error-shaped tool result carrying the failure's message. Handlers never
// return a Go error to the protocol layer, so clients always receive a
// well-formed result envelope.
package tools
