// Package client is a Go HTTP client for the Nexus API.
//
// # Sessions
//
// The access token is kept in a volatile TokenStore and attached to every
// request as a bearer token. The refresh token never leaves the cookie jar.
//
// When a call is rejected with ACCESS_TOKEN_INVALID the client refreshes the
// session and resends the call once. Concurrent calls that fail together share
// one refresh request. If the refresh fails, each caller gets its original
// error back.
//
// # Errors
//
// Responses are decoded from the API envelope into distinguishable errors:
// *ValidationError for rejected input, *APIError for coded failures, and
// *TransportError when no envelope could be read.
package client
