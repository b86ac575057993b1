// Package apiclient is the HTTP transport to the remote catalog REST API.
//
// Authenticated requests obtain their bearer token from an oauth2.TokenSource, which in
// the console is the session itself; login and signup go out anonymously. Concurrent GETs
// of the same path are collapsed into one round trip with singleflight.
//
// # Errors
//
// Non-2xx responses become *HTTPError carrying the server's {message}. Responses that
// reject the session (401, or 403 naming an expired or invalid token) unwrap to
// ErrUnauthorized, so callers can use errors.Is. Bodies that are not valid JSON where
// JSON is expected produce ErrMalformedBody.
package apiclient
