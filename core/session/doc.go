// Package session models the authenticated session explicitly instead of as ambient
// global state.
//
// A Session is created once, loads any persisted token on Init, and is passed by
// reference to the components that need it: the API transport uses it as its
// oauth2.TokenSource, the fetch coordinator consults it for the role-gated audit view,
// and both the coordinator and the mutation gateway call Teardown when the server
// rejects the token.
//
// # Lifecycle
//
//   - Init: restore token and profile from the Store for this scope.
//   - Begin: store a freshly issued token (login / signup).
//   - Teardown: clear the token and the Store, then run OnTeardown hooks (cache clear).
//
// # Persistence
//
// State is kept per scope, mirroring tab-scoped browser storage. MemoryStore keeps it in
// process; GormStore persists it in the configured database (SQLite by default).
//
// # Expiry
//
// When the token is a JWT its exp claim is read (unverified) so an expired token is
// reported as ErrTokenExpired before any request is sent.
package session
