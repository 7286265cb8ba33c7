// Package session owns the client's authenticated identity.
//
// The [Manager] is the only component that reads or writes the persisted token and user email. Everything else
// asks it for the current [Session] or for a bearer token, and reports rejected sessions through [Manager.Invalidate].
//
// # Storage
//
// A [Storage] keeps string values under the fixed keys [KeyToken] and [KeyUserEmail]. Implementations:
//   - [MemoryStore] : process-local, used by tests and the "memory" backend
//   - [FileStore] : JSON document guarded by an advisory file lock
//   - [repositories.StoreRepository] : SQLite table, the default backend
//
// # Lifecycle
//
// A session is created by [Manager.Login] or [Manager.Register] (which logs in after a successful registration),
// and destroyed by [Manager.Logout] or [Manager.Invalidate]. Subscribers registered with [Manager.Subscribe]
// are told about each transition.
//
// # Errors
//
// Credential exchanges fail with [*AuthError]. Operations that need a session and find none return a
// [*RedirectError] naming the login path instead of failing hard; the caller decides how to navigate.
package session
