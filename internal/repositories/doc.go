// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [StoreRepository] : key/value rows backing the persisted session (token, user email)
//   - [SessionEventRepository] : audit trail of session transitions, newest first
//
// Both repositories expect the schema created by [shared.RunMigrations].
package repositories
