// Package repositories implements durable storage for the account client.
//
// Key Implementations:
//   - [PersistRepository] : SQLite key/value items (the "auth", "favorites" and "history" keys)
//   - [BoltStore] : the same key/value contract on a bbolt file
//   - [SessionEventRepository] : append-only audit trail of logins, refreshes and logouts
//
// Both key/value stores satisfy [Persister]. A missing key is reported as [shared.ErrNotFound].
package repositories
