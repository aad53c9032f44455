// Package session manages the account session lifecycle.
//
// # State
//
// [Store] holds the single [State] (credentials, profile, subscription, consents, loading flag).
// Readers get copies; writers commit whole updates through [Store.Update]. Logging out and
// installing a new session with [Store.Install] both advance the store's epoch, and asynchronous
// work commits with [Store.UpdateIf] so results belonging to an ended or replaced session are dropped.
//
// # Token Lifecycle
//
// [DecodeToken] and [NeedsRefresh] read the access token's exp and customerId claims without
// verifying the signature. [Scheduler] keeps one pending refresh timer, cancelled while the host
// is hidden and re-checked when it becomes visible again.
//
// # Controller
//
// [Controller] sequences the backend calls:
//   - Initialize: read the persisted "auth" key, renew it, run the fan-out, restore shelves
//   - Login, LoginWithIdentity, Register: authenticate, then the same fan-out
//   - Refresh: renew tokens with their issuer (single flight); any failure except an
//     interrupted request logs out
//   - Logout: clear persisted and in-memory state, invalidate entitlements, reset shelves
//
// The post-login fan-out loads subscription, transactions and payment method (subscription
// access model only) alongside customer and publisher consents, and clears Loading once all have settled.
// A failed read leaves only its own field empty.
//
// Operations that need a session return [shared.ErrNotLoggedIn] before making any request.
// Backend error lists surface as [*services.ResponseError].
package session
