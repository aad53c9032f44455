// Package ui implements the account dashboard using bubbletea's Elm architecture.
//
// The dashboard shows the signed-in customer, the current subscription and payment method, the
// session's token expiry and refresh timer, and the transaction history as a [list.Model].
//
// The [Model] subscribes to the session store and to the controller's progress channel. Store commits
// arrive as [MsgStateChanged], bootstrap and refresh phases as [MsgProgress]. Both channels are read by
// commands that re-issue themselves, the same way a long running job reports progress.
//
// Keys: r refreshes the token, l logs out, h toggles hidden/visible (the scheduler stops while hidden and
// refreshes on return when the token is due), s reloads the subscription, q quits.
package ui
