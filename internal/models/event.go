package models

import "time"

// SessionEventKind names a session transition.
type SessionEventKind string

const (
	EventLogin         SessionEventKind = "login"
	EventRegister      SessionEventKind = "register"
	EventRestore       SessionEventKind = "restore"
	EventRefresh       SessionEventKind = "refresh"
	EventRefreshFailed SessionEventKind = "refresh_failed"
	EventLogout        SessionEventKind = "logout"
)

// SessionEvent is one row of the local session audit trail.
type SessionEvent struct {
	ID         string
	Kind       SessionEventKind
	CustomerID string
	Detail     string
	CreatedAt  time.Time
}
