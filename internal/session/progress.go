package session

// ProgressUpdate represents a progress event during login or session restore.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	RestoreSession Phase = iota
	RefreshToken
	Authenticate
	FetchCustomer
	FetchSubscription
	FetchConsents
	RestoreShelves
	Logout
)

func (p Phase) String() string {
	switch p {
	case RestoreSession:
		return "restore_session"
	case RefreshToken:
		return "refresh_token"
	case Authenticate:
		return "authenticate"
	case FetchCustomer:
		return "fetch_customer"
	case FetchSubscription:
		return "fetch_subscription"
	case FetchConsents:
		return "fetch_consents"
	case RestoreShelves:
		return "restore_shelves"
	case Logout:
		return "logout"
	default:
		return ""
	}
}

func update(phase Phase, step, total int, msg string) ProgressUpdate {
	return ProgressUpdate{Phase: phase, Step: step, Total: total, Message: msg}
}

// sendProgress never blocks; updates are dropped when nobody is reading.
func sendProgress(progress chan<- ProgressUpdate, u ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- u:
	default:
	}
}
