package state

import "time"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and temporary data for a user.
type Session struct {
	State     State
	TempData  map[string]any
	UpdatedAt time.Time
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	Get(userID int64) Session
	SetTemp(userID int64, key string, value any)
	GetTemp(userID int64, key string) (any, bool)
	GetTempString(userID int64, key string) (string, bool)
	ClearTemp(userID int64, key string)
	Clear(userID int64)

	// Dialog state
	SetState(userID int64, st State)
	GetState(userID int64) State
	// Reset moves the user back to idle and drops temp data.
	Reset(userID int64)

	InProgress(userID int64) bool
	Len() int
}
