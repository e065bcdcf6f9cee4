package domain

import "time"

// User represents a learner
type User struct {
	UserID     int64
	Authorized bool
	Level      CEFRLevel
	CreatedAt  time.Time
}

// UserState represents user's current chat interaction state
type UserState string

const (
	StateIdle            UserState = "idle"
	StateWaitingPassword UserState = "waiting_password"
)

// StateData holds temporary data for user's current state
type StateData struct {
	State      UserState
	LastTaskID string
}
