package db

import (
	"time"

	"github.com/google/uuid"
)

// Session is a row of lookup_sessions.
type Session struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is a persisted transcript line.
type Entry struct {
	SessionID uuid.UUID `json:"session_id"`
	Seq       int       `json:"seq"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Export is a persisted copy of an exported transcript.
type Export struct {
	SessionID uuid.UUID `json:"session_id"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
