// Package session owns the Study Room conversation: the append-only
// transcript and the controller that arbitrates input modality, backend
// round trips, narration, and media inspection.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one immutable conversation entry. Assistant turns may carry
// resolved media URLs; user turns never do.
type Turn struct {
	ID        string
	Role      Role
	Content   string
	Media     []string
	CreatedAt time.Time
}

// NewID returns an identifier that sorts by creation time.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
