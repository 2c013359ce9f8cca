// Package archive persists finished Study Room sessions to SQLite.
package archive

import "time"

// Session is one archived Study Room visit. EndedAt is nil while the
// session is still open.
type Session struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	TurnCount int        `json:"turnCount"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Turn is one archived transcript entry.
type Turn struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Media          []string  `json:"media,omitempty"`
	SequenceNumber int       `json:"sequenceNumber"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Stats summarizes study history for the dashboard.
type Stats struct {
	Sessions      int        `json:"sessions"`
	Turns         int        `json:"turns"`
	Questions     int        `json:"questions"`
	StudyDays     int        `json:"studyDays"`
	StreakDays    int        `json:"streakDays"`
	LastStudiedAt *time.Time `json:"lastStudiedAt,omitempty"`
}
