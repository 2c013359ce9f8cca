package session

import "time"

// Greeting seeds every session's transcript.
const Greeting = "Welcome to the Study Room. Ask me anything about your uploaded course materials."

// Transcript is the ordered, append-only log of turns for one session.
// Insertion order is display and semantic order; entries are never edited,
// reordered, or deduplicated. Only the Controller appends.
type Transcript struct {
	turns []Turn
	now   func() time.Time
}

// NewTranscript returns a transcript seeded with the assistant greeting.
func NewTranscript() *Transcript {
	tr := &Transcript{now: time.Now}
	tr.append(RoleAssistant, Greeting, nil)
	return tr
}

func (t *Transcript) append(role Role, content string, media []string) Turn {
	turn := Turn{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Media:     media,
		CreatedAt: t.now(),
	}
	t.turns = append(t.turns, turn)
	return turn
}

// Turns returns the transcript in insertion order. Callers must not modify
// the returned slice.
func (t *Transcript) Turns() []Turn {
	return t.turns
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Last returns the most recently appended turn.
func (t *Transcript) Last() Turn {
	return t.turns[len(t.turns)-1]
}
