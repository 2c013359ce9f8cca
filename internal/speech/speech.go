// Package speech wraps the capture (recognition) and playback (narration)
// capabilities behind adapter interfaces, so the Study Room depends on
// contracts rather than on whichever engines happen to be installed.
package speech

import "errors"

// ErrUnavailable reports that a capability is not configured or its
// binaries are missing. Callers degrade (text-only input, silent responses)
// instead of failing the session.
var ErrUnavailable = errors.New("capability unavailable")

// EventKind distinguishes recognizer results.
type EventKind int

const (
	// KindInterim is transient display feedback, never committed as input.
	KindInterim EventKind = iota
	// KindFinal is a finalized utterance, safe to commit.
	KindFinal
	// KindError reports a capture failure; the session is over.
	KindError
)

// CaptureEvent is one recognizer result.
type CaptureEvent struct {
	Kind EventKind
	Text string
	Err  error
}

// Recognizer is a continuous speech-capture source. At most one capture
// session is active; Start while active is a no-op, Stop discards any
// interim text the session still held.
type Recognizer interface {
	Start() error
	Stop()
	Events() <-chan CaptureEvent
}

// PlaybackDone signals that one playback finished. It fires exactly once
// per playback, whether it ran to completion or was cancelled.
type PlaybackDone struct {
	ID        int
	Cancelled bool
}

// Narrator speaks text aloud. At most one playback is active at a time:
// Speak cancels the previous playback first, and Cancel is always safe to
// call, including when nothing is playing.
type Narrator interface {
	Speak(text string) int
	Cancel()
	Done() <-chan PlaybackDone
}
