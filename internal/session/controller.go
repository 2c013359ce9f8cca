package session

import (
	"fmt"
	"strings"
)

// InputMode selects how the user is providing input. The modes are mutually
// exclusive; only one of them feeds pending input at a time.
type InputMode int

const (
	ModeText InputMode = iota
	ModeVoice
)

func (m InputMode) String() string {
	if m == ModeVoice {
		return "voice"
	}
	return "text"
}

// Origin records which modality produced a submission. Dictated submissions
// go through the voice endpoint, typed ones through chat.
type Origin int

const (
	OriginTyped Origin = iota
	OriginDictated
)

// Dispatch names one accepted submission. The event loop carries it through
// the backend and hands the outcome back to Resolve; Resolve honors each
// dispatch at most once.
type Dispatch struct {
	Seq    uint64
	Text   string
	Origin Origin
}

// Resolver rewrites backend media references before they are stored in a
// turn.
type Resolver interface {
	ResolveAll(paths []string) []string
}

// Controller is the sole writer of the transcript and session state. It is
// a pure state machine: all methods are called from the event loop, and
// asynchronous effects (the network round trip, capture, narration) are the
// loop's job, fed back in through Resolve and the adapter events.
type Controller struct {
	transcript *Transcript
	resolver   Resolver

	pending  string
	inFlight bool
	mode     InputMode
	narrate  bool
	media    string

	seq    uint64
	closed bool
}

// NewController creates a controller with a freshly seeded transcript.
func NewController(resolver Resolver) *Controller {
	return &Controller{
		transcript: NewTranscript(),
		resolver:   resolver,
	}
}

// Transcript exposes the conversation log for rendering and archiving.
func (c *Controller) Transcript() *Transcript {
	return c.transcript
}

// Submit attempts to start a round trip for text. Blank input, an
// outstanding round trip, or a closed session reject the submission with no
// state change. On accept the user turn is appended, pending input is
// cleared, and the returned dispatch must eventually reach Resolve.
func (c *Controller) Submit(text string, origin Origin) (Dispatch, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || c.inFlight || c.closed {
		return Dispatch{}, false
	}

	c.transcript.append(RoleUser, trimmed, nil)
	c.pending = ""
	c.inFlight = true
	c.seq++

	return Dispatch{Seq: c.seq, Text: trimmed, Origin: origin}, true
}

// Resolve completes the round trip named by d. On success the reply becomes
// an assistant turn with its media resolved; on failure a diagnostic
// assistant turn is appended instead, so no failure is ever silent. Either
// way the in-flight flag drops exactly once. Stale dispatches, duplicate
// resolves, and resolves after Close are dropped without touching the
// transcript.
func (c *Controller) Resolve(d Dispatch, content string, media []string, err error) (Turn, bool) {
	if c.closed {
		return Turn{}, false
	}
	if !c.inFlight || d.Seq != c.seq {
		return Turn{}, false
	}
	c.inFlight = false

	if err != nil {
		diag := fmt.Sprintf("I hit a problem answering that: %v. Check that the EdgeLearn API is running and try again.", err)
		return c.transcript.append(RoleAssistant, diag, nil), true
	}

	resolved := media
	if c.resolver != nil {
		resolved = c.resolver.ResolveAll(media)
	}
	return c.transcript.append(RoleAssistant, content, resolved), true
}

// InFlight reports whether a round trip is outstanding.
func (c *Controller) InFlight() bool {
	return c.inFlight
}

// Pending returns the uncommitted input: the typed draft or the dictation
// accumulated so far.
func (c *Controller) Pending() string {
	return c.pending
}

// SetPending replaces the uncommitted input with a typed draft.
func (c *Controller) SetPending(text string) {
	c.pending = text
}

// AppendDictation space-joins one finalized utterance onto the pending
// input and returns the accumulated text. Interim results never come
// through here.
func (c *Controller) AppendDictation(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return c.pending
	}
	if c.pending == "" {
		c.pending = text
	} else {
		c.pending += " " + text
	}
	return c.pending
}

// Mode returns the current input modality.
func (c *Controller) Mode() InputMode {
	return c.mode
}

// SetMode switches input modality. The returned flag tells the caller to
// stop an active capture session (set when switching away from voice).
// Pending input survives the switch; interim text is the capture adapter's
// to discard.
func (c *Controller) SetMode(mode InputMode) (stopCapture bool) {
	if mode == c.mode {
		return false
	}
	prev := c.mode
	c.mode = mode
	return prev == ModeVoice
}

// Narrate reports whether assistant turns are spoken aloud.
func (c *Controller) Narrate() bool {
	return c.narrate
}

// SetNarrate toggles narration. The returned flag tells the caller to
// cancel an in-progress playback: turning narration off is a hard stop.
func (c *Controller) SetNarrate(enabled bool) (cancelPlayback bool) {
	was := c.narrate
	c.narrate = enabled
	return was && !enabled
}

// ActiveMedia returns the media URL enlarged for inspection, if any.
func (c *Controller) ActiveMedia() string {
	return c.media
}

// SelectMedia marks url as enlarged for inspection. Purely local.
func (c *Controller) SelectMedia(url string) {
	c.media = url
}

// ClearMedia dismisses the inspected media.
func (c *Controller) ClearMedia() {
	c.media = ""
}

// Close marks the session over. Later submissions reject, and a response
// still in flight resolves into nothing instead of appending to a finished
// transcript.
func (c *Controller) Close() {
	c.closed = true
}
