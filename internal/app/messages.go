package app

import (
	"github.com/edgelearn/edgelearn/internal/archive"
	"github.com/edgelearn/edgelearn/internal/backend"
	"github.com/edgelearn/edgelearn/internal/session"
	"github.com/edgelearn/edgelearn/internal/speech"
)

// TurnResolvedMsg carries the backend's answer, or failure, for a
// dispatched question.
type TurnResolvedMsg struct {
	Dispatch session.Dispatch
	Content  string
	Media    []string
	Err      error
}

// CaptureStartedMsg reports the outcome of starting voice capture.
type CaptureStartedMsg struct {
	Err error
}

// CaptureEventMsg wraps one event from the speech capture stream.
type CaptureEventMsg struct {
	Event speech.CaptureEvent
}

// PlaybackDoneMsg reports a finished or cancelled narration.
type PlaybackDoneMsg struct {
	Done speech.PlaybackDone
}

// HealthCheckedMsg carries the result of a backend health probe.
type HealthCheckedMsg struct {
	Err error
}

// HealthRetryMsg triggers another health probe after a backoff delay.
type HealthRetryMsg struct{}

// KnowledgeStatsMsg carries knowledge base statistics from the backend.
type KnowledgeStatsMsg struct {
	Stats backend.KnowledgeStats
	Err   error
}

// DocumentsLoadedMsg carries the indexed document list from the backend.
type DocumentsLoadedMsg struct {
	Documents []backend.Document
	Err       error
}

// UploadFinishedMsg carries the result of a course material upload.
type UploadFinishedMsg struct {
	Report backend.IngestReport
	Err    error
}

// ArchiveReadyMsg reports that the session archive opened, or why not.
type ArchiveReadyMsg struct {
	Store *archive.Store
	Err   error
}

// ArchivedMsg reports the outcome of a background archive write.
type ArchivedMsg struct {
	Err error
}

// ArchiveStatsMsg carries dashboard statistics from the session archive.
type ArchiveStatsMsg struct {
	Stats archive.Stats
	Err   error
}

// RecentSessionsMsg carries recent study sessions for the dashboard.
type RecentSessionsMsg struct {
	Sessions []archive.Session
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
