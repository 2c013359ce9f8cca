package mcptools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/edgelearn/edgelearn/internal/archive"
)

// newSeededStore opens a throwaway archive holding two sessions, the
// first of which carries a short transcript.
func newSeededStore(t *testing.T) (*archive.Store, string) {
	t.Helper()
	store, err := archive.Open(archive.PathIn(t.TempDir()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	now := time.Now()
	older := now.Add(-26 * time.Hour)

	if err := store.CreateSession("sess-old", older); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.CreateSession("sess-new", now); err != nil {
		t.Fatalf("create session: %v", err)
	}

	turns := []archive.Turn{
		{ID: "t1", SessionID: "sess-new", Role: "assistant", Content: "Hi! Ask me anything.", SequenceNumber: 1, CreatedAt: now},
		{ID: "t2", SessionID: "sess-new", Role: "user", Content: "what is osmosis", SequenceNumber: 2, CreatedAt: now},
		{ID: "t3", SessionID: "sess-new", Role: "assistant", Content: "Water crosses the membrane.",
			Media: []string{"http://localhost:8080/media/bio/page_4/diagram.png"}, SequenceNumber: 3, CreatedAt: now},
	}
	for _, turn := range turns {
		if err := store.AppendTurn(turn); err != nil {
			t.Fatalf("append turn: %v", err)
		}
	}

	return store, "sess-new"
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestListStudySessions(t *testing.T) {
	store, _ := newSeededStore(t)
	handler := makeListSessionsHandler(store)

	res, err := handler(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var sessions []archive.Session
	if err := json.Unmarshal([]byte(textOf(t, res)), &sessions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
	if sessions[0].ID != "sess-new" {
		t.Errorf("first session = %q, want newest first", sessions[0].ID)
	}
	if sessions[0].TurnCount != 3 {
		t.Errorf("turnCount = %d, want 3", sessions[0].TurnCount)
	}
}

func TestListStudySessionsLimit(t *testing.T) {
	store, _ := newSeededStore(t)
	handler := makeListSessionsHandler(store)

	res, err := handler(context.Background(), callRequest(map[string]any{"limit": 1}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var sessions []archive.Session
	if err := json.Unmarshal([]byte(textOf(t, res)), &sessions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
}

func TestGetSessionTranscript(t *testing.T) {
	store, sessionID := newSeededStore(t)
	handler := makeTranscriptHandler(store)

	res, err := handler(context.Background(), callRequest(map[string]any{"session_id": sessionID}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var turns []archive.Turn
	if err := json.Unmarshal([]byte(textOf(t, res)), &turns); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("turns = %d, want 3", len(turns))
	}
	if turns[1].Content != "what is osmosis" {
		t.Errorf("turn 2 = %q", turns[1].Content)
	}
	if len(turns[2].Media) != 1 {
		t.Errorf("turn 3 media = %v", turns[2].Media)
	}
}

func TestGetSessionTranscriptUnknownSession(t *testing.T) {
	store, _ := newSeededStore(t)
	handler := makeTranscriptHandler(store)

	res, err := handler(context.Background(), callRequest(map[string]any{"session_id": "nope"}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Error("unknown session should report a tool error")
	}
}

func TestGetSessionTranscriptMissingArg(t *testing.T) {
	store, _ := newSeededStore(t)
	handler := makeTranscriptHandler(store)

	res, err := handler(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Error("missing session_id should report a tool error")
	}
}

func TestStudyStats(t *testing.T) {
	store, _ := newSeededStore(t)
	handler := makeStatsHandler(store)

	res, err := handler(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var stats archive.Stats
	if err := json.Unmarshal([]byte(textOf(t, res)), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Sessions != 2 {
		t.Errorf("sessions = %d, want 2", stats.Sessions)
	}
	if stats.Turns != 3 {
		t.Errorf("turns = %d, want 3", stats.Turns)
	}
	if stats.Questions != 1 {
		t.Errorf("questions = %d, want 1", stats.Questions)
	}
	if stats.LastStudiedAt == nil {
		t.Error("lastStudiedAt should be set")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	store, _ := newSeededStore(t)
	s := NewServer(store)
	if s == nil {
		t.Fatal("nil server")
	}
}
