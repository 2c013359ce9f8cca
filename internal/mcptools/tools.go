// Package mcptools exposes the study archive to MCP clients, so an
// assistant on the laptop can look over what the student has been
// working on.
//
// Three tools are registered on the server:
//   - "list_study_sessions"    recent sessions, newest first
//   - "get_session_transcript" every turn of one session in order
//   - "study_stats"            totals, study days, and the current streak
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/edgelearn/edgelearn/internal/archive"
)

const defaultSessionLimit = 10

// NewServer builds an MCP server wired to the given archive.
func NewServer(store *archive.Store) *server.MCPServer {
	s := server.NewMCPServer("edgelearn-archive", "0.1.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("list_study_sessions",
		mcp.WithDescription("List recent study sessions, newest first. Each session carries its start and end time and how many turns it holds."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of sessions to return. Defaults to 10."),
		),
	), makeListSessionsHandler(store))

	s.AddTool(mcp.NewTool("get_session_transcript",
		mcp.WithDescription("Fetch the full transcript of one study session: every question and answer in order, with any media references."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("ID of the session, as returned by list_study_sessions."),
		),
	), makeTranscriptHandler(store))

	s.AddTool(mcp.NewTool("study_stats",
		mcp.WithDescription("Summarize study activity: session and question totals, distinct study days, the current daily streak, and when the student last studied."),
	), makeStatsHandler(store))

	return s
}

func makeListSessionsHandler(store *archive.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", defaultSessionLimit)
		if limit <= 0 {
			limit = defaultSessionLimit
		}

		sessions, err := store.RecentSessions(limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list_study_sessions: %v", err)), nil
		}

		res, err := json.Marshal(sessions)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list_study_sessions: encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(res)), nil
	}
}

func makeTranscriptHandler(store *archive.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		turns, err := store.Turns(sessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get_session_transcript: %v", err)), nil
		}
		if len(turns) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("get_session_transcript: no turns recorded for session %q", sessionID)), nil
		}

		res, err := json.Marshal(turns)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get_session_transcript: encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(res)), nil
	}
}

func makeStatsHandler(store *archive.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := store.Stats()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("study_stats: %v", err)), nil
		}

		res, err := json.Marshal(stats)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("study_stats: encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(res)), nil
	}
}
