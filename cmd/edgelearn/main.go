// Command edgelearn is the terminal study companion. It talks to the
// EdgeLearn API for answers, streams microphone audio to the speech
// service for dictation, and pipes answers through piper for narration.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/edgelearn/edgelearn/internal/app"
	"github.com/edgelearn/edgelearn/internal/backend"
	"github.com/edgelearn/edgelearn/internal/config"
	"github.com/edgelearn/edgelearn/internal/session"
	"github.com/edgelearn/edgelearn/internal/speech"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	// The TUI owns the terminal, so logs go to a file under the data dir.
	logFile, err := openLogFile(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "edgelearn: %v\n", err)
		return 1
	}
	defer logFile.Close()
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	slog.Info("edgelearn starting",
		"api_url", cfg.APIURL,
		"speech_url", cfg.SpeechURL,
		"data_dir", cfg.DataDir,
	)

	client := backend.New(cfg.APIURL)
	ctrl := session.NewController(backend.NewMediaResolver(cfg.APIURL))

	// Speech adapters are optional; the TUI degrades to typed input and
	// silent answers when they are not configured.
	var rec speech.Recognizer
	if r, err := speech.NewStreamRecognizer(cfg.SpeechURL, cfg.Recorder); err != nil {
		slog.Warn("voice capture unavailable", "error", err)
	} else {
		rec = r
	}

	var narrator speech.Narrator
	if n, err := speech.NewPipeNarrator(cfg.SynthCommand(), cfg.Player); err != nil {
		slog.Warn("narration unavailable", "error", err)
	} else {
		narrator = n
	}

	p := tea.NewProgram(app.New(cfg, client, ctrl, rec, narrator), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "edgelearn: %v\n", err)
		return 1
	}
	return 0
}

func openLogFile(dataDir string) (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, "edgelearn.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
