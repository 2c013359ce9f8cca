package config

import (
	"log/slog"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"EDGELEARN_API_URL", "EDGELEARN_SPEECH_URL", "EDGELEARN_RECORDER",
		"EDGELEARN_PIPER_BIN", "EDGELEARN_PIPER_VOICE", "EDGELEARN_PLAYER",
		"EDGELEARN_DATA_DIR", "EDGELEARN_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.APIURL != "http://localhost:8080" {
		t.Errorf("APIURL = %q, want the local default", cfg.APIURL)
	}
	if cfg.SpeechURL != "" {
		t.Errorf("SpeechURL = %q, want empty", cfg.SpeechURL)
	}
	if len(cfg.Recorder) == 0 || cfg.Recorder[0] != "sox" {
		t.Errorf("Recorder = %v, want a sox pipeline", cfg.Recorder)
	}
	if len(cfg.Player) == 0 || cfg.Player[0] != "aplay" {
		t.Errorf("Player = %v, want an aplay pipeline", cfg.Player)
	}
	if cfg.PiperBin != "piper" {
		t.Errorf("PiperBin = %q, want piper", cfg.PiperBin)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir is empty, want a home-relative default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDGELEARN_API_URL", "http://tutor.lan:9000")
	t.Setenv("EDGELEARN_SPEECH_URL", "ws://tutor.lan:9001/stt")
	t.Setenv("EDGELEARN_RECORDER", "arecord -q -f S16_LE -r 16000 -c 1 -t raw")
	t.Setenv("EDGELEARN_DATA_DIR", "/tmp/edgelearn-test")

	cfg := Load()
	if cfg.APIURL != "http://tutor.lan:9000" {
		t.Errorf("APIURL = %q, want the override", cfg.APIURL)
	}
	if cfg.SpeechURL != "ws://tutor.lan:9001/stt" {
		t.Errorf("SpeechURL = %q, want the override", cfg.SpeechURL)
	}
	if len(cfg.Recorder) != 10 || cfg.Recorder[0] != "arecord" {
		t.Errorf("Recorder = %v, want the arecord argv", cfg.Recorder)
	}
	if cfg.DataDir != "/tmp/edgelearn-test" {
		t.Errorf("DataDir = %q, want the override", cfg.DataDir)
	}
}

func TestSynthCommand(t *testing.T) {
	cfg := Config{PiperBin: "piper"}
	if cmd := cfg.SynthCommand(); cmd != nil {
		t.Errorf("SynthCommand without a voice = %v, want nil", cmd)
	}

	cfg.PiperVoice = "/models/en_US-amy-medium.onnx"
	cmd := cfg.SynthCommand()
	want := []string{"piper", "--model", "/models/en_US-amy-medium.onnx", "--output-raw"}
	if len(cmd) != len(want) {
		t.Fatalf("SynthCommand = %v, want %v", cmd, want)
	}
	for i := range want {
		if cmd[i] != want[i] {
			t.Errorf("SynthCommand[%d] = %q, want %q", i, cmd[i], want[i])
		}
	}
}

func TestSlogLevel(t *testing.T) {
	levels := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for name, want := range levels {
		cfg := Config{LogLevel: name}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
