// Package config loads EdgeLearn settings from the environment.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	APIURL     string
	SpeechURL  string
	Recorder   []string
	PiperBin   string
	PiperVoice string
	Player     []string
	DataDir    string
	LogLevel   string
}

// Defaults for the audio pipelines: 16 kHz signed 16-bit mono PCM from the
// recorder, 22.05 kHz raw PCM into the player (piper's native output rate).
const (
	defaultRecorder = "sox -q -d -t raw -r 16000 -e signed -b 16 -c 1 -"
	defaultPlayer   = "aplay -q -r 22050 -f S16_LE -t raw -"
)

// Load reads .env (best-effort) and environment variables, applying
// documented defaults. Speech settings left empty disable that capability
// rather than failing.
func Load() Config {
	godotenv.Load()

	return Config{
		APIURL:     getenv("EDGELEARN_API_URL", "http://localhost:8080"),
		SpeechURL:  os.Getenv("EDGELEARN_SPEECH_URL"),
		Recorder:   strings.Fields(getenv("EDGELEARN_RECORDER", defaultRecorder)),
		PiperBin:   getenv("EDGELEARN_PIPER_BIN", "piper"),
		PiperVoice: os.Getenv("EDGELEARN_PIPER_VOICE"),
		Player:     strings.Fields(getenv("EDGELEARN_PLAYER", defaultPlayer)),
		DataDir:    getenv("EDGELEARN_DATA_DIR", defaultDataDir()),
		LogLevel:   getenv("EDGELEARN_LOG_LEVEL", "info"),
	}
}

// SynthCommand returns the narration synthesizer argv, or nil when no voice
// model is configured.
func (c Config) SynthCommand() []string {
	if c.PiperVoice == "" {
		return nil
	}
	return []string{c.PiperBin, "--model", c.PiperVoice, "--output-raw"}
}

// SlogLevel maps the configured level name onto slog's scale.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".edgelearn")
}
