package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:8080"

// DefaultTimeout bounds one round trip. Answers come from a local model, so
// the horizon is generous.
const DefaultTimeout = 60 * time.Second

// Error is a failed round trip. Status is the HTTP status code, or 0 when
// the failure happened before a status was received.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Client talks to the EdgeLearn API. Each call is exactly one round trip;
// the client never retries. All failure paths resolve to an error, never a
// panic, and API-reported failures are returned as *Error.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// New creates a client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     slog.With("component", "backend"),
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ask sends one typed question to the chat endpoint.
func (c *Client) Ask(ctx context.Context, message string) (*Reply, error) {
	return c.ask(ctx, "/api/chat", chatRequest{Message: message})
}

// AskVoice sends one finalized transcription to the voice endpoint.
func (c *Client) AskVoice(ctx context.Context, transcription string) (*Reply, error) {
	return c.ask(ctx, "/api/voice", voiceRequest{Transcription: transcription})
}

func (c *Client) ask(ctx context.Context, path string, payload any) (*Reply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "path", path, "error", err)
		return nil, &Error{Message: "backend unreachable"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: "backend unreachable"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: failureMessage(raw, resp.StatusCode)}
	}

	var env answerEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: "malformed backend response"}
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "backend reported failure"
		}
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}
	if env.Response == "" {
		return nil, &Error{Status: resp.StatusCode, Message: "malformed backend response"}
	}

	return &Reply{Content: env.Response, Images: env.Images}, nil
}

// Upload sends the named files to the ingestion endpoint under the repeated
// "files" field. The API accepts PDFs only and rejects batches without any.
func (c *Client) Upload(ctx context.Context, paths []string) (*IngestReport, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range paths {
		if err := addFilePart(w, p); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("upload failed", "error", err)
		return nil, &Error{Message: "backend unreachable"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: "backend unreachable"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: failureMessage(raw, resp.StatusCode)}
	}

	var env uploadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: "malformed backend response"}
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "backend reported failure"
		}
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}

	return &IngestReport{
		FilesUploaded: env.FilesUploaded,
		TextChunks:    env.TextChunks,
		ImagesIndexed: env.ImagesIndexed,
		Duration:      env.Duration,
	}, nil
}

func addFilePart(w *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// Documents lists the uploaded course materials.
func (c *Client) Documents(ctx context.Context) ([]Document, error) {
	var env documentsEnvelope
	if err := c.get(ctx, "/api/documents", &env); err != nil {
		return nil, err
	}
	return env.Documents, nil
}

// Stats reports the size of the indexed knowledge base.
func (c *Client) Stats(ctx context.Context) (*KnowledgeStats, error) {
	var stats KnowledgeStats
	if err := c.get(ctx, "/api/database-stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health checks that the API is up and answering.
func (c *Client) Health(ctx context.Context) error {
	var env healthEnvelope
	if err := c.get(ctx, "/health", &env); err != nil {
		return err
	}
	if env.Status != "ok" {
		return &Error{Message: fmt.Sprintf("unexpected health status %q", env.Status)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "path", path, "error", err)
		return &Error{Message: "backend unreachable"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Message: "backend unreachable"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: failureMessage(raw, resp.StatusCode)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: "malformed backend response"}
	}
	return nil
}

// failureMessage extracts the API's error message from a failure body,
// falling back to the HTTP status text.
func failureMessage(raw []byte, status int) string {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Detail != "" {
			return env.Detail
		}
	}
	return http.StatusText(status)
}
