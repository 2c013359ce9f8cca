package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// newTestClient points a Client at a mock API handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestAskSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s, want /api/chat", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["message"] != "What is entropy?" {
			t.Errorf("message = %q", req["message"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"response": "Entropy measures disorder.",
			"images":   []string{"physics/page_12/fig3.png"},
		})
	})

	reply, err := client.Ask(context.Background(), "What is entropy?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if reply.Content != "Entropy measures disorder." {
		t.Errorf("content = %q", reply.Content)
	}
	if len(reply.Images) != 1 || reply.Images[0] != "physics/page_12/fig3.png" {
		t.Errorf("images = %v", reply.Images)
	}
}

func TestAskServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   "model exploded",
			"success": false,
		})
	})

	_, err := client.Ask(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", apiErr.Status)
	}
	if apiErr.Message != "model exploded" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAskReportedFailure(t *testing.T) {
	// success:false with a 200 status is still a failure outcome.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "no documents indexed",
		})
	})

	_, err := client.Ask(context.Background(), "hello")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Message != "no documents indexed" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAskDetailFailure(t *testing.T) {
	// Framework rejections carry "detail" instead of "error".
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Service not initialized"})
	})

	_, err := client.Ask(context.Background(), "hello")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Message != "Service not initialized" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAskMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not json"))
	})

	_, err := client.Ask(context.Background(), "hello")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Message != "malformed backend response" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAskMissingResponseField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	_, err := client.Ask(context.Background(), "hello")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Message != "malformed backend response" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAskUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url)
	_, err := client.Ask(context.Background(), "hello")

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Status != 0 {
		t.Errorf("status = %d, want 0", apiErr.Status)
	}
	if apiErr.Message != "backend unreachable" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAskVoice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/voice" {
			t.Errorf("path = %s, want /api/voice", r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["transcription"] != "what is osmosis" {
			t.Errorf("transcription = %q", req["transcription"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":       true,
			"transcription": "what is osmosis",
			"response":      "Osmosis is diffusion across a membrane.",
			"images":        []string{},
		})
	})

	reply, err := client.AskVoice(context.Background(), "what is osmosis")
	if err != nil {
		t.Fatalf("AskVoice: %v", err)
	}
	if reply.Content != "Osmosis is diffusion across a membrane." {
		t.Errorf("content = %q", reply.Content)
	}
	if len(reply.Images) != 0 {
		t.Errorf("images = %v, want none", reply.Images)
	}
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "algebra.pdf")
	p2 := filepath.Join(dir, "physics.pdf")
	os.WriteFile(p1, []byte("%PDF-1.4 algebra"), 0o644)
	os.WriteFile(p2, []byte("%PDF-1.4 physics"), 0o644)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload" {
			t.Errorf("path = %s, want /api/upload", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 {
			t.Fatalf("got %d files, want 2", len(files))
		}
		if files[0].Filename != "algebra.pdf" {
			t.Errorf("files[0] = %q", files[0].Filename)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"files_uploaded": 2,
			"text_chunks":    87,
			"images_indexed": 12,
			"duration":       4.2,
		})
	})

	report, err := client.Upload(context.Background(), []string{p1, p2})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if report.FilesUploaded != 2 {
		t.Errorf("files uploaded = %d, want 2", report.FilesUploaded)
	}
	if report.TextChunks != 87 {
		t.Errorf("text chunks = %d, want 87", report.TextChunks)
	}
	if report.ImagesIndexed != 12 {
		t.Errorf("images indexed = %d, want 12", report.ImagesIndexed)
	}
}

func TestUploadRejected(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt")
	os.WriteFile(p, []byte("plain text"), 0o644)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Only PDF files are supported"})
	})

	_, err := client.Upload(context.Background(), []string{p})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
	if apiErr.Message != "Only PDF files are supported" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestUploadMissingFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	})

	_, err := client.Upload(context.Background(), []string{"/nonexistent/file.pdf"})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDocuments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"documents": []map[string]string{
				{"name": "algebra101.pdf", "path": "/data/pdfs/algebra101.pdf"},
				{"name": "physics.pdf", "path": "/data/pdfs/physics.pdf"},
			},
			"count": 2,
		})
	})

	docs, err := client.Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].Name != "algebra101.pdf" {
		t.Errorf("docs[0].Name = %q", docs[0].Name)
	}
}

func TestStats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"text_collection_count":  420,
			"image_collection_count": 37,
			"db_path":                "./image_db",
			"pdf_directory":          "/data/pdfs",
		})
	})

	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TextChunks != 420 {
		t.Errorf("text chunks = %d, want 420", stats.TextChunks)
	}
	if stats.ImagesIndexed != 37 {
		t.Errorf("images = %d, want 37", stats.ImagesIndexed)
	}
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s, want /health", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "EdgeLearn API"})
	})

	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func TestHealthDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url)
	if err := client.Health(context.Background()); err == nil {
		t.Error("expected error when backend is down")
	}
}
