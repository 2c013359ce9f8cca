// Package backend is the HTTP client for the EdgeLearn API: one round trip
// per call, typed failure outcomes, no automatic retries.
package backend

// chatRequest is the body for POST /api/chat.
type chatRequest struct {
	Message string `json:"message"`
}

// voiceRequest is the body for POST /api/voice.
type voiceRequest struct {
	Transcription string `json:"transcription"`
}

// answerEnvelope is the response shape shared by the chat and voice
// endpoints. The voice endpoint additionally echoes the transcription.
type answerEnvelope struct {
	Success       bool     `json:"success"`
	Response      string   `json:"response"`
	Images        []string `json:"images"`
	Transcription string   `json:"transcription,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// errorEnvelope covers both failure body shapes the API produces: handler
// errors carry "error", framework rejections carry "detail".
type errorEnvelope struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Reply is a successful answer from the tutor. Images are raw backend
// references; callers resolve them before display.
type Reply struct {
	Content string
	Images  []string
}

type uploadEnvelope struct {
	Success       bool    `json:"success"`
	FilesUploaded int     `json:"files_uploaded"`
	TextChunks    int     `json:"text_chunks"`
	ImagesIndexed int     `json:"images_indexed"`
	Duration      float64 `json:"duration"`
	Error         string  `json:"error,omitempty"`
}

// IngestReport summarizes one upload round trip.
type IngestReport struct {
	FilesUploaded int
	TextChunks    int
	ImagesIndexed int
	Duration      float64
}

// Document is one uploaded course material.
type Document struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type documentsEnvelope struct {
	Documents []Document `json:"documents"`
	Count     int        `json:"count"`
}

// KnowledgeStats describes the indexed knowledge base.
type KnowledgeStats struct {
	TextChunks    int    `json:"text_collection_count"`
	ImagesIndexed int    `json:"image_collection_count"`
	DBPath        string `json:"db_path"`
	PDFDirectory  string `json:"pdf_directory"`
}

type healthEnvelope struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
