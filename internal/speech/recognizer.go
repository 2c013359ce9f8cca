package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	sampleRate  = 16000
	pcmEncoding = "pcm_s16le"
	chunkBytes  = 3200 // 100ms of 16kHz mono s16le
)

// startFrame opens a recognition session on the service socket.
type startFrame struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
}

// resultFrame is one JSON message from the recognition service.
type resultFrame struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// StreamRecognizer captures microphone audio with a recorder subprocess and
// streams it to the recognition service over a WebSocket: one JSON start
// frame, then binary PCM frames out, JSON partial/final/error frames back.
type StreamRecognizer struct {
	url      string
	recorder []string
	log      *slog.Logger
	events   chan CaptureEvent

	mu     sync.Mutex
	cancel context.CancelFunc
	conn   *websocket.Conn
}

// NewStreamRecognizer validates the capture configuration. A missing
// service URL or recorder binary is ErrUnavailable, not a crash; the caller
// falls back to text-only input.
func NewStreamRecognizer(serviceURL string, recorderCmd []string) (*StreamRecognizer, error) {
	if serviceURL == "" {
		return nil, fmt.Errorf("speech service URL not configured: %w", ErrUnavailable)
	}
	if len(recorderCmd) == 0 {
		return nil, fmt.Errorf("recorder command not configured: %w", ErrUnavailable)
	}
	if _, err := exec.LookPath(recorderCmd[0]); err != nil {
		return nil, fmt.Errorf("recorder %q not found: %w", recorderCmd[0], ErrUnavailable)
	}

	return &StreamRecognizer{
		url:      serviceURL,
		recorder: recorderCmd,
		log:      slog.With("component", "capture"),
		events:   make(chan CaptureEvent, 64),
	}, nil
}

// Events delivers interim and finalized results. The channel is shared
// across capture sessions and never closed.
func (r *StreamRecognizer) Events() <-chan CaptureEvent {
	return r.events
}

// Start begins one capture session: dial the service, send the start frame,
// spawn the recorder, and pump audio until Stop. A no-op when a session is
// already active.
func (r *StreamRecognizer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(r.url, nil)
	if err != nil {
		return fmt.Errorf("dial speech service: %w", err)
	}
	if err := conn.WriteJSON(startFrame{Type: "start", SampleRate: sampleRate, Encoding: pcmEncoding}); err != nil {
		conn.Close()
		return fmt.Errorf("send start frame: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, r.recorder[0], r.recorder[1:]...)
	pcm, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		conn.Close()
		return fmt.Errorf("recorder stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		conn.Close()
		return fmt.Errorf("start recorder %q: %w", r.recorder[0], err)
	}

	r.cancel = cancel
	r.conn = conn
	r.log.Info("capture started", "service", r.url)

	go r.pump(conn, pcm, cmd)
	go r.listen(ctx, conn)
	return nil
}

// Stop ends the active capture session. Any interim text the recognizer
// still held is discarded with the connection. Safe to call when idle.
func (r *StreamRecognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.conn.Close()
	r.cancel = nil
	r.conn = nil
	r.log.Info("capture stopped")
}

// pump copies recorder PCM to the socket until the recorder exits or the
// socket goes away.
func (r *StreamRecognizer) pump(conn *websocket.Conn, pcm io.ReadCloser, cmd *exec.Cmd) {
	defer cmd.Wait()

	buf := make([]byte, chunkBytes)
	for {
		n, err := pcm.Read(buf)
		if n > 0 {
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// listen decodes result frames into capture events until the socket closes.
// Events are dropped once the session is cancelled, so a stopped session
// cannot leak stale results into the next one.
func (r *StreamRecognizer) listen(ctx context.Context, conn *websocket.Conn) {
	for {
		var frame resultFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() == nil {
				r.emit(ctx, CaptureEvent{Kind: KindError, Err: fmt.Errorf("speech service: %w", err)})
			}
			return
		}

		switch frame.Type {
		case "partial":
			r.emit(ctx, CaptureEvent{Kind: KindInterim, Text: frame.Text})
		case "final":
			if frame.Text != "" {
				r.emit(ctx, CaptureEvent{Kind: KindFinal, Text: frame.Text})
			}
		case "error":
			r.emit(ctx, CaptureEvent{Kind: KindError, Err: fmt.Errorf("speech service: %s", frame.Message)})
		}
	}
}

func (r *StreamRecognizer) emit(ctx context.Context, ev CaptureEvent) {
	select {
	case r.events <- ev:
	case <-ctx.Done():
	}
}
