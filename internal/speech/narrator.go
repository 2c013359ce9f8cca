package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// PipeNarrator speaks by piping text through a synthesizer subprocess into
// a player subprocess (piper emitting raw PCM into aplay, by default). Both
// run under one cancellable context, so cancellation is a hard stop.
type PipeNarrator struct {
	synth  []string
	player []string
	log    *slog.Logger
	done   chan PlaybackDone

	mu     sync.Mutex
	cancel context.CancelFunc
	lastID int
}

// NewPipeNarrator validates the narration pipeline. A missing voice model
// or binary is ErrUnavailable; the Study Room stays silent instead of
// crashing.
func NewPipeNarrator(synthCmd, playerCmd []string) (*PipeNarrator, error) {
	if len(synthCmd) == 0 {
		return nil, fmt.Errorf("synthesizer not configured: %w", ErrUnavailable)
	}
	if len(playerCmd) == 0 {
		return nil, fmt.Errorf("player not configured: %w", ErrUnavailable)
	}
	for _, c := range [][]string{synthCmd, playerCmd} {
		if _, err := exec.LookPath(c[0]); err != nil {
			return nil, fmt.Errorf("%q not found: %w", c[0], ErrUnavailable)
		}
	}

	return &PipeNarrator{
		synth:  synthCmd,
		player: playerCmd,
		log:    slog.With("component", "narrator"),
		done:   make(chan PlaybackDone, 8),
	}, nil
}

// Done delivers one event per playback, including cancelled ones.
func (n *PipeNarrator) Done() <-chan PlaybackDone {
	return n.done
}

// Speak starts narrating text, cancelling any playback already in progress
// first: no overlapping audio. Returns the playback id its Done event will
// carry, or 0 when there is nothing to say.
func (n *PipeNarrator) Speak(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.lastID++
	id := n.lastID
	n.mu.Unlock()

	go n.run(ctx, id, text)
	return id
}

// Cancel stops the in-progress playback, if any. Safe to call when idle.
func (n *PipeNarrator) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

// run executes synth | player and reports completion exactly once.
func (n *PipeNarrator) run(ctx context.Context, id int, text string) {
	err := n.pipeline(ctx, text)
	cancelled := ctx.Err() != nil
	if err != nil && !cancelled {
		n.log.Warn("narration failed", "error", err)
	}
	n.done <- PlaybackDone{ID: id, Cancelled: cancelled}
}

func (n *PipeNarrator) pipeline(ctx context.Context, text string) error {
	synth := exec.CommandContext(ctx, n.synth[0], n.synth[1:]...)
	synth.Stdin = strings.NewReader(text)
	pcm, err := synth.StdoutPipe()
	if err != nil {
		return fmt.Errorf("synth stdout: %w", err)
	}

	player := exec.CommandContext(ctx, n.player[0], n.player[1:]...)
	player.Stdin = pcm

	if err := synth.Start(); err != nil {
		return fmt.Errorf("start synth: %w", err)
	}
	if err := player.Start(); err != nil {
		synth.Process.Kill()
		synth.Wait()
		return fmt.Errorf("start player: %w", err)
	}

	serr := synth.Wait()
	perr := player.Wait()
	if serr != nil {
		return fmt.Errorf("synth: %w", serr)
	}
	if perr != nil {
		return fmt.Errorf("player: %w", perr)
	}
	return nil
}
