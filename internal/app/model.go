package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/edgelearn/edgelearn/internal/archive"
	"github.com/edgelearn/edgelearn/internal/backend"
	"github.com/edgelearn/edgelearn/internal/config"
	"github.com/edgelearn/edgelearn/internal/session"
	"github.com/edgelearn/edgelearn/internal/speech"
	"github.com/edgelearn/edgelearn/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// View identifies one of the top-level screens.
type View int

const (
	ViewStudy View = iota
	ViewLibrary
	ViewDashboard
)

// Model is the root bubbletea model for the EdgeLearn TUI.
type Model struct {
	// Wiring
	cfg      config.Config
	client   *backend.Client
	ctrl     *session.Controller
	rec      speech.Recognizer // nil when capture is unavailable
	narrator speech.Narrator   // nil when narration is unavailable
	store    *archive.Store    // nil until the archive opens
	log      *slog.Logger

	// Backend state
	healthy       bool
	healthAttempt int
	stats         backend.KnowledgeStats
	statsKnown    bool
	documents     []backend.Document

	// Study room state
	input            textinput.Model
	think            spinner.Model
	interim          string
	speakingID       int
	transcriptScroll int
	transcriptLive   bool

	// Library state
	pathInput  textinput.Model
	uploading  bool
	lastIngest *backend.IngestReport

	// Dashboard state
	arcStats archive.Stats
	arcKnown bool
	recent   []archive.Session

	// Archive bookkeeping
	sessionID   string
	archivedSeq int
	startedAt   time.Time

	// UI state
	view   View
	width  int
	height int

	// Errors
	errorMessage   string
	errorTransient bool

	// Status
	statusText string
}

// New creates the root model. The recognizer and narrator may be nil when
// the corresponding capability is not configured on this machine.
func New(cfg config.Config, client *backend.Client, ctrl *session.Controller,
	rec speech.Recognizer, narrator speech.Narrator) Model {

	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Ask about your course materials"
	input.CharLimit = 2000
	input.Focus()

	pathInput := textinput.New()
	pathInput.Prompt = "+ "
	pathInput.Placeholder = "path or glob of PDFs to upload, e.g. ~/notes/*.pdf"
	pathInput.CharLimit = 500

	think := spinner.New()
	think.Spinner = spinner.Points
	think.Style = ui.SpinnerStyle

	return Model{
		cfg:            cfg,
		client:         client,
		ctrl:           ctrl,
		rec:            rec,
		narrator:       narrator,
		log:            slog.With("component", "app"),
		input:          input,
		pathInput:      pathInput,
		think:          think,
		transcriptLive: true,
		statusText:     "Checking backend...",
		startedAt:      time.Now(),
	}
}

// Init starts the backend probe, opens the archive, and begins watching
// the speech adapters.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.think.Tick,
		checkHealthCmd(m.client),
		openArchiveCmd(m.cfg.DataDir),
	}
	if m.rec != nil {
		cmds = append(cmds, watchCaptureCmd(m.rec))
	}
	if m.narrator != nil {
		cmds = append(cmds, watchPlaybackCmd(m.narrator))
	}
	return tea.Batch(cmds...)
}

// checkHealthCmd probes the backend health endpoint.
func checkHealthCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return HealthCheckedMsg{Err: client.Health(ctx)}
	}
}

// healthRetryCmd schedules another health probe with exponential backoff.
func healthRetryCmd(attempt int) tea.Cmd {
	delay := time.Duration(1<<min(attempt, 4)) * time.Second // 1s, 2s, 4s, 8s, 16s cap
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return HealthRetryMsg{}
	})
}

// askCmd carries one question through the backend and reports the outcome.
func askCmd(client *backend.Client, d session.Dispatch) tea.Cmd {
	return func() tea.Msg {
		var (
			reply *backend.Reply
			err   error
		)
		if d.Origin == session.OriginDictated {
			reply, err = client.AskVoice(context.Background(), d.Text)
		} else {
			reply, err = client.Ask(context.Background(), d.Text)
		}
		if err != nil {
			return TurnResolvedMsg{Dispatch: d, Err: err}
		}
		return TurnResolvedMsg{Dispatch: d, Content: reply.Content, Media: reply.Images}
	}
}

// statsCmd fetches knowledge base statistics.
func statsCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		stats, err := client.Stats(context.Background())
		if err != nil {
			return KnowledgeStatsMsg{Err: err}
		}
		return KnowledgeStatsMsg{Stats: *stats}
	}
}

// documentsCmd fetches the indexed document list.
func documentsCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		docs, err := client.Documents(context.Background())
		if err != nil {
			return DocumentsLoadedMsg{Err: err}
		}
		return DocumentsLoadedMsg{Documents: docs}
	}
}

// uploadCmd expands the path pattern and uploads the matching files.
func uploadCmd(client *backend.Client, pattern string) tea.Cmd {
	return func() tea.Msg {
		paths, err := expandPaths(pattern)
		if err != nil {
			return UploadFinishedMsg{Err: err}
		}
		report, err := client.Upload(context.Background(), paths)
		if err != nil {
			return UploadFinishedMsg{Err: err}
		}
		return UploadFinishedMsg{Report: *report}
	}
}

// watchCaptureCmd waits for the next speech capture event.
func watchCaptureCmd(rec speech.Recognizer) tea.Cmd {
	return func() tea.Msg {
		return CaptureEventMsg{Event: <-rec.Events()}
	}
}

// startCaptureCmd starts the capture session.
func startCaptureCmd(rec speech.Recognizer) tea.Cmd {
	return func() tea.Msg {
		return CaptureStartedMsg{Err: rec.Start()}
	}
}

// watchPlaybackCmd waits for the next narration completion.
func watchPlaybackCmd(narrator speech.Narrator) tea.Cmd {
	return func() tea.Msg {
		return PlaybackDoneMsg{Done: <-narrator.Done()}
	}
}

// openArchiveCmd opens the session archive under the data directory.
func openArchiveCmd(dataDir string) tea.Cmd {
	return func() tea.Msg {
		store, err := archive.Open(archive.PathIn(dataDir))
		if err != nil {
			return ArchiveReadyMsg{Err: err}
		}
		return ArchiveReadyMsg{Store: store}
	}
}

// beginArchiveCmd records the session start plus any turns that landed
// before the archive finished opening.
func beginArchiveCmd(store *archive.Store, sessionID string, startedAt time.Time, turns []session.Turn) tea.Cmd {
	return func() tea.Msg {
		if err := store.CreateSession(sessionID, startedAt); err != nil {
			return ArchivedMsg{Err: err}
		}
		return writeTurns(store, sessionID, 0, turns)
	}
}

// archiveTurnsCmd persists turns starting at the given transcript offset.
func archiveTurnsCmd(store *archive.Store, sessionID string, offset int, turns []session.Turn) tea.Cmd {
	return func() tea.Msg {
		return writeTurns(store, sessionID, offset, turns)
	}
}

func writeTurns(store *archive.Store, sessionID string, offset int, turns []session.Turn) tea.Msg {
	for i, turn := range turns {
		rec := archive.Turn{
			ID:             turn.ID,
			SessionID:      sessionID,
			Role:           string(turn.Role),
			Content:        turn.Content,
			Media:          turn.Media,
			SequenceNumber: offset + i + 1,
			CreatedAt:      turn.CreatedAt,
		}
		if err := store.AppendTurn(rec); err != nil {
			return ArchivedMsg{Err: err}
		}
	}
	return ArchivedMsg{}
}

// archiveStatsCmd loads dashboard statistics from the archive.
func archiveStatsCmd(store *archive.Store) tea.Cmd {
	return func() tea.Msg {
		stats, err := store.Stats()
		if err != nil {
			return ArchiveStatsMsg{Err: err}
		}
		return ArchiveStatsMsg{Stats: stats}
	}
}

// recentSessionsCmd loads the newest archived sessions.
func recentSessionsCmd(store *archive.Store) tea.Cmd {
	return func() tea.Msg {
		sessions, err := store.RecentSessions(8)
		if err != nil {
			return RecentSessionsMsg{}
		}
		return RecentSessionsMsg{Sessions: sessions}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, msg.Width-8)
		m.pathInput.Width = max(20, min(70, msg.Width-12))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.think, cmd = m.think.Update(msg)
		return m, cmd

	case TurnResolvedMsg:
		turn, ok := m.ctrl.Resolve(msg.Dispatch, msg.Content, msg.Media, msg.Err)
		if !ok {
			return m, nil
		}
		if m.transcriptLive {
			m.scrollToBottom()
		}
		cmds := []tea.Cmd{m.syncArchive()}
		if msg.Err == nil && m.ctrl.Narrate() && m.narrator != nil {
			m.speakingID = m.narrator.Speak(turn.Content)
		}
		return m, tea.Batch(cmds...)

	case CaptureStartedMsg:
		if msg.Err != nil {
			if m.ctrl.SetMode(session.ModeText) && m.rec != nil {
				m.rec.Stop()
			}
			m.input.SetValue(m.ctrl.Pending())
			m.input.CursorEnd()
			m.input.Focus()
			m.log.Warn("capture start failed", "error", msg.Err)
			return m.transientError("Couldn't start voice capture: " + msg.Err.Error())
		}
		m.statusText = "Listening"
		return m, nil

	case CaptureEventMsg:
		cmd := m.handleCapture(msg.Event)
		if m.rec == nil {
			return m, cmd
		}
		return m, tea.Batch(cmd, watchCaptureCmd(m.rec))

	case PlaybackDoneMsg:
		if msg.Done.ID == m.speakingID {
			m.speakingID = 0
		}
		if m.narrator == nil {
			return m, nil
		}
		return m, watchPlaybackCmd(m.narrator)

	case HealthCheckedMsg:
		if msg.Err != nil {
			m.healthy = false
			m.statusText = "Backend offline. Retrying..."
			return m, healthRetryCmd(m.healthAttempt)
		}
		m.healthy = true
		m.healthAttempt = 0
		m.statusText = "Ready"
		return m, tea.Batch(statsCmd(m.client), documentsCmd(m.client))

	case HealthRetryMsg:
		m.healthAttempt++
		return m, checkHealthCmd(m.client)

	case KnowledgeStatsMsg:
		if msg.Err == nil {
			m.stats = msg.Stats
			m.statsKnown = true
		}
		return m, nil

	case DocumentsLoadedMsg:
		if msg.Err == nil {
			m.documents = msg.Documents
			sort.Slice(m.documents, func(i, j int) bool {
				return m.documents[i].Name < m.documents[j].Name
			})
		}
		return m, nil

	case UploadFinishedMsg:
		m.uploading = false
		if msg.Err != nil {
			return m.transientError("Upload failed: " + msg.Err.Error())
		}
		m.lastIngest = &msg.Report
		m.pathInput.SetValue("")
		m.statusText = fmt.Sprintf("Ingested %d file(s)", msg.Report.FilesUploaded)
		return m, tea.Batch(documentsCmd(m.client), statsCmd(m.client))

	case ArchiveReadyMsg:
		if msg.Err != nil {
			m.log.Warn("archive unavailable", "error", msg.Err)
			return m.transientError("Study history unavailable: " + msg.Err.Error())
		}
		m.store = msg.Store
		m.sessionID = session.NewID()
		turns := m.ctrl.Transcript().Turns()
		m.archivedSeq = len(turns)
		return m, beginArchiveCmd(m.store, m.sessionID, m.startedAt, turns)

	case ArchivedMsg:
		if msg.Err != nil {
			m.log.Warn("archive write failed", "error", msg.Err)
			return m.transientError("Couldn't save to study history")
		}
		return m, nil

	case ArchiveStatsMsg:
		if msg.Err == nil {
			m.arcStats = msg.Stats
			m.arcKnown = true
		}
		return m, nil

	case RecentSessionsMsg:
		m.recent = msg.Sessions
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	// Cursor blink and other component messages.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.pathInput, cmd = m.pathInput.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleCapture folds one capture event into the session. Events that
// arrive after the user has left voice mode belong to a stopped capture
// session and are dropped, whatever their kind.
func (m *Model) handleCapture(ev speech.CaptureEvent) tea.Cmd {
	if m.ctrl.Mode() != session.ModeVoice {
		return nil
	}
	switch ev.Kind {
	case speech.KindInterim:
		m.interim = ev.Text

	case speech.KindFinal:
		m.interim = ""
		pending := m.ctrl.AppendDictation(ev.Text)
		d, ok := m.ctrl.Submit(pending, session.OriginDictated)
		if !ok {
			// A question is already in flight; the utterance stays
			// accumulated for the next attempt.
			return nil
		}
		m.transcriptLive = true
		m.scrollToBottom()
		return tea.Batch(askCmd(m.client, d), m.syncArchive())

	case speech.KindError:
		m.interim = ""
		if m.ctrl.SetMode(session.ModeText) && m.rec != nil {
			m.rec.Stop()
		}
		m.input.SetValue(m.ctrl.Pending())
		m.input.CursorEnd()
		m.input.Focus()
		m.errorMessage = "Voice capture error: " + ev.Err.Error()
		m.errorTransient = true
		return clearTransientErrorCmd()
	}
	return nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCtrlC:
		return m.quit()

	case KeyTab:
		m.view = (m.view + 1) % 3
		switch m.view {
		case ViewStudy:
			m.pathInput.Blur()
			if m.ctrl.Mode() == session.ModeText {
				m.input.Focus()
			}
			return m, nil
		case ViewLibrary:
			m.input.Blur()
			m.pathInput.Focus()
			return m, tea.Batch(documentsCmd(m.client), statsCmd(m.client))
		default:
			m.input.Blur()
			m.pathInput.Blur()
			if m.store == nil {
				return m, nil
			}
			return m, tea.Batch(archiveStatsCmd(m.store), recentSessionsCmd(m.store))
		}
	}

	switch m.view {
	case ViewStudy:
		return m.handleStudyKey(msg)
	case ViewLibrary:
		return m.handleLibraryKey(msg)
	default:
		return m.handleDashboardKey(msg)
	}
}

func (m Model) handleStudyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEnter:
		return m.submitQuestion()

	case KeyVoiceToggle:
		return m.toggleVoice()

	case KeySpeakToggle:
		return m.toggleNarrate()

	case KeyEsc:
		if m.ctrl.ActiveMedia() != "" {
			m.ctrl.ClearMedia()
			return m, nil
		}
		if m.ctrl.Mode() == session.ModeVoice {
			return m, nil
		}
		if m.input.Focused() {
			m.input.Blur()
		} else {
			m.input.Focus()
		}
		return m, nil

	case KeyUp:
		m.transcriptLive = false
		if m.transcriptScroll > 0 {
			m.transcriptScroll--
		}
		return m, nil

	case KeyDown:
		maxScroll := m.maxTranscriptScroll()
		m.transcriptScroll++
		if m.transcriptScroll >= maxScroll {
			m.transcriptScroll = maxScroll
			m.transcriptLive = true
		}
		return m, nil
	}

	if !m.input.Focused() {
		key := msg.String()
		switch key {
		case KeyQuit, KeyQuitUpper:
			return m.quit()
		}
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 9 {
			if turn, ok := m.lastMediaTurn(); ok && n <= len(turn.Media) {
				m.ctrl.SelectMedia(turn.Media[n-1])
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEnter:
		return m.startUpload()

	case KeyRefresh:
		return m, tea.Batch(documentsCmd(m.client), statsCmd(m.client))

	case KeyEsc:
		if m.pathInput.Focused() {
			m.pathInput.Blur()
		} else {
			m.pathInput.Focus()
		}
		return m, nil
	}

	if !m.pathInput.Focused() {
		switch msg.String() {
		case KeyQuit, KeyQuitUpper:
			return m.quit()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper:
		return m.quit()

	case KeyRefresh:
		if m.store == nil {
			return m, nil
		}
		return m, tea.Batch(archiveStatsCmd(m.store), recentSessionsCmd(m.store))
	}
	return m, nil
}

// submitQuestion dispatches the typed draft or the accumulated dictation.
func (m Model) submitQuestion() (tea.Model, tea.Cmd) {
	var text string
	origin := session.OriginTyped
	if m.ctrl.Mode() == session.ModeVoice {
		text = m.ctrl.Pending()
		origin = session.OriginDictated
	} else {
		text = m.input.Value()
	}

	d, ok := m.ctrl.Submit(text, origin)
	if !ok {
		return m, nil
	}
	if origin == session.OriginTyped {
		m.input.SetValue("")
	}
	m.transcriptLive = true
	m.scrollToBottom()
	return m, tea.Batch(askCmd(m.client, d), m.syncArchive())
}

// toggleVoice switches between typed and dictated input.
func (m Model) toggleVoice() (tea.Model, tea.Cmd) {
	if m.ctrl.Mode() == session.ModeVoice {
		if m.ctrl.SetMode(session.ModeText) && m.rec != nil {
			m.rec.Stop()
		}
		m.interim = ""
		m.input.SetValue(m.ctrl.Pending())
		m.input.CursorEnd()
		m.input.Focus()
		m.statusText = "Ready"
		return m, nil
	}

	if m.rec == nil {
		return m.transientError("Voice capture isn't available. Set EDGELEARN_SPEECH_URL and install a recorder.")
	}
	m.ctrl.SetPending(m.input.Value())
	m.ctrl.SetMode(session.ModeVoice)
	m.input.Blur()
	m.statusText = "Starting capture..."
	return m, startCaptureCmd(m.rec)
}

// toggleNarrate switches spoken answers on or off.
func (m Model) toggleNarrate() (tea.Model, tea.Cmd) {
	if !m.ctrl.Narrate() && m.narrator == nil {
		return m.transientError("Narration isn't available. Set EDGELEARN_PIPER_VOICE to a piper voice model.")
	}
	if m.ctrl.SetNarrate(!m.ctrl.Narrate()) && m.narrator != nil {
		m.narrator.Cancel()
		m.speakingID = 0
	}
	return m, nil
}

// startUpload begins ingesting the files named by the path input.
func (m Model) startUpload() (tea.Model, tea.Cmd) {
	if m.uploading {
		return m, nil
	}
	pattern := strings.TrimSpace(m.pathInput.Value())
	if pattern == "" {
		return m, nil
	}
	m.uploading = true
	m.statusText = "Uploading..."
	return m, uploadCmd(m.client, pattern)
}

// quit tears down the session and leaves the program.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.ctrl.Close()
	if m.rec != nil {
		m.rec.Stop()
	}
	if m.narrator != nil {
		m.narrator.Cancel()
	}
	if m.store != nil {
		if err := m.store.EndSession(m.sessionID, time.Now()); err != nil {
			m.log.Warn("end session", "error", err)
		}
		m.store.Close()
	}
	return m, tea.Quit
}

func (m Model) transientError(text string) (tea.Model, tea.Cmd) {
	m.errorMessage = text
	m.errorTransient = true
	return m, clearTransientErrorCmd()
}

// syncArchive persists transcript turns appended since the last write.
func (m *Model) syncArchive() tea.Cmd {
	if m.store == nil {
		return nil
	}
	turns := m.ctrl.Transcript().Turns()
	if m.archivedSeq >= len(turns) {
		return nil
	}
	offset := m.archivedSeq
	pending := turns[offset:]
	m.archivedSeq = len(turns)
	return archiveTurnsCmd(m.store, m.sessionID, offset, pending)
}

// lastMediaTurn finds the newest assistant turn carrying media references.
func (m Model) lastMediaTurn() (session.Turn, bool) {
	turns := m.ctrl.Transcript().Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == session.RoleAssistant && len(turns[i].Media) > 0 {
			return turns[i], true
		}
	}
	return session.Turn{}, false
}

func (m *Model) scrollToBottom() {
	m.transcriptScroll = m.maxTranscriptScroll()
}

func (m Model) maxTranscriptScroll() int {
	total := len(m.transcriptLines())
	visible := m.transcriptVisibleLines() - 1 // header row
	if total <= visible {
		return 0
	}
	return total - visible
}

func (m Model) transcriptVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + divider(1) + divider(1) + input(1) +
	// error(1) + footer(1) + padding
	reserved := 8
	if m.ctrl.ActiveMedia() != "" {
		reserved++
	}
	return max(5, m.height-reserved)
}

// expandPaths turns a space-separated list of paths or globs into concrete
// files. A leading ~ refers to the user's home directory.
func expandPaths(pattern string) ([]string, error) {
	var paths []string
	for _, field := range strings.Fields(pattern) {
		if strings.HasPrefix(field, "~/") {
			home, err := os.UserHomeDir()
			if err == nil {
				field = filepath.Join(home, field[2:])
			}
		}
		matches, err := filepath.Glob(field)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", field, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", field)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("nothing to upload")
	}
	return paths, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	// Header
	sections = append(sections, m.renderHeader())

	// Status bar
	sections = append(sections, m.renderStatusBar())

	// Divider
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	// Main content
	switch m.view {
	case ViewStudy:
		sections = append(sections, m.renderStudy())
	case ViewLibrary:
		sections = append(sections, m.renderLibrary(m.transcriptVisibleLines()+1))
	default:
		sections = append(sections, m.renderDashboard(m.transcriptVisibleLines()+1))
	}

	// Divider
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	// Error bar
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	// Footer
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("EDGELEARN")

	tab := func(label string, v View) string {
		if m.view == v {
			return ui.PanelTitleActiveStyle.Render(label)
		}
		return ui.PanelTitleStyle.Render(label)
	}

	tabs := tab("Study", ViewStudy) + ui.DimStyle.Render("  ") +
		tab("Library", ViewLibrary) + ui.DimStyle.Render("  ") +
		tab("Dashboard", ViewDashboard)

	host := ui.HeaderStyle.Render(" — " + m.client.BaseURL())

	return title + "  " + tabs + host
}

func (m Model) renderStatusBar() string {
	// Input mode indicator
	var dot string
	if m.ctrl.Mode() == session.ModeVoice {
		dot = ui.RecordingDotStyle.Render("● VOICE")
	} else {
		dot = ui.IdleDotStyle.Render("○ TYPE")
	}

	var narrate string
	if m.ctrl.Narrate() {
		narrate = "  " + ui.NarrateBadgeStyle.Render("♪ SPEAK")
	}

	var speaking string
	if m.speakingID != 0 {
		speaking = "  " + ui.SpinnerStyle.Render("⟳ narrating")
	}

	var thinking string
	if m.ctrl.InFlight() {
		thinking = "  " + ui.SpinnerStyle.Render(m.think.View()+" thinking")
	}

	var offline string
	if !m.healthy {
		offline = "  " + ui.ErrorTextStyle.Render("backend offline")
	}

	var status string
	if m.statusText != "" {
		status = "  " + ui.StatusStyle.Render(m.statusText)
	}

	return dot + narrate + speaking + thinking + offline + status
}

// transcriptLines builds the styled display lines for the study transcript,
// wrapping turn content and appending numbered media references.
func (m Model) transcriptLines() []string {
	// Prefix: "[15:04:05] Tutor " = ~17 chars visible
	prefixWidth := 17
	textWidth := max(10, m.width-prefixWidth-4)
	indentStr := strings.Repeat(" ", prefixWidth)

	var lines []string
	for _, turn := range m.ctrl.Transcript().Turns() {
		ts := ui.TimestampStyle.Render(turn.CreatedAt.Format("[15:04:05]"))
		var label string
		if turn.Role == session.RoleUser {
			label = ui.UserLabelStyle.Render("You   ")
		} else {
			label = ui.TutorLabelStyle.Render("Tutor ")
		}
		wrapped := wrapText(turn.Content, textWidth)
		lines = append(lines, ts+" "+label+wrapped[0])
		for _, wl := range wrapped[1:] {
			lines = append(lines, indentStr+wl)
		}
		for i, url := range turn.Media {
			ref := fmt.Sprintf("[%d] %s", i+1, mediaLabel(url))
			lines = append(lines, indentStr+ui.MediaRefStyle.Render(ref))
		}
	}

	// In-progress dictation
	if m.interim != "" {
		ts := ui.TimestampStyle.Render(time.Now().Format("[15:04:05]"))
		label := ui.PartialTextStyle.Render("You   ")
		wrapped := wrapText(m.interim+"▌", textWidth)
		lines = append(lines, ts+" "+label+ui.PartialTextStyle.Render(wrapped[0]))
		for _, wl := range wrapped[1:] {
			lines = append(lines, indentStr+ui.PartialTextStyle.Render(wl))
		}
	}

	if m.ctrl.InFlight() {
		lines = append(lines, indentStr+m.think.View()+ui.DimStyle.Render(" thinking..."))
	}

	return lines
}

// mediaLabel shortens a media URL to its file name for display.
func mediaLabel(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func (m Model) renderStudy() string {
	height := m.transcriptVisibleLines()

	var badge string
	if m.transcriptLive {
		badge = ui.LiveBadgeStyle.Render(" LIVE")
	} else {
		badge = ui.ScrollBadgeStyle.Render(" SCROLL")
	}
	header := ui.PanelTitleStyle.Render("STUDY ROOM") + badge

	var lines []string
	lines = append(lines, header)

	contentHeight := height - 1 // subtract header line
	displayLines := m.transcriptLines()

	// Apply scroll
	start := 0
	if m.transcriptLive {
		if len(displayLines) > contentHeight {
			start = len(displayLines) - contentHeight
		}
	} else {
		start = m.transcriptScroll
	}
	if start < 0 {
		start = 0
	}

	end := start + contentHeight
	if end > len(displayLines) {
		end = len(displayLines)
	}

	for i := start; i < end; i++ {
		lines = append(lines, "  "+displayLines[i])
	}

	// Pad to height
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	if media := m.ctrl.ActiveMedia(); media != "" {
		bar := ui.SelectedStyle.Render("▣ "+media) + ui.DimStyle.Render("  esc to close")
		lines = append(lines, truncateToWidth(bar, m.width))
	}

	lines = append(lines, m.renderInputRow())

	return strings.Join(lines, "\n")
}

func (m Model) renderInputRow() string {
	if m.ctrl.Mode() == session.ModeVoice {
		row := ui.RecordingDotStyle.Render("● LISTENING")
		if pending := m.ctrl.Pending(); pending != "" {
			row += "  " + truncateToWidth(pending, max(10, m.width-24))
			row += ui.DimStyle.Render("  enter to ask")
		}
		return row
	}
	return m.input.View()
}

func (m Model) renderLibrary(height int) string {
	var lines []string
	lines = append(lines, ui.PanelTitleActiveStyle.Render("LIBRARY"))
	lines = append(lines, "")

	if m.statsKnown {
		lines = append(lines, fmt.Sprintf("  %d text passages, %d figures indexed",
			m.stats.TextChunks, m.stats.ImagesIndexed))
		if m.stats.PDFDirectory != "" {
			lines = append(lines, ui.DimStyle.Render("  source directory: "+m.stats.PDFDirectory))
		}
	} else {
		lines = append(lines, ui.DimStyle.Render("  Loading knowledge base..."))
	}
	lines = append(lines, "")

	lines = append(lines, ui.PanelTitleStyle.Render(fmt.Sprintf("DOCUMENTS (%d)", len(m.documents))))
	if len(m.documents) == 0 {
		lines = append(lines, ui.DimStyle.Render("  No documents yet. Upload PDFs below."))
	} else {
		// Leave room for the upload rows beneath the list.
		avail := max(1, height-len(lines)-4)
		for i, doc := range m.documents {
			if i >= avail {
				lines = append(lines, ui.DimStyle.Render(fmt.Sprintf("  ... and %d more", len(m.documents)-i)))
				break
			}
			lines = append(lines, truncateToWidth("  • "+doc.Name, max(10, m.width-4)))
		}
	}
	lines = append(lines, "")

	if m.uploading {
		lines = append(lines, m.think.View()+ui.DimStyle.Render(" Uploading..."))
	} else {
		lines = append(lines, m.pathInput.View())
	}
	hint := "  enter to upload, ctrl+r to refresh"
	if m.lastIngest != nil {
		hint += fmt.Sprintf("  |  last ingest: %d files, %d passages, %d figures in %.1fs",
			m.lastIngest.FilesUploaded, m.lastIngest.TextChunks,
			m.lastIngest.ImagesIndexed, m.lastIngest.Duration)
	}
	lines = append(lines, ui.DimStyle.Render(truncateToWidth(hint, m.width)))

	// Pad to height
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderDashboard(height int) string {
	var lines []string
	lines = append(lines, ui.PanelTitleActiveStyle.Render("DASHBOARD"))
	lines = append(lines, "")

	switch {
	case m.store == nil:
		lines = append(lines, ui.DimStyle.Render("  Study history unavailable."))
	case !m.arcKnown:
		lines = append(lines, ui.DimStyle.Render("  Loading study history..."))
	default:
		stat := func(label string, value string) string {
			return "  " + padRight(ui.DimStyle.Render(label), 18) + value
		}
		lines = append(lines, stat("Sessions", strconv.Itoa(m.arcStats.Sessions)))
		lines = append(lines, stat("Questions asked", strconv.Itoa(m.arcStats.Questions)))
		lines = append(lines, stat("Turns", strconv.Itoa(m.arcStats.Turns)))
		lines = append(lines, stat("Study days", strconv.Itoa(m.arcStats.StudyDays)))
		lines = append(lines, stat("Streak", fmt.Sprintf("%d day(s)", m.arcStats.StreakDays)))
		if m.arcStats.LastStudiedAt != nil {
			lines = append(lines, stat("Last studied", m.arcStats.LastStudiedAt.Format("Mon Jan 2 15:04")))
		}
		lines = append(lines, "")
		lines = append(lines, ui.PanelTitleStyle.Render("RECENT SESSIONS"))
		if len(m.recent) == 0 {
			lines = append(lines, ui.DimStyle.Render("  None yet. Ask something in the study room."))
		} else {
			for _, s := range m.recent {
				ts := ui.TimestampStyle.Render(s.StartedAt.Format("[Jan 02 15:04]"))
				line := "  " + ts + fmt.Sprintf(" %d turns", s.TurnCount)
				if s.EndedAt == nil {
					line += ui.LiveBadgeStyle.Render(" LIVE")
				}
				lines = append(lines, line)
			}
		}
	}

	// Pad to height
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	key := func(k, desc string) string {
		return ui.FooterKeyStyle.Render(k) + ui.FooterDescStyle.Render(" "+desc)
	}

	var parts []string
	switch m.view {
	case ViewStudy:
		parts = append(parts, key("Enter", "Ask"))
		if m.ctrl.Mode() == session.ModeVoice {
			parts = append(parts, key("Ctrl+V", "Type"))
		} else {
			parts = append(parts, key("Ctrl+V", "Voice"))
		}
		parts = append(parts, key("Ctrl+S", "Narrate"))
		if _, ok := m.lastMediaTurn(); ok {
			parts = append(parts, key("1-9", "Figure"))
		}
		parts = append(parts, key("↑↓", "Scroll"))
	case ViewLibrary:
		parts = append(parts, key("Enter", "Upload"))
		parts = append(parts, key("Ctrl+R", "Refresh"))
	default:
		parts = append(parts, key("Ctrl+R", "Refresh"))
	}

	parts = append(parts, key("Tab", "View"))
	parts = append(parts, key("q", "Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	// Simple truncation for non-styled strings
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
