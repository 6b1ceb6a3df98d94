// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/fluent/internal/drill"
	"github.com/verte-zerg/fluent/internal/model"
	"github.com/verte-zerg/fluent/internal/speech"
	statsPkg "github.com/verte-zerg/fluent/internal/stats"
	"github.com/verte-zerg/fluent/internal/store"
	"github.com/verte-zerg/fluent/internal/timer"
)

const defaultTick = 200 * time.Millisecond

// Speaker synthesizes audio for a sentence.
type Speaker interface {
	Synthesize(ctx context.Context, req speech.Request) (speech.Result, error)
}

// Options configures the practice UI. Zero values are usable.
type Options struct {
	Speaker  Speaker
	AudioDir string
	Logger   *zap.Logger
	Clock    func() time.Time
}

type tickMsg time.Time

type speechDoneMsg struct {
	path string
	err  error
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	config   model.Config
	store    *store.Store
	gen      *drill.Generator
	watch    *timer.Stopwatch
	guard    timer.Guard
	speaker  Speaker
	audioDir string
	logger   *zap.Logger
	copyText func(string) error

	items  []model.SelectedSentence
	cursor int
	stats  model.Statistics

	confirmQuit bool
	speaking    bool
	status      string
	statusErr   bool

	width  int
	height int
}

var (
	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	pausedClockStyle = clockStyle.BorderForeground(lipgloss.Color("#4A4A4A"))
	stateStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	translationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB77E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	modalStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A")).
				Padding(1, 2)
)

// NewModel constructs a practice TUI model.
func NewModel(cfg model.Config, st *store.Store, gen *drill.Generator, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	watch := timer.New(opts.Clock)
	m := &Model{
		config:   cfg,
		store:    st,
		gen:      gen,
		watch:    watch,
		guard:    timer.Guard{Watch: watch},
		speaker:  opts.Speaker,
		audioDir: opts.AudioDir,
		logger:   logger,
		copyText: clipboard.WriteAll,
	}
	m.reorder()
	m.loadFooterStats()
	st.OnChange(m.syncFromStore)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tickCmd()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m, m.tickCmd()
	case speechDoneMsg:
		m.speaking = false
		if msg.err != nil {
			m.setError("Speech failed: %v", msg.err)
			return m, nil
		}
		m.setStatus("Audio saved to %s", msg.path)
		return m, nil
	case tea.KeyMsg:
		if m.confirmQuit {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "ctrl+c":
		m.watch.Reset()
		return m, tea.Quit
	case "n", "N", "esc":
		m.confirmQuit = false
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		// The prompt answers asynchronously, so the guard only reports
		// whether there is anything to lose.
		if m.guard.ConfirmDiscard(func() bool { return false }) {
			return m, tea.Quit
		}
		m.confirmQuit = true
		return m, nil
	case " ":
		m.watch.Toggle()
		m.status = ""
	case "s":
		m.stopSession()
	case "r":
		m.watch.Reset()
		m.setStatus("Timer reset")
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "+", "enter":
		m.incrementCurrent()
	case "o":
		m.reorder()
		m.setStatus("Sentences reshuffled")
	case "c":
		m.copyCurrent()
	case "p":
		return m, m.speakCurrent()
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.confirmQuit {
		prompt := fmt.Sprintf("Discard %s of unsaved practice?\n\n(y) discard and quit   (n) keep practising",
			timer.FormatClock(m.watch.Elapsed()))
		body := modalStyle.Render(prompt)
		if m.width == 0 || m.height == 0 {
			return body
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}

	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 20 {
		contentWidth = max(m.width, 20)
	}
	sections := []string{
		m.renderClock(),
		m.renderCurrent(contentWidth),
		m.renderList(contentWidth),
	}
	if line := m.renderStatus(); line != "" {
		sections = append(sections, line)
	}
	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) tickCmd() tea.Cmd {
	interval := defaultTick
	if m.config.TickMs > 0 {
		interval = time.Duration(m.config.TickMs) * time.Millisecond
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) renderClock() string {
	state := "stopped"
	style := pausedClockStyle
	switch {
	case m.watch.Running():
		state = "running"
		style = clockStyle
	case m.watch.Uncommitted():
		state = "paused"
	}
	clock := style.Render(timer.FormatClock(m.watch.Elapsed()))
	return lipgloss.JoinVertical(lipgloss.Center, clock, stateStyle.Render(state), "")
}

func (m *Model) renderCurrent(width int) string {
	item, ok := m.current()
	if !ok {
		return pendingStyle.Render("No sentences selected. Use `fluent sentence select` to pick some.")
	}
	lines := make([]string, 0, 4)
	for _, line := range wrapText(item.Sentence.Text, width) {
		lines = append(lines, currentStyle.Render(line))
	}
	for _, line := range wrapText(item.Sentence.Translation, width) {
		lines = append(lines, translationStyle.Render(line))
	}
	lines = append(lines, stateStyle.Render(fmt.Sprintf("%s · practised %d times", item.TopicName, item.Sentence.PracticeCount)), "")
	return strings.Join(lines, "\n")
}

func (m *Model) renderList(width int) string {
	if len(m.items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.items))
	for i, item := range m.items {
		prefix := "  "
		style := pendingStyle
		if i == m.cursor {
			prefix = "> "
			style = currentStyle
		}
		line := fmt.Sprintf("%s%4d  %s", prefix, item.Sentence.PracticeCount, item.Sentence.Text)
		lines = append(lines, style.Render(truncate(line, width)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderStatus() string {
	switch {
	case m.speaking:
		return stateStyle.Render("Synthesizing speech...")
	case m.status == "":
		return ""
	case m.statusErr:
		return errorStyle.Render(m.status)
	default:
		return statusStyle.Render(m.status)
	}
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("Streak %s", statsPkg.FormatDays(m.stats.CurrentStreak)),
		fmt.Sprintf("Today %s", statsPkg.FormatDuration(m.stats.TimeToday)),
		fmt.Sprintf("Total %s", statsPkg.FormatDuration(m.stats.TotalTime)),
		"space start/pause · s stop · r reset · + count · p speak · c copy · q quit",
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) loadFooterStats() {
	m.stats = m.store.Statistics()
}

// syncFromStore runs after every store mutation. It keeps the drill order,
// refreshes counts and texts, and drops sentences that were deleted or
// unselected.
func (m *Model) syncFromStore(data model.AppData) {
	m.loadFooterStats()

	current := make(map[[2]string]model.SelectedSentence)
	for _, t := range data.Topics {
		for _, sent := range t.Sentences {
			if sent.Selected {
				current[[2]string{t.ID, sent.ID}] = model.SelectedSentence{TopicID: t.ID, TopicName: t.Name, Sentence: sent}
			}
		}
	}
	items := m.items[:0]
	for _, item := range m.items {
		if fresh, ok := current[[2]string{item.TopicID, item.Sentence.ID}]; ok {
			items = append(items, fresh)
		}
	}
	m.items = items
	m.cursor = max(min(m.cursor, len(m.items)-1), 0)
}

func (m *Model) reorder() {
	m.items = m.gen.Order(m.store.SelectedSentences(), m.config.FocusLeast, m.config.FocusFactor)
	m.cursor = 0
}

func (m *Model) current() (model.SelectedSentence, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return model.SelectedSentence{}, false
	}
	return m.items[m.cursor], true
}

func (m *Model) stopSession() {
	elapsed := m.watch.Stop()
	if elapsed.Milliseconds() <= 0 {
		m.setStatus("Nothing to record")
		return
	}
	if err := m.store.RecordPracticeSession(context.Background(), elapsed); err != nil {
		m.logger.Error("failed to save session", zap.Error(err))
		m.setError("Session kept in memory but not saved: %v", err)
		return
	}
	m.setStatus("Recorded %s of practice", statsPkg.FormatDuration(elapsed.Milliseconds()))
}

func (m *Model) incrementCurrent() {
	item, ok := m.current()
	if !ok {
		return
	}
	if err := m.store.IncrementSentenceCount(context.Background(), item.TopicID, item.Sentence.ID); err != nil {
		m.logger.Error("failed to save sentence count", zap.Error(err))
		m.setError("Count kept in memory but not saved: %v", err)
	}
}

func (m *Model) copyCurrent() {
	item, ok := m.current()
	if !ok {
		return
	}
	if err := m.copyText(item.Sentence.Text); err != nil {
		m.setError("Copy failed: %v", err)
		return
	}
	m.setStatus("Copied to clipboard")
}

func (m *Model) speakCurrent() tea.Cmd {
	item, ok := m.current()
	if !ok || m.speaking {
		return nil
	}
	if m.speaker == nil {
		m.setError("Speech is not configured; set GEMINI_API_KEY")
		return nil
	}
	m.speaking = true
	speaker := m.speaker
	path := filepath.Join(m.audioDir, audioFileName(item.TopicID, item.Sentence.ID))
	logger := m.logger
	return func() tea.Msg {
		res, err := speaker.Synthesize(context.Background(), speech.Request{Text: item.Sentence.Text})
		if err != nil {
			logger.Warn("speech synthesis failed", zap.String("sentence", item.Sentence.ID), zap.Error(err))
			return speechDoneMsg{err: err}
		}
		if err := speech.WriteFile(path, res.AudioDataURI); err != nil {
			return speechDoneMsg{err: err}
		}
		return speechDoneMsg{path: path}
	}
}

// audioFileName builds a file name unique per topic and sentence. Ids come
// from imported files, so anything outside [A-Za-z0-9_-] becomes '_'.
func audioFileName(topicID, sentenceID string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, topicID+"-"+sentenceID)
	return name + ".wav"
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = true
}
