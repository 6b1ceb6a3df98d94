// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/fluent/internal/model"
	"github.com/verte-zerg/fluent/internal/stats"
)

const (
	tabOverview = iota
	tabActivity
	tabSentences
)

const (
	minWindow = 7
	maxWindow = 365
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Source supplies the data shown by the stats UI.
type Source interface {
	Snapshot() model.AppData
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	source Source
	cfg    model.StatsConfig
	now    func() time.Time

	report stats.Report

	tabs      []string
	activeTab int
	viewports []viewport.Model
	sentences table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model. A nil clock means time.Now.
func NewModel(src Source, cfg model.StatsConfig, now func() time.Time) *Model {
	if now == nil {
		now = time.Now
	}
	if cfg.Window <= 0 {
		cfg.Window = 14
	}
	m := &Model{
		source: src,
		cfg:    cfg,
		now:    now,
		tabs:   []string{"Overview", "Activity", "Sentences"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.sentences = buildSentenceTable(nil, 80, 10)
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.Window = nextWindow(m.cfg.Window)
			m.refreshReport()
			return m, nil
		case "-":
			m.cfg.Window = prevWindow(m.cfg.Window)
			m.refreshReport()
			return m, nil
		case "g", "home":
			if m.activeTab == tabSentences {
				m.sentences.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabSentences {
				m.sentences.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabSentences {
				m.sentences, cmd = m.sentences.Update(msg)
				return m, cmd
			}
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(headerStyle.Render(m.renderHelp()), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.sentences.SetWidth(m.width)
	m.sentences.SetHeight(max(bodyHeight-1, 1))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabSentences {
		m.sentences.Focus()
	} else {
		m.sentences.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := fmt.Sprintf("Window: last %s  Sessions: %d  Sentences: %d",
		stats.FormatDays(m.cfg.Window), m.sessionCount(), len(m.report.Sentences))
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	return "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Quit: q"
}

func (m *Model) renderBody() string {
	if m.activeTab == tabSentences {
		if len(m.report.Sentences) == 0 {
			return "No sentences found."
		}
		return tableMutedStyle.Render(m.sentences.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) sessionCount() int {
	return len(m.source.Snapshot().Sessions)
}

func (m *Model) refreshReport() {
	m.report = stats.BuildReport(m.source.Snapshot(), m.now(), m.cfg)
	m.sentences.SetRows(sentenceRows(m.report.Sentences))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabActivity].SetContent(renderActivity(m.report, width))
}

func renderOverview(r stats.Report, width int) string {
	st := r.Stats
	cards := []string{
		metricCard("Current streak", stats.FormatDays(st.CurrentStreak)),
		metricCard("Longest streak", stats.FormatDays(st.LongestStreak)),
		metricCard("Today", stats.FormatDuration(st.TimeToday)),
		metricCard("Total time", stats.FormatDuration(st.TotalTime)),
		metricCard("Practice days", fmt.Sprintf("%d", st.TotalPracticeDays)),
		metricCard("Last session", stats.FormatLastSession(st.LastSessionDate, r.Location)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderActivity(r stats.Report, width int) string {
	if r.Stats.TotalPracticeDays == 0 {
		return "No sessions found."
	}
	var buf bytes.Buffer
	if err := stats.RenderActivity(&buf, r.Daily, width, true); err != nil {
		return fmt.Sprintf("Failed to render activity: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func buildSentenceTable(items []stats.SentenceCount, width, height int) table.Model {
	t := table.New(
		table.WithColumns(sentenceColumns()),
		table.WithRows(sentenceRows(items)),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(sentenceTableStyles())
	return t
}

func sentenceColumns() []table.Column {
	return []table.Column{
		{Title: "Count", Width: 6},
		{Title: "Sel", Width: 3},
		{Title: "Topic", Width: 18},
		{Title: "Sentence", Width: 48},
	}
}

func sentenceRows(items []stats.SentenceCount) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		selected := ""
		if item.Sentence.Selected {
			selected = "*"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", item.Sentence.PracticeCount),
			selected,
			item.TopicName,
			item.Sentence.Text,
		})
	}
	return rows
}

func sentenceTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func nextWindow(n int) int {
	if n < minWindow {
		return minWindow
	}
	return min(n+minWindow, maxWindow)
}

func prevWindow(n int) int {
	return max(n-minWindow, minWindow)
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
