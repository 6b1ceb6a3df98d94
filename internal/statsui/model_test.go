package statsui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/fluent/internal/model"
)

type staticSource model.AppData

func (s staticSource) Snapshot() model.AppData {
	return model.AppData(s).Clone()
}

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func sampleSource() staticSource {
	end := testNow.Add(-time.Hour).UnixMilli()
	return staticSource{
		Topics: []model.Topic{{ID: "t", Name: "Food", Sentences: []model.Sentence{
			{ID: "a", Text: "The check, please.", PracticeCount: 4, Selected: true},
			{ID: "b", Text: "A table for two.", PracticeCount: 9},
		}}},
		Sessions: []model.PracticeSession{
			{ID: "s1", StartTime: end - 65*60000, EndTime: end, Duration: 65 * 60000},
		},
	}
}

func newSized(t *testing.T, src Source) *Model {
	t.Helper()
	m := NewModel(src, model.StatsConfig{Window: 7}, func() time.Time { return testNow })
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestOverviewShowsMetrics(t *testing.T) {
	m := newSized(t, sampleSource())
	out := m.View()
	for _, want := range []string{"Overview", "Current streak", "1 day", "1h 5m", "Sessions: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("overview missing %q:\n%s", want, out)
		}
	}
}

func TestActivityTab(t *testing.T) {
	m := newSized(t, sampleSource())
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabActivity {
		t.Fatalf("expected activity tab, got %d", m.activeTab)
	}
	out := m.View()
	if !strings.Contains(out, "Sun 03-10") || !strings.Contains(out, "1h 5m") {
		t.Fatalf("activity missing today's bar:\n%s", out)
	}
}

func TestWindowKeys(t *testing.T) {
	m := newSized(t, sampleSource())
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("=")})
	if m.cfg.Window != 14 || len(m.report.Daily) != 14 {
		t.Fatalf("expected window 14, got %d (%d days)", m.cfg.Window, len(m.report.Daily))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	if m.cfg.Window != minWindow {
		t.Fatalf("expected window floor %d, got %d", minWindow, m.cfg.Window)
	}
}

func TestSentencesTab(t *testing.T) {
	m := newSized(t, sampleSource())
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabSentences {
		t.Fatalf("expected wrap-around to sentences tab, got %d", m.activeTab)
	}
	rows := m.sentences.Rows()
	if len(rows) != 2 || rows[0][3] != "A table for two." || rows[1][1] != "*" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestEmptyData(t *testing.T) {
	m := newSized(t, staticSource{})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), "No sessions found.") {
		t.Fatalf("expected empty activity message")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), "No sentences found.") {
		t.Fatalf("expected empty sentences message")
	}
}

func TestQuit(t *testing.T) {
	m := newSized(t, sampleSource())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("abc", 6); got != "abc" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
