package tui

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/fluent/internal/drill"
	"github.com/verte-zerg/fluent/internal/kv"
	"github.com/verte-zerg/fluent/internal/model"
	"github.com/verte-zerg/fluent/internal/speech"
	"github.com/verte-zerg/fluent/internal/store"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

type fakeSpeaker struct {
	err error
}

func (f fakeSpeaker) Synthesize(context.Context, speech.Request) (speech.Result, error) {
	if f.err != nil {
		return speech.Result{}, f.err
	}
	wav := speech.EncodeWAV([]byte{0, 0}, speech.Channels, speech.SampleRate, speech.SampleWidth)
	return speech.Result{AudioDataURI: "data:audio/wav;base64," + encode(wav)}, nil
}

func newTestModel(t *testing.T) (*Model, *store.Store, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)}
	st := store.New(kv.NewMemory(), store.WithClock(clock.now))
	st.Load(context.Background())
	ctx := context.Background()
	if err := st.ToggleSentenceSelection(ctx, "topic-1", "sent-1-1", true); err != nil {
		t.Fatalf("select: %v", err)
	}
	m := NewModel(model.Config{}, st, drill.NewSeeded(1), Options{Clock: clock.now, AudioDir: t.TempDir()})
	return m, st, clock
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestStopRecordsSession(t *testing.T) {
	m, st, clock := newTestModel(t)
	send(m, " ")
	clock.t = clock.t.Add(90 * time.Second)
	send(m, "s")

	sessions := st.Snapshot().Sessions
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].Duration != 90000 {
		t.Fatalf("expected 90000ms, got %d", sessions[0].Duration)
	}
	if m.stats.TimeToday != 90000 {
		t.Fatalf("footer stats not refreshed: %+v", m.stats)
	}
	if m.watch.Uncommitted() {
		t.Fatalf("expected stopwatch to be reset")
	}
}

func TestStopWithoutTimeRecordsNothing(t *testing.T) {
	m, st, _ := newTestModel(t)
	send(m, "s")
	send(m, " ", "s")
	if n := len(st.Snapshot().Sessions); n != 0 {
		t.Fatalf("expected no sessions, got %d", n)
	}
}

func TestResetDiscardsTime(t *testing.T) {
	m, st, clock := newTestModel(t)
	send(m, " ")
	clock.t = clock.t.Add(time.Minute)
	send(m, "r", "s")
	if n := len(st.Snapshot().Sessions); n != 0 {
		t.Fatalf("expected no sessions after reset, got %d", n)
	}
}

func TestQuitAsksWhenTimeIsUncommitted(t *testing.T) {
	m, _, clock := newTestModel(t)
	if !isQuit(send(m, "q")) {
		t.Fatalf("expected immediate quit with idle timer")
	}

	send(m, " ")
	clock.t = clock.t.Add(time.Second)
	if cmd := send(m, "q"); cmd != nil {
		t.Fatalf("expected confirm prompt instead of quit")
	}
	if !m.confirmQuit {
		t.Fatalf("expected confirm prompt")
	}
	send(m, "n")
	if m.confirmQuit {
		t.Fatalf("expected prompt to close")
	}
	if !m.watch.Running() {
		t.Fatalf("expected timer to keep running")
	}

	send(m, "q")
	if !isQuit(send(m, "y")) {
		t.Fatalf("expected quit after confirming")
	}
}

func TestIncrementCurrentSentence(t *testing.T) {
	m, st, _ := newTestModel(t)
	send(m, "+", "enter", "+")
	topic, _ := st.Topic("topic-1")
	if got := topic.Sentences[0].PracticeCount; got != 3 {
		t.Fatalf("expected count 3, got %d", got)
	}
	if got := m.items[0].Sentence.PracticeCount; got != 3 {
		t.Fatalf("expected displayed count 3, got %d", got)
	}
}

func TestCursorStaysInRange(t *testing.T) {
	m, _, _ := newTestModel(t)
	send(m, "up", "k", "down", "j", "down")
	if m.cursor != 0 {
		t.Fatalf("expected cursor 0 with a single sentence, got %d", m.cursor)
	}
}

func TestCopyCurrentSentence(t *testing.T) {
	m, _, _ := newTestModel(t)
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}
	send(m, "c")
	if copied != "How's it going?" {
		t.Fatalf("unexpected clipboard text %q", copied)
	}

	m.copyText = func(string) error { return errors.New("no clipboard") }
	send(m, "c")
	if !m.statusErr {
		t.Fatalf("expected error status")
	}
}

func TestSpeakWritesAudio(t *testing.T) {
	m, _, _ := newTestModel(t)
	send(m, "p")
	if !m.statusErr {
		t.Fatalf("expected error without speaker")
	}

	m.speaker = fakeSpeaker{}
	cmd := send(m, "p")
	if cmd == nil || !m.speaking {
		t.Fatalf("expected speech command")
	}
	m.Update(cmd())
	if m.speaking || m.statusErr {
		t.Fatalf("unexpected state after speech: %q", m.status)
	}
	if _, err := os.Stat(filepath.Join(m.audioDir, "topic-1-sent-1-1.wav")); err != nil {
		t.Fatalf("expected audio file: %v", err)
	}

	m.speaker = fakeSpeaker{err: speech.ErrMissingCredential}
	m.Update(send(m, "p")())
	if !m.statusErr {
		t.Fatalf("expected speech error status")
	}
}

func TestViewShowsClockAndSentence(t *testing.T) {
	m, _, clock := newTestModel(t)
	send(m, " ")
	clock.t = clock.t.Add(61 * time.Second)
	out := m.View()
	if !containsAll(out, []string{"00:01:01", "running", "How's it going?"}) {
		t.Fatalf("view missing expected content: %s", out)
	}
	send(m, "q")
	if !containsAll(m.View(), []string{"Discard 00:01:01"}) {
		t.Fatalf("expected discard prompt")
	}
}

func TestAudioFileNameStaysInDirectory(t *testing.T) {
	tests := []struct {
		topicID, sentenceID, want string
	}{
		{"topic-1", "sent-1-1", "topic-1-sent-1-1.wav"},
		{"topic-2", "sent-1-1", "topic-2-sent-1-1.wav"},
		{"../..", "etc/passwd", "_____-etc_passwd.wav"},
		{"t", `a\b`, "t-a_b.wav"},
		{"Đà Nẵng", "câu 1", "___N_ng-c_u_1.wav"},
	}
	for _, tt := range tests {
		got := audioFileName(tt.topicID, tt.sentenceID)
		if got != tt.want {
			t.Fatalf("audioFileName(%q, %q) = %q, want %q", tt.topicID, tt.sentenceID, got, tt.want)
		}
		if filepath.Base(got) != got {
			t.Fatalf("audio file name %q escapes the directory", got)
		}
	}
}

func TestStoreChangesRefreshModel(t *testing.T) {
	m, st, _ := newTestModel(t)
	ctx := context.Background()

	if err := st.IncrementSentenceCount(ctx, "topic-1", "sent-1-1"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got := m.items[0].Sentence.PracticeCount; got != 1 {
		t.Fatalf("expected displayed count 1, got %d", got)
	}

	if err := st.RecordPracticeSession(ctx, 2*time.Minute); err != nil {
		t.Fatalf("record: %v", err)
	}
	if m.stats.TimeToday != 120000 || m.stats.CurrentStreak != 1 {
		t.Fatalf("footer stats not refreshed: %+v", m.stats)
	}

	if err := st.DeleteTopic(ctx, "topic-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(m.items) != 0 || m.cursor != 0 {
		t.Fatalf("expected deleted sentence to leave the list, got %d items", len(m.items))
	}
	if _, ok := m.current(); ok {
		t.Fatalf("expected no current sentence")
	}
}

func TestIncrementShownWhenSaveFails(t *testing.T) {
	backend := kv.NewMemory()
	st := store.New(backend)
	st.Load(context.Background())
	if err := st.ToggleSentenceSelection(context.Background(), "topic-1", "sent-1-1", true); err != nil {
		t.Fatalf("select: %v", err)
	}
	m := NewModel(model.Config{}, st, drill.NewSeeded(1), Options{})
	backend.FailWrites = errors.New("disk full")
	send(m, "+")
	if got := m.items[0].Sentence.PracticeCount; got != 1 {
		t.Fatalf("expected displayed count 1, got %d", got)
	}
	if !m.statusErr {
		t.Fatalf("expected error status")
	}
}

func encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
