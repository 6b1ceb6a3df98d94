package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/fluent/internal/kv"
	"github.com/verte-zerg/fluent/internal/model"
	"github.com/verte-zerg/fluent/internal/transfer"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type failingBackend struct {
	err error
}

func (f failingBackend) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingBackend) Put(context.Context, string, []byte) error  { return f.err }

func newTestStore(t *testing.T, backend kv.Backend) *Store {
	t.Helper()
	n := 0
	s := New(backend,
		WithClock(func() time.Time { return fixedNow }),
		WithIDFunc(func() string {
			n++
			return fmt.Sprintf("session-%d", n)
		}),
	)
	s.Load(context.Background())
	return s
}

func persisted(t *testing.T, backend *kv.Memory) model.AppData {
	t.Helper()
	raw, err := backend.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	data, err := transfer.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return data
}

func TestLoadFallsBackToSeed(t *testing.T) {
	tests := []struct {
		name    string
		backend kv.Backend
	}{
		{name: "empty slot", backend: kv.NewMemory()},
		{name: "malformed json", backend: withSlot(t, "{not json")},
		{name: "missing sessions", backend: withSlot(t, `{"topics":[]}`)},
		{name: "read failure", backend: failingBackend{err: errors.New("disk gone")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, tt.backend)
			assert.True(t, s.Seeded())
			assert.Equal(t, Seed(), s.Snapshot())
		})
	}
}

func withSlot(t *testing.T, value string) *kv.Memory {
	t.Helper()
	m := kv.NewMemory()
	require.NoError(t, m.Put(context.Background(), DefaultKey, []byte(value)))
	return m
}

func TestLoadReadsSavedData(t *testing.T) {
	backend := withSlot(t, `{"topics":[{"id":"t","name":"Mine","sentences":[{"id":"s","text":"Hi","vietnamese":"Chao","practiceCount":2,"selected":true}]}],"sessions":[]}`)
	s := newTestStore(t, backend)
	assert.False(t, s.Seeded())
	data := s.Snapshot()
	require.Len(t, data.Topics, 1)
	assert.Equal(t, "Chao", data.Topics[0].Sentences[0].Translation)
	assert.Len(t, s.SelectedSentences(), 1)
}

func TestMutationsPersist(t *testing.T) {
	backend := kv.NewMemory()
	s := newTestStore(t, backend)
	ctx := context.Background()

	require.NoError(t, s.AddTopic(ctx, model.Topic{ID: "t-new", Name: "Travel"}))
	require.NoError(t, s.AddSentence(ctx, "t-new", model.Sentence{ID: "s-1", Text: "Where is the station?"}))
	require.NoError(t, s.ToggleSentenceSelection(ctx, "t-new", "s-1", true))
	require.NoError(t, s.UpdateTopic(ctx, model.Topic{ID: "topic-1", Name: "Hellos", Sentences: Seed().Topics[0].Sentences}))
	assert.Equal(t, 4, backend.Writes())

	saved := persisted(t, backend)
	assert.Equal(t, s.Snapshot(), saved)
	require.Len(t, saved.Topics, 4)
	assert.Equal(t, "Hellos", saved.Topics[0].Name)
	assert.Equal(t, []model.Sentence{{ID: "s-1", Text: "Where is the station?", Selected: true}}, saved.Topics[3].Sentences)

	reloaded := newTestStore(t, backend)
	assert.False(t, reloaded.Seeded())
	assert.Equal(t, saved, reloaded.Snapshot())
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	backend := kv.NewMemory()
	s := newTestStore(t, backend)
	ctx := context.Background()

	require.NoError(t, s.UpdateTopic(ctx, model.Topic{ID: "nope", Name: "x"}))
	require.NoError(t, s.DeleteTopic(ctx, "nope"))
	require.NoError(t, s.AddSentence(ctx, "nope", model.Sentence{ID: "s"}))
	require.NoError(t, s.UpdateSentence(ctx, "topic-1", model.Sentence{ID: "nope"}))
	require.NoError(t, s.DeleteSentence(ctx, "topic-1", "nope"))
	require.NoError(t, s.ToggleSentenceSelection(ctx, "topic-1", "nope", true))
	require.NoError(t, s.IncrementSentenceCount(ctx, "nope", "sent-1-1"))

	assert.Equal(t, 0, backend.Writes())
	assert.Equal(t, Seed(), s.Snapshot())
}

func TestDuplicateIDsAreIgnored(t *testing.T) {
	s := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	require.NoError(t, s.AddTopic(ctx, model.Topic{ID: "topic-1", Name: "Again"}))
	require.NoError(t, s.AddSentence(ctx, "topic-1", model.Sentence{ID: "sent-1-1", Text: "dup"}))
	require.NoError(t, s.AddTopic(ctx, model.Topic{ID: "t", Name: "T", Sentences: []model.Sentence{
		{ID: "a", Text: "first", PracticeCount: -3},
		{ID: "a", Text: "second"},
	}}))

	data := s.Snapshot()
	require.Len(t, data.Topics, 4)
	assert.Equal(t, "Common Greetings", data.Topics[0].Name)
	assert.Equal(t, "How's it going?", data.Topics[0].Sentences[0].Text)
	assert.Equal(t, []model.Sentence{{ID: "a", Text: "first"}}, data.Topics[3].Sentences)
}

func TestIncrementSentenceCount(t *testing.T) {
	s := newTestStore(t, kv.NewMemory())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.IncrementSentenceCount(ctx, "topic-2", "sent-2-2"))
	}
	topic, ok := s.Topic("topic-2")
	require.True(t, ok)
	assert.Equal(t, 5, topic.Sentences[1].PracticeCount)
	assert.Equal(t, 0, topic.Sentences[0].PracticeCount)
}

func TestUpdateSentenceClampsCount(t *testing.T) {
	s := newTestStore(t, kv.NewMemory())
	require.NoError(t, s.UpdateSentence(context.Background(), "topic-1", model.Sentence{
		ID: "sent-1-1", Text: "Edited", Translation: "Sửa", PracticeCount: -1,
	}))
	topic, _ := s.Topic("topic-1")
	assert.Equal(t, model.Sentence{ID: "sent-1-1", Text: "Edited", Translation: "Sửa"}, topic.Sentences[0])
}

func TestRecordPracticeSession(t *testing.T) {
	backend := kv.NewMemory()
	s := newTestStore(t, backend)
	ctx := context.Background()

	require.NoError(t, s.RecordPracticeSession(ctx, 0))
	require.NoError(t, s.RecordPracticeSession(ctx, -100*time.Millisecond))
	assert.Empty(t, s.Snapshot().Sessions)
	assert.Equal(t, 0, backend.Writes())

	require.NoError(t, s.RecordPracticeSession(ctx, 90*time.Second))
	sessions := s.Snapshot().Sessions
	require.Len(t, sessions, 1)
	assert.Equal(t, model.PracticeSession{
		ID:        "session-1",
		StartTime: fixedNow.UnixMilli() - 90000,
		EndTime:   fixedNow.UnixMilli(),
		Duration:  90000,
	}, sessions[0])

	st := s.Statistics()
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, int64(90000), st.TimeToday)
}

func TestDeleteTopicDropsSelection(t *testing.T) {
	s := newTestStore(t, kv.NewMemory())
	ctx := context.Background()
	require.NoError(t, s.ToggleSentenceSelection(ctx, "topic-1", "sent-1-1", true))
	require.NoError(t, s.ToggleSentenceSelection(ctx, "topic-3", "sent-3-2", true))
	require.Len(t, s.SelectedSentences(), 2)

	require.NoError(t, s.DeleteTopic(ctx, "topic-1"))
	selected := s.SelectedSentences()
	require.Len(t, selected, 1)
	assert.Equal(t, "Daily Conversations", selected[0].TopicName)
	assert.Equal(t, "sent-3-2", selected[0].Sentence.ID)

	require.NoError(t, s.DeleteSentence(ctx, "topic-3", "sent-3-2"))
	assert.Empty(t, s.SelectedSentences())
}

func TestWriteFailureKeepsState(t *testing.T) {
	backend := kv.NewMemory()
	s := newTestStore(t, backend)
	backend.FailWrites = errors.New("quota exceeded")

	err := s.ToggleSentenceSelection(context.Background(), "topic-1", "sent-1-2", true)
	require.Error(t, err)
	var storageErr *kv.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.ErrorIs(t, err, backend.FailWrites)
	assert.Len(t, s.SelectedSentences(), 1)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestStore(t, kv.NewMemory())
	ctx := context.Background()
	require.NoError(t, src.IncrementSentenceCount(ctx, "topic-3", "sent-3-1"))
	require.NoError(t, src.RecordPracticeSession(ctx, time.Minute))

	var buf bytes.Buffer
	require.NoError(t, transfer.Export(&buf, src.Snapshot(), transfer.FormatJSON))
	data, err := transfer.Decode(&buf)
	require.NoError(t, err)

	dst := newTestStore(t, kv.NewMemory())
	require.NoError(t, dst.ReplaceAll(ctx, data))
	assert.Equal(t, src.Snapshot(), dst.Snapshot())
	assert.Equal(t, src.Statistics(), dst.Statistics())
}

func TestOnChangeReceivesCopy(t *testing.T) {
	s := newTestStore(t, kv.NewMemory())
	var got []model.AppData
	s.OnChange(func(d model.AppData) {
		got = append(got, d)
	})
	require.NoError(t, s.DeleteTopic(context.Background(), "topic-2"))
	require.Len(t, got, 1)
	assert.Len(t, got[0].Topics, 2)

	got[0].Topics[0].Name = "mutated"
	topic, _ := s.Topic("topic-1")
	assert.Equal(t, "Common Greetings", topic.Name)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := newTestStore(t, kv.NewMemory())
	snap := s.Snapshot()
	snap.Topics[0].Sentences[0].Text = "changed"
	assert.Equal(t, "How's it going?", s.Snapshot().Topics[0].Sentences[0].Text)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sessions":[]`)
}
