package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/fluent/internal/model"
)

func TestRenderTopicTable(t *testing.T) {
	var buf bytes.Buffer
	topics := []model.Topic{
		{ID: "t1", Name: "Food", Sentences: []model.Sentence{{ID: "a", Selected: true}, {ID: "b"}}},
		{ID: "t2", Name: "Greetings"},
	}
	require.NoError(t, RenderTopicTable(&buf, topics))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID Name      Sentences Selected", lines[0])
	assert.Equal(t, "t1 Food              2        1", lines[1])
	assert.Equal(t, "t2 Greetings         0        0", lines[2])

	buf.Reset()
	require.NoError(t, RenderTopicTable(&buf, nil))
	assert.Equal(t, "No topics found.\n", buf.String())
}

func TestRenderTopicSentences(t *testing.T) {
	var buf bytes.Buffer
	topic := model.Topic{ID: "t1", Name: "Food", Sentences: []model.Sentence{
		{ID: "a", Text: "Check, please?", Translation: "Tính tiền", PracticeCount: 12, Selected: true},
	}}
	require.NoError(t, RenderTopicSentences(&buf, topic))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Food (t1)\n"))
	assert.Contains(t, out, "* a  Check, please? Tính tiền")

	buf.Reset()
	require.NoError(t, RenderTopicSentences(&buf, model.Topic{ID: "t2", Name: "Empty"}))
	assert.Equal(t, "Empty (t2)\nNo sentences found.\n", buf.String())
}

func TestRenderSessionTableNewestFirst(t *testing.T) {
	start := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	sessions := []model.PracticeSession{
		{ID: "s1", StartTime: start.UnixMilli(), EndTime: start.Add(90 * time.Second).UnixMilli(), Duration: 90000},
		{ID: "s2", StartTime: start.Add(24 * time.Hour).UnixMilli(), EndTime: start.Add(24*time.Hour + time.Hour).UnixMilli(), Duration: 3600000},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderSessionTable(&buf, sessions, 0, time.UTC))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2024-03-11 09:00 10:00       1h", lines[1])
	assert.Equal(t, "2024-03-10 09:00 09:01       1m", lines[2])

	buf.Reset()
	require.NoError(t, RenderSessionTable(&buf, sessions, 1, time.UTC))
	assert.Len(t, strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"), 2)
}
