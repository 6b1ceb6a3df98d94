package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/fluent/internal/model"
)

// RenderTopicTable writes one row per topic with sentence and selection counts.
func RenderTopicTable(w io.Writer, topics []model.Topic) error {
	if len(topics) == 0 {
		_, err := fmt.Fprintln(w, "No topics found.")
		return err
	}
	rows := make([][]string, 0, len(topics))
	for _, t := range topics {
		selected := 0
		for _, s := range t.Sentences {
			if s.Selected {
				selected++
			}
		}
		rows = append(rows, []string{
			t.ID,
			t.Name,
			fmt.Sprintf("%d", len(t.Sentences)),
			fmt.Sprintf("%d", selected),
		})
	}
	return writeLines(w, formatTable([]string{"ID", "Name", "Sentences", "Selected"}, rows, map[int]bool{2: true, 3: true}))
}

// RenderTopicSentences writes the sentences of one topic in insertion order.
func RenderTopicSentences(w io.Writer, topic model.Topic) error {
	if _, err := fmt.Fprintf(w, "%s (%s)\n", topic.Name, topic.ID); err != nil {
		return err
	}
	if len(topic.Sentences) == 0 {
		_, err := fmt.Fprintln(w, "No sentences found.")
		return err
	}
	rows := make([][]string, 0, len(topic.Sentences))
	for _, s := range topic.Sentences {
		mark := ""
		if s.Selected {
			mark = "*"
		}
		rows = append(rows, []string{mark, s.ID, s.Text, s.Translation, fmt.Sprintf("%d", s.PracticeCount)})
	}
	return writeLines(w, formatTable([]string{"", "ID", "Sentence", "Translation", "Count"}, rows, map[int]bool{4: true}))
}

// RenderSessionTable writes the most recent sessions first. last <= 0 writes
// all of them.
func RenderSessionTable(w io.Writer, sessions []model.PracticeSession, last int, loc *time.Location) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if loc == nil {
		loc = time.Local
	}
	n := len(sessions)
	if last > 0 && last < n {
		n = last
	}
	rows := make([][]string, 0, n)
	for i := len(sessions) - 1; i >= len(sessions)-n; i-- {
		s := sessions[i]
		rows = append(rows, []string{
			time.UnixMilli(s.StartTime).In(loc).Format("2006-01-02 15:04"),
			s.Ended(loc).Format("15:04"),
			FormatDuration(s.Duration),
		})
	}
	return writeLines(w, formatTable([]string{"Started", "Ended", "Duration"}, rows, map[int]bool{2: true}))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
