package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/fluent/internal/model"
)

func TestRenderFooterFormats(t *testing.T) {
	m := &Model{
		stats: model.Statistics{
			CurrentStreak: 3,
			TimeToday:     65 * 60000,
			TotalTime:     42000,
		},
	}
	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Streak 3 days", "Today 1h 5m", "Total 42s", "q quit"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
