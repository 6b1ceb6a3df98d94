package stats

import (
	"io"
	"time"

	"github.com/verte-zerg/fluent/internal/model"
)

const defaultWindow = 14

// Report contains precomputed data for stats rendering.
type Report struct {
	Stats     model.Statistics
	Daily     []DailyTotal
	Sentences []SentenceCount
	Neglected []SentenceCount
	Location  *time.Location
}

// BuildReport prepares data for stats rendering from a state snapshot.
func BuildReport(data model.AppData, now time.Time, cfg model.StatsConfig) Report {
	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}
	return Report{
		Stats:     Derive(data.Sessions, now),
		Daily:     DailyTotals(data.Sessions, now, window),
		Sentences: TopSentences(data.Topics, 0),
		Neglected: NeglectedSentences(data.Topics, 0),
		Location:  now.Location(),
	}
}

// Render prints the summary, daily activity, the most practised sentences and
// the selected sentences that need practice. top limits both tables.
func (r Report) Render(w io.Writer, totalWidth, top int, useColor bool) error {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	if err := RenderSummary(w, r.Stats, loc); err != nil {
		return err
	}
	if err := RenderActivity(w, r.Daily, totalWidth, useColor); err != nil {
		return err
	}
	if err := RenderSentenceTable(w, limit(r.Sentences, top)); err != nil {
		return err
	}
	return RenderNeglected(w, limit(r.Neglected, top))
}
