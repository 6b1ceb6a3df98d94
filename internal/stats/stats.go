// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/fluent/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Derive computes streak and time statistics from the session log. Days are
// calendar days in now's location.
func Derive(sessions []model.PracticeSession, now time.Time) model.Statistics {
	loc := now.Location()
	today := calendarDay(now)

	var st model.Statistics
	seen := make(map[time.Time]struct{}, len(sessions))
	days := make([]time.Time, 0, len(sessions))
	for i, s := range sessions {
		st.TotalTime += s.Duration
		day := calendarDay(s.Ended(loc))
		if day.Equal(today) {
			st.TimeToday += s.Duration
		}
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			days = append(days, day)
		}
		if i == 0 || s.EndTime > *st.LastSessionDate {
			last := s.EndTime
			st.LastSessionDate = &last
		}
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].After(days[j])
	})
	st.TotalPracticeDays = len(days)
	st.CurrentStreak = currentStreak(days, today)
	st.LongestStreak = longestStreak(days)
	return st
}

// currentStreak counts consecutive days back from the most recent practice
// day, provided that day is today or yesterday. days is sorted descending.
func currentStreak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}
	if gap := daysBetween(today, days[0]); gap != 0 && gap != 1 {
		return 0
	}
	streak := 1
	for i := 0; i < len(days)-1; i++ {
		if daysBetween(days[i], days[i+1]) != 1 {
			break
		}
		streak++
	}
	return streak
}

func longestStreak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 0; i < len(days)-1; i++ {
		if daysBetween(days[i], days[i+1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// calendarDay maps t to midnight UTC of its local date so that day arithmetic
// is unaffected by DST transitions.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(later, earlier time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}

// DailyTotal is the practice time logged on one calendar day.
type DailyTotal struct {
	Day      time.Time
	Duration int64
}

// DailyTotals returns per-day practice time for the last n days ending today,
// oldest first.
func DailyTotals(sessions []model.PracticeSession, now time.Time, n int) []DailyTotal {
	if n <= 0 {
		return nil
	}
	loc := now.Location()
	today := calendarDay(now)
	out := make([]DailyTotal, n)
	for i := range out {
		out[i].Day = today.AddDate(0, 0, i-n+1)
	}
	for _, s := range sessions {
		idx := n - 1 - daysBetween(today, calendarDay(s.Ended(loc)))
		if idx < 0 || idx >= n {
			continue
		}
		out[idx].Duration += s.Duration
	}
	return out
}

// Minutes converts daily totals into a series of minutes.
func Minutes(totals []DailyTotal) []float64 {
	out := make([]float64, len(totals))
	for i, t := range totals {
		out[i] = float64(t.Duration) / 60000.0
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// FormatDuration renders milliseconds as "1h 5m", "12m" or "42s".
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := (ms / 1000) % 60
	minutes := (ms / 60000) % 60
	hours := ms / 3600000

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if hours == 0 && minutes == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, " ")
}

// FormatDays renders a day count with the right plural.
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// FormatLastSession renders the last session time, or "never".
func FormatLastSession(last *int64, loc *time.Location) string {
	if last == nil {
		return "never"
	}
	return time.UnixMilli(*last).In(loc).Format("2006-01-02 15:04")
}

// RenderSummary prints the statistics block.
func RenderSummary(w io.Writer, st model.Statistics, loc *time.Location) error {
	rows := [][]string{
		{"Current streak", FormatDays(st.CurrentStreak)},
		{"Longest streak", FormatDays(st.LongestStreak)},
		{"Today", FormatDuration(st.TimeToday)},
		{"Total time", FormatDuration(st.TotalTime)},
		{"Practice days", fmt.Sprintf("%d", st.TotalPracticeDays)},
		{"Last session", FormatLastSession(st.LastSessionDate, loc)},
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSentenceTable prints the most practised sentences.
func RenderSentenceTable(w io.Writer, counts []SentenceCount) error {
	if len(counts) == 0 {
		_, err := fmt.Fprintln(w, "No sentences found.")
		return err
	}
	return renderSentences(w, "Sentences", counts)
}

// RenderNeglected prints the selected sentences that need practice most.
// Nothing is printed when no sentence is selected.
func RenderNeglected(w io.Writer, counts []SentenceCount) error {
	if len(counts) == 0 {
		return nil
	}
	return renderSentences(w, "Needs practice", counts)
}

func renderSentences(w io.Writer, title string, counts []SentenceCount) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	headers := []string{"Topic", "Sentence", "Count", "Selected"}
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		selected := ""
		if c.Sentence.Selected {
			selected = "yes"
		}
		rows = append(rows, []string{
			c.TopicName,
			c.Sentence.Text,
			fmt.Sprintf("%d", c.Sentence.PracticeCount),
			selected,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
