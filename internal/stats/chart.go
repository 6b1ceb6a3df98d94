package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	minBarWidth         = 10
	terminalWidthBackup = 80
	barChar             = "#"
	dayLabelLayout      = "Mon 01-02"
	colorBar            = "\x1b[32m"
	colorReset          = "\x1b[0m"
)

// barLabelWidth covers the day label, the separator and a "12h 59m" suffix.
var barLabelWidth = len(dayLabelLayout) + len(" | ") + len(" 12h 59m")

// RenderActivity prints one horizontal bar per day scaled to the busiest day.
func RenderActivity(w io.Writer, totals []DailyTotal, totalWidth int, useColor bool) error {
	if len(totals) == 0 {
		return nil
	}
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	width := BarWidthFor(totalWidth)

	var peak int64
	for _, t := range totals {
		peak = max(peak, t.Duration)
	}
	if _, err := fmt.Fprintln(w, "Activity"); err != nil {
		return err
	}
	for _, line := range ActivityLines(totals, width, peak, useColor) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	mins := Minutes(totals)
	if _, err := fmt.Fprintf(w, "%-*s | %s\n", len(dayLabelLayout), "Trend", Sparkline(MovingAverage(mins, 3))); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// ActivityLines formats bar rows without a title. peak is the value mapped to
// a full-width bar.
func ActivityLines(totals []DailyTotal, width int, peak int64, useColor bool) []string {
	lines := make([]string, 0, len(totals))
	for _, t := range totals {
		n := 0
		if peak > 0 {
			n = int(float64(t.Duration) / float64(peak) * float64(width))
			if n == 0 && t.Duration > 0 {
				n = 1
			}
		}
		bar := strings.Repeat(barChar, n)
		if useColor && n > 0 {
			bar = colorBar + bar + colorReset
		}
		label := ""
		if t.Duration > 0 {
			label = " " + FormatDuration(t.Duration)
		}
		lines = append(lines, fmt.Sprintf("%s | %s%s", t.Day.Format(dayLabelLayout), bar, label))
	}
	return lines
}

// BarWidthFor computes the bar width that fits within the total available width.
func BarWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	return max(totalWidth-barLabelWidth, minBarWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ShouldUseColor reports whether ANSI colors should be written to w.
func ShouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
