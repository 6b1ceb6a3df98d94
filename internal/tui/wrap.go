package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText breaks text into lines no wider than width terminal cells. Words
// wider than a line are split.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	flush := func() {
		if lineWidth == 0 {
			return
		}
		lines = append(lines, line.String())
		line.Reset()
		lineWidth = 0
	}
	for _, word := range words {
		for _, part := range splitWide(word, width) {
			w := runewidth.StringWidth(part)
			if lineWidth > 0 && lineWidth+1+w > width {
				flush()
			}
			if lineWidth > 0 {
				line.WriteByte(' ')
				lineWidth++
			}
			line.WriteString(part)
			lineWidth += w
		}
	}
	flush()
	return lines
}

func splitWide(word string, width int) []string {
	if runewidth.StringWidth(word) <= width {
		return []string{word}
	}
	var parts []string
	var cur strings.Builder
	curWidth := 0
	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if curWidth+rw > width && curWidth > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curWidth = 0
		}
		cur.WriteRune(r)
		curWidth += rw
	}
	if curWidth > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// truncate shortens s to width cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
