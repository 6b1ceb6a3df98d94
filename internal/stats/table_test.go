package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Topic", "Sentence", "Count"}
	rows := [][]string{
		{"Food", "Check, please?", "12"},
		{"Greetings", "Hi", "3"},
	}
	rightAlign := map[int]bool{2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Topic     Sentence       Count" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Food      Check, please?    12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Greetings Hi                 3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	rows := [][]string{
		{"日本語", "x"},
		{"abc", "y"},
	}
	lines := formatTable(nil, rows, nil)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1] != "abc    y" {
		t.Fatalf("expected padding to six cells, got %q", lines[1])
	}
}
