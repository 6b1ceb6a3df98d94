// Package phrasebook loads sentences in bulk from text files.
package phrasebook

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Entry is one sentence line with an optional translation.
type Entry struct {
	Text        string
	Translation string
}

// LoadSentences reads one sentence per line from path. A tab separates the
// sentence from its translation. Blank lines and lines starting with # are
// skipped.
func LoadSentences(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only sentence file.
			_ = cerr
		}
	}()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		text, translation, _ := strings.Cut(line, "\t")
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		entries = append(entries, Entry{Text: text, Translation: strings.TrimSpace(translation)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("sentence file %s is empty", path)
	}
	return entries, nil
}
