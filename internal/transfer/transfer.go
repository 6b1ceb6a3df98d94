// Package transfer encodes and decodes AppData export documents.
package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/fluent/internal/model"
)

// Format is an export encoding.
type Format string

const (
	// FormatJSON is the import-compatible backup format.
	FormatJSON Format = "json"
	// FormatYAML is a human-readable export.
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: json, yaml)", name)
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// ImportError describes a rejected import document.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid import file: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid import file: %s", e.Reason)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// ExportError describes a failed export write.
type ExportError struct {
	Format Format
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s]: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Export writes data to w in the given format.
func Export(w io.Writer, data model.AppData, format Format) error {
	data = data.Clone()
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return &ExportError{Format: format, Err: err}
		}
		if err := enc.Close(); err != nil {
			return &ExportError{Format: format, Err: err}
		}
		return nil
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return &ExportError{Format: FormatJSON, Err: err}
		}
		return nil
	}
}

// ExportFileName returns the timestamped backup file name.
func ExportFileName(now time.Time, format Format) string {
	return fmt.Sprintf("fluent-progress-backup-%s.%s", now.Format("2006-01-02"), format.Extension())
}

// Decode reads a JSON AppData document. The document must be an object with
// "topics" and "sessions" arrays; anything else is rejected.
func Decode(r io.Reader) (model.AppData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.AppData{}, &ImportError{Reason: "read failed", Err: err}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.AppData{}, &ImportError{Reason: "not a JSON object", Err: err}
	}
	for _, key := range []string{"topics", "sessions"} {
		value, ok := fields[key]
		if !ok {
			return model.AppData{}, &ImportError{Reason: fmt.Sprintf("missing %q", key)}
		}
		if !isArray(value) {
			return model.AppData{}, &ImportError{Reason: fmt.Sprintf("%q is not an array", key)}
		}
	}
	var data model.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		return model.AppData{}, &ImportError{Reason: "unexpected shape", Err: err}
	}
	return data.Clone(), nil
}

func isArray(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)
	return len(trimmed) > 0 && trimmed[0] == '['
}
