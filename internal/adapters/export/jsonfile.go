// Package export writes extraction envelopes to timestamped JSON files.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"place_extractor/internal/domain"
)

const filePattern = "google_maps_extract_20060102_150405.json"

type FileWriter struct {
	Dir string
}

func NewFileWriter(dir string) *FileWriter {
	if dir == "" {
		dir = "."
	}
	return &FileWriter{Dir: dir}
}

// Write stores e as indented JSON named after its extraction time and returns the path.
// Non-ASCII text is written as is.
func (w *FileWriter) Write(e domain.Envelope) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	path := filepath.Join(w.Dir, e.ExtractionDate.Format(filePattern))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// ReadFile loads an envelope previously written by Write.
func ReadFile(path string) (domain.Envelope, error) {
	var e domain.Envelope
	b, err := os.ReadFile(path)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("decode %s: %w", path, err)
	}
	return e, nil
}
