// Package report persists rendered reports to the output directory.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

// Save writes text to path, creating parent directories as needed.
func Save(path string, text string) error {
	if path == "" {
		return fmt.Errorf("output path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

// SaveJSON writes v as indented JSON, for machine consumption alongside the
// text artifact.
func SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return Save(path, string(data))
}

// SubjectPath builds the per-subject report filename inside dir.
func SubjectPath(dir, subject string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.txt", sanitize(subject), at.UTC().Format(timestampLayout)))
}

// SummaryPath builds the run summary filename inside dir.
func SummaryPath(dir string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("summary_report_%s.txt", at.UTC().Format(timestampLayout)))
}

// SummaryJSONPath builds the machine-readable summary filename inside dir.
func SummaryJSONPath(dir string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("summary_report_%s.json", at.UTC().Format(timestampLayout)))
}

// sanitize keeps subject-derived filenames safe on every platform.
func sanitize(subject string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	s := replacer.Replace(subject)
	if s == "" {
		return "unknown"
	}
	return s
}
