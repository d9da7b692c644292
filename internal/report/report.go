// Package report writes the results of a run to a JSON or YAML file.
package report

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/harrison/treegrep/internal/filelock"
	"github.com/harrison/treegrep/internal/models"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FileMatches lists the positions found in one file.
type FileMatches struct {
	Path      string            `json:"path" yaml:"path"`
	Positions []models.Position `json:"positions" yaml:"positions"`
}

// Document is the serialized form of a run.
type Document struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	Root         string        `json:"root" yaml:"root"`
	Status       string        `json:"status" yaml:"status"`
	Produced     int           `json:"produced" yaml:"produced"`
	Consumed     int           `json:"consumed" yaml:"consumed"`
	FilesMatched int           `json:"files_matched" yaml:"files_matched"`
	Matches      int           `json:"matches" yaml:"matches"`
	DurationMS   int64         `json:"duration_ms" yaml:"duration_ms"`
	Errors       []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
	Files        []FileMatches `json:"files" yaml:"files"`
}

// Build assembles a Document. Files are sorted by path.
func Build(summary models.RunSummary, results models.SearchResults) Document {
	doc := Document{
		RunID:        summary.RunID,
		Root:         summary.Root,
		Status:       summary.Status(),
		Produced:     summary.Produced,
		Consumed:     summary.Consumed,
		FilesMatched: summary.FilesMatched,
		Matches:      summary.Matches,
		DurationMS:   summary.Duration.Milliseconds(),
		Errors:       summary.Errors,
		Files:        make([]FileMatches, 0, len(results)),
	}
	for _, path := range results.Files() {
		doc.Files = append(doc.Files, FileMatches{Path: path, Positions: results[path]})
	}
	return doc
}

// Marshal encodes doc in format.
func Marshal(doc Document, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode report as json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode report as yaml: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// Write encodes doc and replaces the file at path atomically.
func Write(path, format string, doc Document) error {
	data, err := Marshal(doc, format)
	if err != nil {
		return err
	}
	if err := filelock.LockAndWrite(path, data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
