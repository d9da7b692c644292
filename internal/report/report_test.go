package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/harrison/treegrep/internal/models"
)

func sampleDocument() Document {
	results := models.NewSearchResults()
	results.Add("/src/b.txt", models.Position{Line: 3, Column: 4})
	results.Add("/src/a.txt", models.Position{Line: 1, Column: 1}, models.Position{Line: 2, Column: 7})

	summary := models.RunSummary{
		RunID:        "run-42",
		Root:         "/src",
		Produced:     5,
		Consumed:     5,
		FilesMatched: 2,
		Matches:      3,
		Duration:     1500 * time.Millisecond,
	}
	return Build(summary, results)
}

func TestBuild(t *testing.T) {
	doc := sampleDocument()

	assert.Equal(t, "run-42", doc.RunID)
	assert.Equal(t, models.StatusSuccess, doc.Status)
	assert.Equal(t, int64(1500), doc.DurationMS)
	require.Len(t, doc.Files, 2)
	assert.Equal(t, "/src/a.txt", doc.Files[0].Path, "files are sorted")
	assert.Len(t, doc.Files[0].Positions, 2)
	assert.Empty(t, doc.Errors)
}

func TestBuildEmptyResults(t *testing.T) {
	doc := Build(models.RunSummary{Errors: []string{"producer failed"}}, models.NewSearchResults())
	assert.NotNil(t, doc.Files)
	assert.Empty(t, doc.Files)
	assert.Equal(t, models.StatusFailed, doc.Status)

	data, err := Marshal(doc, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"files": []`)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	require.NoError(t, Write(path, FormatJSON, sampleDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Document
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sampleDocument(), got)
	assert.Contains(t, string(data), `"line": 2`)
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	require.NoError(t, Write(path, FormatYAML, sampleDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: run-42")

	var got Document
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, sampleDocument(), got)
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, Write(path, FormatJSON, Build(models.RunSummary{RunID: "first"}, nil)))
	require.NoError(t, Write(path, FormatJSON, sampleDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run-42")
	assert.NotContains(t, string(data), "first")
}

func TestMarshalUnsupportedFormat(t *testing.T) {
	_, err := Marshal(sampleDocument(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported report format "xml"`)

	err = Write(filepath.Join(t.TempDir(), "r"), "xml", sampleDocument())
	assert.Error(t, err)
}
