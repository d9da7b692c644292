package models

import "sort"

// Position is a single match location inside a file.
// Line and Column are 1-based when produced by a searcher; the zero value
// means "no location".
type Position struct {
	Line   uint `json:"line" yaml:"line"`
	Column uint `json:"column" yaml:"column"`
}

// SearchResults maps a file path to the ordered match positions found in it.
// It is owned by a single consumer while a run is in progress and must only be
// read by others after that consumer has finished.
type SearchResults map[string][]Position

// NewSearchResults returns an empty result set.
func NewSearchResults() SearchResults {
	return make(SearchResults)
}

// Add appends positions for path. Calling Add with no positions is a no-op,
// so only files with at least one hit ever get a key.
func (r SearchResults) Add(path string, positions ...Position) {
	if len(positions) == 0 {
		return
	}
	r[path] = append(r[path], positions...)
}

// Files returns the paths with hits, sorted.
func (r SearchResults) Files() []string {
	files := make([]string, 0, len(r))
	for path := range r {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// MatchCount returns the total number of positions across all files.
func (r SearchResults) MatchCount() int {
	total := 0
	for _, positions := range r {
		total += len(positions)
	}
	return total
}
