// Package grep locates occurrences of a search text inside files.
package grep

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"
	"unicode/utf8"

	"github.com/harrison/treegrep/internal/models"
)

// Searcher reports every match position of its query inside the file at path.
type Searcher interface {
	Search(ctx context.Context, path string) ([]models.Position, error)
}

// SearcherFunc adapts a plain function to the Searcher interface.
type SearcherFunc func(ctx context.Context, path string) ([]models.Position, error)

// Search calls f(ctx, path).
func (f SearcherFunc) Search(ctx context.Context, path string) ([]models.Position, error) {
	return f(ctx, path)
}

// TextSearcher finds literal, non-overlapping occurrences of Text line by line.
// Columns are 1-based byte offsets.
type TextSearcher struct {
	Text       string
	IgnoreCase bool
}

// NewTextSearcher returns a TextSearcher for text.
func NewTextSearcher(text string, ignoreCase bool) *TextSearcher {
	return &TextSearcher{Text: text, IgnoreCase: ignoreCase}
}

// Search scans the file at path. Directories and other non-regular entries
// yield no positions.
func (s *TextSearcher) Search(ctx context.Context, path string) ([]models.Position, error) {
	if s.Text == "" {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return s.scan(ctx, f)
}

func (s *TextSearcher) scan(ctx context.Context, r io.Reader) ([]models.Position, error) {
	needle := []byte(s.Text)
	if s.IgnoreCase {
		needle, _ = foldLine(needle)
	}

	var positions []models.Position
	reader := bufio.NewReader(r)
	var line uint

	for {
		if err := ctx.Err(); err != nil {
			return positions, err
		}

		raw, err := reader.ReadBytes('\n')
		if len(raw) > 0 {
			line++
			positions = append(positions, s.matchLine(raw, needle, line)...)
		}
		if errors.Is(err, io.EOF) {
			return positions, nil
		}
		if err != nil {
			return positions, fmt.Errorf("read failed at line %d: %w", line+1, err)
		}
	}
}

func (s *TextSearcher) matchLine(raw, needle []byte, line uint) []models.Position {
	raw = bytes.TrimRight(raw, "\r\n")
	var origin []int
	if s.IgnoreCase {
		raw, origin = foldLine(raw)
	}

	var hits []models.Position
	offset := 0
	for offset <= len(raw)-len(needle) {
		idx := bytes.Index(raw[offset:], needle)
		if idx < 0 {
			break
		}
		col := offset + idx
		if origin != nil {
			col = origin[col]
		}
		hits = append(hits, models.Position{Line: line, Column: uint(col + 1)})
		offset += idx + len(needle)
	}
	return hits
}

// foldLine lowercases raw rune by rune. origin[i] is the byte offset in raw
// of the rune that produced byte i of the folded line, since lowercasing can
// change a rune's encoded length.
func foldLine(raw []byte) ([]byte, []int) {
	folded := make([]byte, 0, len(raw))
	origin := make([]int, 0, len(raw))
	var buf [utf8.UTFMax]byte
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		chunk := raw[i : i+size]
		if r != utf8.RuneError || size > 1 {
			n := utf8.EncodeRune(buf[:], unicode.ToLower(r))
			chunk = buf[:n]
		}
		for range chunk {
			origin = append(origin, i)
		}
		folded = append(folded, chunk...)
		i += size
	}
	return folded, origin
}
