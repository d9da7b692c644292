package display

import (
	"fmt"
	"strings"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Render returns the uncolored warning text.
func (w Warning) Render() string {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected path:\n")
		} else {
			b.WriteString("Affected paths:\n")
		}
		for i, file := range w.Files {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, file))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

// WarnNoMatches builds the warning shown when no path matched the masks.
func WarnNoMatches(masks, root string, recursive bool) Warning {
	w := Warning{
		Title:   "No files matched",
		Message: fmt.Sprintf("mask %q matched nothing under %s", masks, root),
	}
	if !recursive {
		w.Suggestion = "Use --recursive to search subdirectories"
	}
	return w
}

// WarnSkipped builds the warning listing paths that were skipped.
func WarnSkipped(reason string, paths []string) Warning {
	return Warning{
		Title:   fmt.Sprintf("%d %s skipped", len(paths), plural(len(paths), "path", "paths")),
		Message: reason,
		Files:   paths,
	}
}
