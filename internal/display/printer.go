package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/treegrep/internal/models"
)

// ColorEnabled reports whether w is a terminal that should receive colors.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printer writes matches, summaries and warnings to a writer.
type Printer struct {
	out   io.Writer
	color bool

	path   *color.Color
	number *color.Color
	ok     *color.Color
	fail   *color.Color
	warn   *color.Color
}

// NewPrinter returns a Printer. useColor forces colors on or off regardless
// of the global color setting.
func NewPrinter(out io.Writer, useColor bool) *Printer {
	p := &Printer{
		out:    out,
		color:  useColor,
		path:   color.New(color.FgMagenta),
		number: color.New(color.FgGreen),
		ok:     color.New(color.FgGreen, color.Bold),
		fail:   color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.path, p.number, p.ok, p.fail, p.warn} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Matches prints one "path:line:col" line per position, files sorted by path.
func (p *Printer) Matches(results models.SearchResults) {
	for _, path := range results.Files() {
		for _, pos := range results[path] {
			fmt.Fprintf(p.out, "%s:%s:%s\n",
				p.path.Sprint(path),
				p.number.Sprint(pos.Line),
				p.number.Sprint(pos.Column))
		}
	}
}

// Summary prints a single summary line.
func (p *Printer) Summary(s models.RunSummary) {
	status := p.ok.Sprint(s.Status())
	if s.Failed() {
		status = p.fail.Sprint(s.Status())
	}
	fmt.Fprintf(p.out, "%s: %d %s in %d %s (%d searched)\n",
		status,
		s.Matches, plural(s.Matches, "match", "matches"),
		s.FilesMatched, plural(s.FilesMatched, "file", "files"),
		s.Consumed)
}

// Warn prints w in the warning color.
func (p *Printer) Warn(w Warning) {
	fmt.Fprint(p.out, p.warn.Sprint(w.Render()))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
