// Package display formats what treegrep prints to the terminal.
//
// Match lines go to stdout in grep style, one line per hit:
//
//	printer := display.NewPrinter(os.Stdout, display.ColorEnabled(os.Stdout))
//	printer.Matches(report.Results)
//	printer.Summary(report.Summary())
//
// Warnings go to stderr with an optional file list and suggestion:
//
//	warning := display.Warning{
//	    Title:      "No files matched",
//	    Message:    `mask "*.cpp" matched nothing under ./src`,
//	    Suggestion: "Use --recursive to search subdirectories",
//	}
//	display.NewPrinter(os.Stderr, false).Warn(warning)
//
// Colors come from fatih/color and are enabled only when the writer is a
// terminal and NO_COLOR is unset.
package display
