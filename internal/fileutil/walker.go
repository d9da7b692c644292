package fileutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WalkOptions configures a directory walk.
type WalkOptions struct {
	// Recursive descends into subdirectories; otherwise only the root's
	// immediate children are visited.
	Recursive bool
	// ExcludeDirs lists directory names that are neither visited nor descended.
	ExcludeDirs []string
	// SkipUnreadable turns access errors into skips instead of aborting.
	SkipUnreadable bool
	// OnError is called for every skipped access error (optional).
	OnError func(path string, err error)
}

// VisitFunc is called once per entry with its root-joined path.
type VisitFunc func(path string, d fs.DirEntry) error

// Walk traverses root in lexical order and calls visit for every entry
// below it. The context is checked before each entry.
func Walk(ctx context.Context, root string, opts WalkOptions, visit VisitFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", root)
	}

	excludeMap := make(map[string]bool, len(opts.ExcludeDirs))
	for _, dir := range opts.ExcludeDirs {
		excludeMap[dir] = true
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if !opts.SkipUnreadable {
				return fmt.Errorf("error accessing %s: %w", path, err)
			}
			if opts.OnError != nil {
				opts.OnError(path, err)
			}
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		if d.IsDir() && excludeMap[d.Name()] {
			return filepath.SkipDir
		}

		if err := visit(path, d); err != nil {
			return err
		}

		if d.IsDir() && !opts.Recursive {
			return filepath.SkipDir
		}
		return nil
	})
}
