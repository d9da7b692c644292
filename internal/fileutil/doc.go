// Package fileutil walks directory trees for the producer side of a search.
//
// Walk visits entries in lexical order, which makes every traversal of an
// unchanged tree deterministic. Both files and directories are reported to
// the visitor; the root itself is not.
//
// Non-recursive walk of the immediate children only:
//
//	err := fileutil.Walk(ctx, ".", fileutil.WalkOptions{}, func(path string, d fs.DirEntry) error {
//	    fmt.Println(path)
//	    return nil
//	})
//
// Recursive walk skipping VCS metadata and tolerating unreadable directories:
//
//	opts := fileutil.WalkOptions{
//	    Recursive:      true,
//	    ExcludeDirs:    []string{".git", "node_modules"},
//	    SkipUnreadable: true,
//	    OnError: func(path string, err error) {
//	        log.Printf("skipping %s: %v", path, err)
//	    },
//	}
//
// A visitor error stops the walk and is returned unchanged. By default an
// unreadable entry also stops the walk; SkipUnreadable turns that into a
// reported, non-fatal skip.
package fileutil
