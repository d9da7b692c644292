package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harrison/treegrep/internal/queue"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("%s %s", level, message))
}

func (l *recordingLogger) LogDebug(message string) { l.record("DEBUG", message) }
func (l *recordingLogger) LogInfo(message string)  { l.record("INFO", message) }
func (l *recordingLogger) LogWarn(message string)  { l.record("WARN", message) }
func (l *recordingLogger) LogError(message string) { l.record("ERROR", message) }

func (l *recordingLogger) contains(prefix string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// buildTree creates root/a.txt, root/b.log and root/sub/c.txt.
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"a.txt":     "hello world\n",
		"b.log":     "log line\nhello\n",
		"sub/c.txt": "nothing here\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func newQueue(t *testing.T, capacity, maxItemSize int) *queue.Queue {
	t.Helper()
	reg := queue.NewRegistry(t.TempDir(), "test-run")
	q, err := reg.Create("pipeline.queue", capacity, maxItemSize)
	require.NoError(t, err)
	t.Cleanup(func() { q.Destroy() })
	return q
}
