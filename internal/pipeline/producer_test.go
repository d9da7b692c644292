package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/treegrep/internal/fileutil"
	"github.com/harrison/treegrep/internal/metrics"
	"github.com/harrison/treegrep/internal/queue"
)

type fakeEntry struct{ name string }

func (e fakeEntry) Name() string               { return e.name }
func (e fakeEntry) IsDir() bool                { return false }
func (e fakeEntry) Type() fs.FileMode          { return 0 }
func (e fakeEntry) Info() (fs.FileInfo, error) { return nil, errors.New("no info") }

// fakeWalk visits paths in order and then returns err.
func fakeWalk(paths []string, err error) walkFunc {
	return func(ctx context.Context, root string, opts fileutil.WalkOptions, visit fileutil.VisitFunc) error {
		for _, p := range paths {
			if verr := visit(p, fakeEntry{name: filepath.Base(p)}); verr != nil {
				return verr
			}
		}
		return err
	}
}

// drain receives everything currently buffered.
func drain(t *testing.T, q *queue.Queue) []queue.Item {
	t.Helper()
	var items []queue.Item
	for q.Len() > 0 {
		item, err := q.Receive(context.Background())
		require.NoError(t, err)
		items = append(items, item)
	}
	return items
}

func paths(items []queue.Item) []string {
	var out []string
	for _, item := range items {
		if !item.IsEndOfStream() {
			out = append(out, item.Path)
		}
	}
	return out
}

func TestProducerSendsMatchesThenEndOfStream(t *testing.T) {
	root := buildTree(t)
	q := newQueue(t, 16, 1024)
	log := &recordingLogger{}
	m := metrics.New()

	p := &Producer{
		Root:    root,
		Masks:   "*.txt;*.log",
		Walk:    fileutil.WalkOptions{Recursive: true},
		Queue:   q,
		Logger:  log,
		Metrics: m,
	}
	fut := NewFuture()
	p.Run(context.Background(), fut)

	count, err := fut.Wait()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	items := drain(t, q)
	require.Len(t, items, 4)
	assert.Equal(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "b.log"),
		filepath.Join(root, "sub", "c.txt"),
	}, paths(items))
	assert.True(t, items[3].IsEndOfStream(), "end-of-stream is last")

	assert.True(t, log.contains("DEBUG send    : "+filepath.Join(root, "a.txt")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ItemsSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntriesFiltered), "the sub directory matches no mask")
}

func TestProducerNonRecursive(t *testing.T) {
	root := buildTree(t)
	q := newQueue(t, 16, 1024)

	p := &Producer{Root: root, Masks: "*.txt", Queue: q}
	fut := NewFuture()
	p.Run(context.Background(), fut)

	count, err := fut.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{filepath.Join(root, "a.txt")}, paths(drain(t, q)))
}

func TestProducerMatchBaseName(t *testing.T) {
	root := buildTree(t)

	for _, tt := range []struct {
		baseName bool
		want     int
	}{
		{baseName: false, want: 0},
		{baseName: true, want: 1},
	} {
		q := newQueue(t, 16, 1024)
		p := &Producer{Root: root, Masks: "a.txt", MatchBaseName: tt.baseName, Queue: q}
		fut := NewFuture()
		p.Run(context.Background(), fut)

		count, err := fut.Wait()
		require.NoError(t, err)
		assert.Equal(t, tt.want, count, "MatchBaseName=%v", tt.baseName)
	}
}

func TestProducerSkipsOversizedPaths(t *testing.T) {
	root := t.TempDir()
	short := filepath.Join(root, "a.txt")
	long := filepath.Join(root, strings.Repeat("x", 40)+".txt")
	require.NoError(t, os.WriteFile(short, nil, 0644))
	require.NoError(t, os.WriteFile(long, nil, 0644))

	// short fits exactly with its terminator.
	q := newQueue(t, 16, len(short)+1)
	log := &recordingLogger{}
	m := metrics.New()

	p := &Producer{Root: root, Masks: "*.txt", Queue: q, Logger: log, Metrics: m}
	fut := NewFuture()
	p.Run(context.Background(), fut)

	count, err := fut.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "oversized paths are not counted")

	items := drain(t, q)
	assert.Equal(t, []string{short}, paths(items))
	assert.True(t, items[len(items)-1].IsEndOfStream())
	assert.True(t, log.contains("WARN skipping "+long))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsOversized))
	assert.Equal(t, []string{long}, p.Skipped())
}

func TestProducerReportsOversizedBeforeMasks(t *testing.T) {
	q := newQueue(t, 16, 18)
	log := &recordingLogger{}
	m := metrics.New()

	long := "/r/" + strings.Repeat("y", 17) + ".log"
	p := &Producer{
		Root:    "/r",
		Masks:   "*.txt",
		Queue:   q,
		Logger:  log,
		Metrics: m,
		walk:    fakeWalk([]string{"/r/a.txt", long}, nil),
	}
	fut := NewFuture()
	p.Run(context.Background(), fut)

	count, err := fut.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"/r/a.txt"}, paths(drain(t, q)))

	assert.True(t, log.contains("WARN skipping "+long), "oversized entries are reported even when no mask matches")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsOversized))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.EntriesFiltered))
	assert.Equal(t, []string{long}, p.Skipped())
}

func TestProducerSkipsSentinelLiteral(t *testing.T) {
	q := newQueue(t, 16, 1024)
	log := &recordingLogger{}

	p := &Producer{
		Masks:  "*",
		Queue:  q,
		Logger: log,
		walk:   fakeWalk([]string{"one", queue.SentinelLiteral, "two"}, nil),
	}
	fut := NewFuture()
	p.Run(context.Background(), fut)

	count, err := fut.Wait()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"one", "two"}, paths(drain(t, q)))
	assert.True(t, log.contains("WARN skipping path equal to the end-of-stream literal"))
}

func TestProducerFailureSendsNoEndOfStream(t *testing.T) {
	q := newQueue(t, 16, 1024)
	boom := errors.New("disk vanished")

	p := &Producer{
		Masks: "*",
		Queue: q,
		walk:  fakeWalk([]string{"one", "two"}, boom),
	}
	fut := NewFuture()
	p.Run(context.Background(), fut)

	_, err := fut.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindGeneric, KindOf(err))

	items := drain(t, q)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.False(t, item.IsEndOfStream())
	}
}

func TestProducerInvalidMask(t *testing.T) {
	q := newQueue(t, 16, 1024)
	p := &Producer{Root: t.TempDir(), Masks: "x{2,1}", Queue: q}
	fut := NewFuture()
	p.Run(context.Background(), fut)

	_, err := fut.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file mask")
	assert.Equal(t, 0, q.Len())
}

func TestProducerPanicIsCaptured(t *testing.T) {
	q := newQueue(t, 16, 1024)
	p := &Producer{
		Masks: "*",
		Queue: q,
		walk: func(context.Context, string, fileutil.WalkOptions, fileutil.VisitFunc) error {
			panic("walker exploded")
		},
	}
	fut := NewFuture()
	assert.NotPanics(t, func() { p.Run(context.Background(), fut) })

	_, err := fut.Wait()
	var we *WorkerError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, WorkerProducer, we.Worker)
	assert.Equal(t, KindGeneric, we.Kind)
	assert.Contains(t, err.Error(), "walker exploded")
}

func TestProducerInterruptedWhileFull(t *testing.T) {
	q := newQueue(t, 1, 1024)
	p := &Producer{
		Masks: "*",
		Queue: q,
		walk:  fakeWalk([]string{"one", "two", "three"}, nil),
	}

	ctx, cancel := context.WithCancel(context.Background())
	fut := NewFuture()
	go p.Run(ctx, fut)

	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	_, err := fut.Wait()
	require.Error(t, err)
	assert.Equal(t, KindChannel, KindOf(err))
	assert.Equal(t, queue.CodeInterrupted, queue.CodeOf(err))
}
