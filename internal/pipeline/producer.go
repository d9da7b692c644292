package pipeline

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/harrison/treegrep/internal/fileutil"
	"github.com/harrison/treegrep/internal/mask"
	"github.com/harrison/treegrep/internal/metrics"
	"github.com/harrison/treegrep/internal/queue"
)

// Worker names used in errors, logs and metrics.
const (
	WorkerProducer = metrics.WorkerProducer
	WorkerConsumer = metrics.WorkerConsumer
)

type walkFunc func(ctx context.Context, root string, opts fileutil.WalkOptions, visit fileutil.VisitFunc) error

// Producer walks a directory tree and sends every entry accepted by the
// masks to the queue, followed by a single end-of-stream item.
type Producer struct {
	Root          string
	Masks         string
	MatchBaseName bool
	Walk          fileutil.WalkOptions
	Queue         *queue.Queue
	Logger        Logger
	Metrics       *metrics.Metrics

	walk    walkFunc
	skipped []string
}

// Skipped returns the matching paths that were too large for the queue.
// Read it only after the producer's future is resolved.
func (p *Producer) Skipped() []string {
	return p.skipped
}

// Run executes the producer and resolves fut with the number of paths sent,
// or fails it. End-of-stream is sent only when the walk completes.
func (p *Producer) Run(ctx context.Context, fut *Future) {
	defer func() {
		if r := recover(); r != nil {
			fut.Fail(NewWorkerError(WorkerProducer, panicError(r)))
		}
	}()

	count, err := p.run(ctx)
	if err != nil {
		fut.Fail(NewWorkerError(WorkerProducer, err))
		return
	}
	fut.Resolve(count)
}

func (p *Producer) run(ctx context.Context) (int, error) {
	log := loggerOrNop(p.Logger)

	masks, err := mask.Compile(p.Masks)
	if err != nil {
		return 0, fmt.Errorf("invalid file mask %q: %w", p.Masks, err)
	}
	if masks.Len() == 0 {
		log.LogWarn(fmt.Sprintf("file mask %q is empty, no paths will be sent", p.Masks))
	}

	if err := p.Queue.Attach(); err != nil {
		return 0, err
	}

	walk := p.walk
	if walk == nil {
		walk = fileutil.Walk
	}

	opts := p.Walk
	if opts.SkipUnreadable && opts.OnError == nil {
		opts.OnError = func(path string, err error) {
			log.LogWarn(fmt.Sprintf("skipping unreadable %s: %v", path, err))
		}
	}

	count := 0
	err = walk(ctx, p.Root, opts, func(path string, d fs.DirEntry) error {
		if path == queue.SentinelLiteral {
			log.LogWarn(fmt.Sprintf("skipping path equal to the end-of-stream literal: %s", path))
			return nil
		}

		item := queue.PathItem(path)
		if item.Size() > p.Queue.MaxItemSize() {
			log.LogWarn(fmt.Sprintf("skipping %s: item size %d exceeds max item size %d",
				path, item.Size(), p.Queue.MaxItemSize()))
			p.Metrics.Oversized()
			p.skipped = append(p.skipped, path)
			return nil
		}

		subject := path
		if p.MatchBaseName {
			subject = d.Name()
		}
		if !masks.Match(subject) {
			p.Metrics.Filtered()
			return nil
		}

		if err := p.Queue.Send(ctx, item); err != nil {
			return err
		}

		log.LogDebug("send    : " + path)
		count++
		p.Metrics.Sent(p.Queue.Len())
		return nil
	})
	if err != nil {
		return count, err
	}

	if err := p.Queue.Send(ctx, queue.EndOfStream()); err != nil {
		return count, err
	}
	log.LogDebug(fmt.Sprintf("producer finished: %d paths sent", count))
	return count, nil
}
