package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/harrison/treegrep/internal/grep"
	"github.com/harrison/treegrep/internal/metrics"
	"github.com/harrison/treegrep/internal/models"
	"github.com/harrison/treegrep/internal/queue"
)

// State is a consumer lifecycle state.
type State int32

const (
	StateAttaching State = iota
	StateReceiving
	StateProcessing
	StateDone
	StateFailed
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateAttaching:
		return "attaching"
	case StateReceiving:
		return "receiving"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Consumer drains paths from the queue until end-of-stream, searches each
// file and collects the match positions.
type Consumer struct {
	Queue    *queue.Queue
	Searcher grep.Searcher
	Logger   Logger
	Metrics  *metrics.Metrics

	state   atomic.Int32
	once    sync.Once
	results models.SearchResults
}

// NewConsumer returns a consumer reading from q.
func NewConsumer(q *queue.Queue, searcher grep.Searcher, log Logger, m *metrics.Metrics) *Consumer {
	return &Consumer{
		Queue:    q,
		Searcher: searcher,
		Logger:   log,
		Metrics:  m,
	}
}

// State returns the current lifecycle state. Safe for concurrent use.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	c.state.Store(int32(s))
}

// Results returns the collected positions. Read it only after the consumer's
// future is resolved.
func (c *Consumer) Results() models.SearchResults {
	c.init()
	return c.results
}

func (c *Consumer) init() {
	c.once.Do(func() {
		if c.results == nil {
			c.results = models.NewSearchResults()
		}
	})
}

// Run executes the consumer and resolves fut with the number of paths
// processed, or fails it.
func (c *Consumer) Run(ctx context.Context, fut *Future) {
	defer func() {
		if r := recover(); r != nil {
			c.setState(StateFailed)
			fut.Fail(NewWorkerError(WorkerConsumer, panicError(r)))
		}
	}()

	count, err := c.run(ctx)
	if err != nil {
		c.setState(StateFailed)
		fut.Fail(NewWorkerError(WorkerConsumer, err))
		return
	}
	c.setState(StateDone)
	fut.Resolve(count)
}

func (c *Consumer) run(ctx context.Context) (int, error) {
	log := loggerOrNop(c.Logger)
	c.init()

	c.setState(StateAttaching)
	if err := c.Queue.Attach(); err != nil {
		return 0, err
	}

	count := 0
	for {
		c.setState(StateReceiving)
		item, err := c.Queue.Receive(ctx)
		if err != nil {
			return count, err
		}
		if item.IsEndOfStream() {
			log.LogDebug(fmt.Sprintf("consumer finished: %d paths received", count))
			return count, nil
		}

		c.setState(StateProcessing)
		log.LogDebug("received:" + item.Path)

		positions, err := c.search(ctx, item.Path)
		if err != nil {
			if ctx.Err() != nil {
				return count, ctx.Err()
			}
			log.LogWarn(fmt.Sprintf("failed to search %s: %v", item.Path, err))
			c.Metrics.ReadFailed()
		}
		c.results.Add(item.Path, positions...)

		count++
		c.Metrics.Received(len(positions), c.Queue.Len())
	}
}

func (c *Consumer) search(ctx context.Context, path string) ([]models.Position, error) {
	if c.Searcher == nil {
		return nil, nil
	}
	return c.Searcher.Search(ctx, path)
}
