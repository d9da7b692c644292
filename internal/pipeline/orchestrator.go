// Package pipeline runs the two-stage search: a producer walks the tree and
// feeds matching paths through a bounded queue to a consumer that searches
// each file. Each worker reports through a write-once Future.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harrison/treegrep/internal/fileutil"
	"github.com/harrison/treegrep/internal/grep"
	"github.com/harrison/treegrep/internal/metrics"
	"github.com/harrison/treegrep/internal/models"
	"github.com/harrison/treegrep/internal/queue"
)

// Options configures one run.
type Options struct {
	Root          string
	Masks         string
	Text          string
	Recursive     bool
	IgnoreCase    bool
	MatchBaseName bool
	ExcludeDirs   []string

	// SkipUnreadable logs and skips directories that cannot be read.
	SkipUnreadable bool

	QueueName   string
	Capacity    int
	MaxItemSize int
	RuntimeDir  string

	// Searcher overrides the default text searcher built from Text and IgnoreCase.
	Searcher grep.Searcher
}

func (o Options) withDefaults() Options {
	if o.QueueName == "" {
		o.QueueName = queue.DefaultName
	}
	if o.Capacity == 0 {
		o.Capacity = queue.DefaultCapacity
	}
	if o.MaxItemSize == 0 {
		o.MaxItemSize = queue.DefaultMaxItemSize
	}
	if o.RuntimeDir == "" {
		o.RuntimeDir = queue.DefaultDir()
	}
	if o.Searcher == nil {
		o.Searcher = grep.NewTextSearcher(o.Text, o.IgnoreCase)
	}
	return o
}

// Report is the outcome of a run.
type Report struct {
	RunID       string
	Root        string
	Produced    int
	Consumed    int
	ProducerErr error
	ConsumerErr error
	Results     models.SearchResults
	Skipped     []string // Matching paths rejected as oversized
	Duration    time.Duration
}

// Failed reports whether either worker failed.
func (r *Report) Failed() bool {
	return r.ProducerErr != nil || r.ConsumerErr != nil
}

// Err joins the worker failures, or returns nil.
func (r *Report) Err() error {
	return errors.Join(r.ProducerErr, r.ConsumerErr)
}

// Orchestrator validates the input, owns the queue and joins both workers.
type Orchestrator struct {
	opts    Options
	logger  Logger
	metrics *metrics.Metrics

	newRunID func() string
}

// NewOrchestrator creates an orchestrator. log and m may be nil.
func NewOrchestrator(opts Options, log Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		opts:     opts.withDefaults(),
		logger:   loggerOrNop(log),
		metrics:  m,
		newRunID: uuid.NewString,
	}
}

// ValidateRoot checks that root exists and is a directory.
func ValidateRoot(root string) error {
	if root == "" {
		return &ValidationError{Path: root, Reason: "path is empty"}
	}
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return &ValidationError{Path: root, Reason: "does not exist"}
		}
		return &ValidationError{Path: root, Reason: err.Error()}
	}
	if !info.IsDir() {
		return &ValidationError{Path: root, Reason: "not a directory"}
	}
	return nil
}

// Run performs one search. The returned error is non-nil only when no worker
// could be started (invalid root, queue creation failure); worker failures
// are carried in the Report.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	opts := o.opts

	if err := ValidateRoot(opts.Root); err != nil {
		o.logger.LogError(FormatDiagnostic(err))
		return nil, err
	}

	runID := o.newRunID()
	registry := queue.NewRegistry(opts.RuntimeDir, runID)

	removed, err := registry.Remove(opts.QueueName)
	if err != nil {
		o.logger.LogWarn(fmt.Sprintf("failed to remove stale queue %q: %v", opts.QueueName, err))
	} else if removed {
		o.logger.LogInfo(fmt.Sprintf("removed stale queue %q", opts.QueueName))
	}

	q, err := registry.Create(opts.QueueName, opts.Capacity, opts.MaxItemSize)
	if err != nil {
		o.logger.LogError(FormatDiagnostic(err))
		return nil, err
	}

	o.logger.LogDebug(fmt.Sprintf("run %s: queue %q capacity=%d max_item_size=%d",
		runID, q.Name(), q.Cap(), q.MaxItemSize()))

	producer := &Producer{
		Root:          opts.Root,
		Masks:         opts.Masks,
		MatchBaseName: opts.MatchBaseName,
		Walk: fileutil.WalkOptions{
			Recursive:      opts.Recursive,
			ExcludeDirs:    opts.ExcludeDirs,
			SkipUnreadable: opts.SkipUnreadable,
		},
		Queue:   q,
		Logger:  o.logger,
		Metrics: o.metrics,
	}
	consumer := NewConsumer(q, opts.Searcher, o.logger, o.metrics)

	report := o.runWorkers(ctx, producer, consumer)
	report.RunID = runID
	report.Root = opts.Root

	if err := q.Destroy(); err != nil {
		o.logger.LogWarn(fmt.Sprintf("failed to destroy queue: %v", err))
	}

	report.Duration = time.Since(start)
	o.metrics.ObserveRun(report.Duration)
	o.logger.LogInfo(fmt.Sprintf("run %s finished in %s: %d sent, %d received, %d files matched",
		runID, report.Duration.Round(time.Millisecond), report.Produced, report.Consumed, len(report.Results)))
	return report, nil
}

// runWorkers starts both workers and blocks until both futures resolve. A
// failing worker cancels its peer so a blocked Send or Receive cannot hang.
func (o *Orchestrator) runWorkers(ctx context.Context, producer *Producer, consumer *Consumer) *Report {
	prodCtx, cancelProd := context.WithCancel(ctx)
	defer cancelProd()
	consCtx, cancelCons := context.WithCancel(ctx)
	defer cancelCons()

	prodFut, consFut := NewFuture(), NewFuture()

	var g errgroup.Group
	g.Go(func() error {
		producer.Run(prodCtx, prodFut)
		return nil
	})
	g.Go(func() error {
		consumer.Run(consCtx, consFut)
		return nil
	})

	report := &Report{}
	prodDone, consDone := prodFut.Done(), consFut.Done()
	for prodDone != nil || consDone != nil {
		select {
		case <-prodDone:
			prodDone = nil
			report.Produced, report.ProducerErr = prodFut.Wait()
			if report.ProducerErr != nil {
				o.workerFailed(WorkerProducer, report.ProducerErr)
				cancelCons()
			}
		case <-consDone:
			consDone = nil
			report.Consumed, report.ConsumerErr = consFut.Wait()
			if report.ConsumerErr != nil {
				o.workerFailed(WorkerConsumer, report.ConsumerErr)
				cancelProd()
			}
		}
	}

	_ = g.Wait()
	report.Results = consumer.Results()
	report.Skipped = producer.Skipped()
	return report
}

func (o *Orchestrator) workerFailed(worker string, err error) {
	o.logger.LogError(FormatDiagnostic(err))
	o.metrics.WorkerFailed(worker, KindOf(err).String())
}

// Summary condenses the report for logging and display.
func (r *Report) Summary() models.RunSummary {
	s := models.RunSummary{
		RunID:        r.RunID,
		Root:         r.Root,
		Produced:     r.Produced,
		Consumed:     r.Consumed,
		FilesMatched: len(r.Results),
		Matches:      r.Results.MatchCount(),
		Duration:     r.Duration,
	}
	for _, err := range []error{r.ProducerErr, r.ConsumerErr} {
		if err != nil {
			s.Errors = append(s.Errors, err.Error())
		}
	}
	return s
}
