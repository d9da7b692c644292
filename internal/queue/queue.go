// Package queue implements the bounded hand-off channel between the tree
// walker and the match collector.
//
// A Queue is a fixed-capacity FIFO with a per-item size limit, shared by
// exactly two participants for the lifetime of one run. Queues are created
// through a Registry under a well-known name; the name is backed by a lock
// file so that a second live instance is refused and an instance left behind
// by a crashed run can be detected and removed.
//
// Lifecycle:
//
//	reg := queue.NewRegistry(dir, runID)
//	reg.Remove(name)                       // drop a stale instance
//	q, err := reg.Create(name, 1024, 2048) // fresh instance
//	q.Attach()                             // producer
//	q.Attach()                             // consumer
//	...                                    // Send / Receive until end-of-stream
//	q.Destroy()
package queue

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/harrison/treegrep/internal/filelock"
)

// Defaults for the process-wide queue.
const (
	DefaultName        = "treegrep.queue"
	DefaultCapacity    = 1024
	DefaultMaxItemSize = 2048
)

// maxParticipants is one producer plus one consumer.
const maxParticipants = 2

// Queue is a bounded FIFO of Items. Send and Receive are safe for concurrent use.
type Queue struct {
	name        string
	capacity    int
	maxItemSize int

	items chan Item
	done  chan struct{}

	mu           sync.Mutex
	participants int
	destroyed    bool

	lock      *filelock.FileLock
	ownerPath string
	registry  *Registry
}

func newQueue(name string, capacity, maxItemSize int, lock *filelock.FileLock, ownerPath string, registry *Registry) *Queue {
	return &Queue{
		name:        name,
		capacity:    capacity,
		maxItemSize: maxItemSize,
		items:       make(chan Item, capacity),
		done:        make(chan struct{}),
		lock:        lock,
		ownerPath:   ownerPath,
		registry:    registry,
	}
}

// Name returns the queue's well-known name.
func (q *Queue) Name() string { return q.name }

// Cap returns the queue capacity in items.
func (q *Queue) Cap() int { return q.capacity }

// MaxItemSize returns the largest accepted item size in bytes, terminator included.
func (q *Queue) MaxItemSize() int { return q.maxItemSize }

// Len returns the number of items currently buffered.
func (q *Queue) Len() int { return len(q.items) }

// Attach registers a participant. A queue accepts exactly two participants;
// attaching to a destroyed queue fails with CodeNotFound.
func (q *Queue) Attach() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.destroyed {
		return newError("attach", q.name, CodeNotFound, "queue was destroyed", nil)
	}
	if q.participants >= maxParticipants {
		return newError("attach", q.name, CodeParticipants,
			fmt.Sprintf("already has %d participants", q.participants), nil)
	}
	q.participants++
	return nil
}

// TrySend enqueues item without blocking. It returns false with a nil error
// when the queue is full.
func (q *Queue) TrySend(item Item) (bool, error) {
	if err := q.checkItem(item); err != nil {
		return false, err
	}
	select {
	case <-q.done:
		return false, q.closedError("send")
	default:
	}
	select {
	case q.items <- item:
		return true, nil
	default:
		return false, nil
	}
}

// Send enqueues item, blocking while the queue is full. It returns early with
// CodeClosed when the queue is destroyed and CodeInterrupted when ctx ends.
func (q *Queue) Send(ctx context.Context, item Item) error {
	if err := q.checkItem(item); err != nil {
		return err
	}
	select {
	case <-q.done:
		return q.closedError("send")
	default:
	}
	select {
	case q.items <- item:
		return nil
	case <-q.done:
		return q.closedError("send")
	case <-ctx.Done():
		return newError("send", q.name, CodeInterrupted, "", ctx.Err())
	}
}

// Receive dequeues the oldest item, blocking until one is available.
func (q *Queue) Receive(ctx context.Context) (Item, error) {
	select {
	case item := <-q.items:
		return item, nil
	case <-q.done:
		return Item{}, q.closedError("receive")
	case <-ctx.Done():
		return Item{}, newError("receive", q.name, CodeInterrupted, "", ctx.Err())
	}
}

// Destroy closes the queue, wakes blocked senders and receivers, releases the
// name and deletes its lock file. It is safe to call more than once.
func (q *Queue) Destroy() error {
	q.mu.Lock()
	if q.destroyed {
		q.mu.Unlock()
		return nil
	}
	q.destroyed = true
	close(q.done)
	q.mu.Unlock()

	if q.registry != nil {
		q.registry.unregister(q)
	}
	return q.release()
}

func (q *Queue) release() error {
	if q.lock == nil {
		return nil
	}
	if err := q.lock.Unlock(); err != nil {
		return newError("destroy", q.name, CodeResource, "", err)
	}
	for _, path := range []string{q.lock.Path(), q.ownerPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return newError("destroy", q.name, CodeResource, "", err)
		}
	}
	return nil
}

func (q *Queue) checkItem(item Item) error {
	if size := item.Size(); size > q.maxItemSize {
		return newError("send", q.name, CodeOversized,
			fmt.Sprintf("item of %d bytes exceeds max item size %d", size, q.maxItemSize), nil)
	}
	return nil
}

func (q *Queue) closedError(op string) error {
	return newError(op, q.name, CodeClosed, "queue was destroyed", nil)
}
