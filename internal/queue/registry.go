package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/harrison/treegrep/internal/filelock"
)

// Registry maps well-known names to live queues. Each live name holds a lock
// file in the registry directory for as long as its queue exists.
type Registry struct {
	dir   string
	owner string

	mu     sync.Mutex
	queues map[string]*Queue
}

// DefaultDir returns the default runtime directory for queue lock files.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "treegrep")
}

// NewRegistry creates a registry keeping lock files in dir. owner identifies
// the creating run and is recorded next to each lock for diagnostics.
// An empty dir selects DefaultDir.
func NewRegistry(dir, owner string) *Registry {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Registry{
		dir:    dir,
		owner:  owner,
		queues: make(map[string]*Queue),
	}
}

// Dir returns the runtime directory.
func (r *Registry) Dir() string {
	return r.dir
}

func (r *Registry) lockPath(name string) string {
	return filepath.Join(r.dir, name+".lock")
}

func (r *Registry) ownerPath(name string) string {
	return filepath.Join(r.dir, name+".owner")
}

// Create makes a new queue under name. It fails with CodeAlreadyExists when
// the name is live in this process or locked by another live process.
func (r *Registry) Create(name string, capacity, maxItemSize int) (*Queue, error) {
	if err := validateName(name); err != nil {
		return nil, newError("create", name, CodeInvalidArgument, err.Error(), nil)
	}
	if capacity <= 0 {
		return nil, newError("create", name, CodeInvalidArgument,
			fmt.Sprintf("capacity must be > 0, got %d", capacity), nil)
	}
	if minSize := EndOfStream().Size(); maxItemSize < minSize {
		return nil, newError("create", name, CodeInvalidArgument,
			fmt.Sprintf("max item size must be >= %d, got %d", minSize, maxItemSize), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.queues[name]; exists {
		return nil, newError("create", name, CodeAlreadyExists, "queue is live in this process", nil)
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, newError("create", name, CodeResource, "", err)
	}

	lock := filelock.NewFileLock(r.lockPath(name))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, newError("create", name, CodeResource, "", err)
	}
	if !acquired {
		msg := fmt.Sprintf("lock %s is held by another process", lock.Path())
		if owner, err := r.Owner(name); err == nil && owner != "" {
			msg += " (" + strings.ReplaceAll(owner, "\n", " ") + ")"
		}
		return nil, newError("create", name, CodeAlreadyExists, msg, nil)
	}

	owner := fmt.Sprintf("pid=%d\nrun=%s\n", os.Getpid(), r.owner)
	if err := filelock.AtomicWrite(r.ownerPath(name), []byte(owner)); err != nil {
		lock.Unlock()
		return nil, newError("create", name, CodeResource, "", err)
	}

	q := newQueue(name, capacity, maxItemSize, lock, r.ownerPath(name), r)
	r.queues[name] = q
	return q, nil
}

// Open returns the live queue registered under name.
func (r *Registry) Open(name string) (*Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[name]
	if !ok {
		return nil, newError("open", name, CodeNotFound, "no such queue", nil)
	}
	return q, nil
}

// Remove drops the queue registered under name. A live in-process queue is
// destroyed; a lock file whose owner is gone is deleted. A lock held by
// another live process is left in place and Remove reports false.
func (r *Registry) Remove(name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, newError("remove", name, CodeInvalidArgument, err.Error(), nil)
	}

	r.mu.Lock()
	q, live := r.queues[name]
	r.mu.Unlock()
	if live {
		return true, q.Destroy()
	}

	lockPath := r.lockPath(name)
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		return false, nil
	}

	lock := filelock.NewFileLock(lockPath)
	acquired, err := lock.TryLock()
	if err != nil {
		return false, newError("remove", name, CodeResource, "", err)
	}
	if !acquired {
		return false, nil
	}
	if err := lock.Unlock(); err != nil {
		return false, newError("remove", name, CodeResource, "", err)
	}
	for _, path := range []string{lockPath, r.ownerPath(name)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return false, newError("remove", name, CodeResource, "", err)
		}
	}
	return true, nil
}

// Owner returns the owner record written by the creator of name, if any.
func (r *Registry) Owner(name string) (string, error) {
	data, err := os.ReadFile(r.ownerPath(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (r *Registry) unregister(q *Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queues[q.name] == q {
		delete(r.queues, q.name)
	}
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("name %q must not contain path separators", name)
	}
	return nil
}
