package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/logging"
)

var (
	// ErrQueueFull is returned when the backlog is at capacity.
	ErrQueueFull = errors.New("task queue is full")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("task queue is closed")
	// ErrNotFound is returned by Get for unknown IDs.
	ErrNotFound = errors.New("task not found")
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Func is the work of a task. Its result is exposed through Task.Snapshot.
type Func func(ctx context.Context) (interface{}, error)

// Task is one submitted job.
type Task struct {
	id   string
	name string
	fn   Func
	done chan struct{}

	mu       sync.Mutex
	status   Status
	result   interface{}
	err      error
	created  time.Time
	started  time.Time
	finished time.Time
}

// Snapshot is a point-in-time copy of a task's state.
type Snapshot struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Status     Status      `json:"status"`
	Result     interface{} `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// ID returns the task ID.
func (t *Task) ID() string { return t.id }

// Done is closed once the task has succeeded or failed.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-t.done:
		return t.Snapshot(), nil
	case <-ctx.Done():
		return t.Snapshot(), ctx.Err()
	}
}

// Snapshot returns the current state.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		ID:        t.id,
		Name:      t.name,
		Status:    t.status,
		Result:    t.result,
		CreatedAt: t.created,
	}
	if t.err != nil {
		s.Error = t.err.Error()
	}
	if !t.started.IsZero() {
		started := t.started
		s.StartedAt = &started
	}
	if !t.finished.IsZero() {
		finished := t.finished
		s.FinishedAt = &finished
	}
	return s
}

func (t *Task) setRunning(now time.Time) {
	t.mu.Lock()
	t.status = StatusRunning
	t.started = now
	t.mu.Unlock()
}

func (t *Task) finish(now time.Time, result interface{}, err error) {
	t.mu.Lock()
	t.result, t.err, t.finished = result, err, now
	t.status = StatusSucceeded
	if err != nil {
		t.status = StatusFailed
	}
	t.mu.Unlock()
	close(t.done)
}

// Config configures a Queue.
type Config struct {
	Workers int
	Backlog int
	// Retain bounds how many finished tasks stay queryable.
	Retain  int
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Queue runs tasks on a worker pool.
type Queue struct {
	jobs    chan *Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	retain  int

	mu       sync.RWMutex
	closed   bool
	tasks    map[string]*Task
	finished []string
}

// NewQueue starts cfg.Workers workers.
func NewQueue(cfg Config) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = 16
	}
	if cfg.Retain <= 0 {
		cfg.Retain = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:    make(chan *Task, cfg.Backlog),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logging.WithComponent(cfg.Logger, "tasks"),
		metrics: cfg.Metrics,
		retain:  cfg.Retain,
		tasks:   make(map[string]*Task),
	}
	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Submit enqueues fn under name.
func (q *Queue) Submit(name string, fn Func) (*Task, error) {
	t := &Task{
		id:      uuid.NewString(),
		name:    name,
		fn:      fn,
		done:    make(chan struct{}),
		status:  StatusPending,
		created: time.Now().UTC(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrClosed
	}
	select {
	case q.jobs <- t:
	default:
		q.metrics.RecordTask(context.Background(), name, "rejected")
		return nil, ErrQueueFull
	}
	q.tasks[t.id] = t
	q.metrics.RecordTask(context.Background(), name, string(StatusPending))
	return t, nil
}

// Get returns the task with id.
func (q *Queue) Get(id string) (*Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	t, ok := q.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// Close stops accepting tasks and waits for queued ones to finish or ctx to
// end. Running tasks see their context cancelled only when ctx ends first.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for t := range q.jobs {
		q.run(t)
	}
}

func (q *Queue) run(t *Task) {
	logger := q.logger.With(logging.Task(t.id), slog.String("name", t.name))
	t.setRunning(time.Now().UTC())
	q.metrics.RecordTask(q.ctx, t.name, string(StatusRunning))

	result, err := q.safeCall(t)
	t.finish(time.Now().UTC(), result, err)

	if err != nil {
		logger.Error("task failed", logging.Err(err))
		q.metrics.RecordTask(q.ctx, t.name, string(StatusFailed))
	} else {
		logger.Info("task succeeded")
		q.metrics.RecordTask(q.ctx, t.name, string(StatusSucceeded))
	}
	q.forget(t.id)
}

func (q *Queue) safeCall(t *Task) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t.fn(q.ctx)
}

// forget drops the oldest finished tasks beyond the retention limit.
func (q *Queue) forget(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.finished = append(q.finished, id)
	for len(q.finished) > q.retain {
		delete(q.tasks, q.finished[0])
		q.finished = q.finished[1:]
	}
}
