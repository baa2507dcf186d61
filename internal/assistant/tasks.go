package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/smallbiznis/scanprice/internal/cache"
	"github.com/smallbiznis/scanprice/internal/clock"
	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/smallbiznis/scanprice/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
)

const (
	KindDescription = "description"
	KindVideo       = "video"
)

const taskTTL = time.Hour

// Task is one generation request. Subject ties requests from the same
// editing form together: only the newest task per subject may surface a
// result.
type Task struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Status    Status    `json:"status"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t Task) Finished() bool {
	switch t.Status {
	case StatusSucceeded, StatusFailed, StatusSuperseded:
		return true
	}
	return false
}

type Params struct {
	fx.In

	Generator Generator
	Config    config.Config
	Clock     clock.Clock
	Log       *zap.Logger
	Metrics   *metrics.Metrics `optional:"true"`
}

type Tasks struct {
	gen          Generator
	clock        clock.Clock
	log          *zap.Logger
	metrics      *metrics.Metrics
	pollInterval time.Duration
	pool         *ants.Pool

	mu      sync.Mutex
	tasks   cache.Cache[string, Task]
	latest  cache.Cache[string, string]
	cancels map[string]context.CancelFunc
	base    context.Context
	stop    context.CancelFunc
}

func NewTasks(p Params) (*Tasks, error) {
	cfg := p.Config.Assistant
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	log := p.Log.Named("assistant.tasks")
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v interface{}) {
			log.Error("assistant task panicked", zap.Any("panic", v))
		}),
	)
	if err != nil {
		return nil, err
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	base, stop := context.WithCancel(context.Background())
	return &Tasks{
		gen:          p.Generator,
		clock:        p.Clock,
		log:          log,
		metrics:      p.Metrics,
		pollInterval: pollInterval,
		pool:         pool,
		tasks:        cache.NewTTLCacheWithClock[string, Task](p.Clock.Now),
		latest:       cache.NewTTLCacheWithClock[string, string](p.Clock.Now),
		cancels:      make(map[string]context.CancelFunc),
		base:         base,
		stop:         stop,
	}, nil
}

func (t *Tasks) Describe(ctx context.Context, subject, productName string) (Task, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return Task{}, ErrInvalidInput
	}
	return t.submit(subject, KindDescription, func(ctx context.Context) (string, error) {
		return t.gen.Describe(ctx, name)
	})
}

func (t *Tasks) Video(ctx context.Context, subject string, req VideoRequest) (Task, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Task{}, ErrInvalidInput
	}
	return t.submit(subject, KindVideo, func(ctx context.Context) (string, error) {
		return t.runVideo(ctx, req)
	})
}

func (t *Tasks) Get(id string) (Task, error) {
	task, ok := t.tasks.Get(strings.TrimSpace(id))
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return task, nil
}

// Latest returns the newest task for subject.
func (t *Tasks) Latest(subject string) (Task, error) {
	id, ok := t.latest.Get(subject)
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return t.Get(id)
}

// Close cancels in-flight work and waits for the pool to drain.
func (t *Tasks) Close(ctx context.Context) error {
	t.stop()
	return t.pool.ReleaseTimeout(deadline(ctx))
}

func (t *Tasks) submit(subject, kind string, run func(ctx context.Context) (string, error)) (Task, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Task{}, ErrInvalidInput
	}
	now := t.clock.Now()
	task := Task{
		ID:        ulid.Make().String(),
		Kind:      kind,
		Subject:   subject,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ctx, cancel := context.WithCancel(t.base)

	t.mu.Lock()
	if n := t.tasks.Purge() + t.latest.Purge(); n > 0 {
		t.log.Debug("expired assistant tasks purged", zap.Int("entries", n))
	}
	if prevID, ok := t.latest.Get(subject); ok {
		t.supersedeLocked(prevID)
	}
	t.tasks.Set(task.ID, task, taskTTL)
	t.latest.Set(subject, task.ID, taskTTL)
	t.cancels[task.ID] = cancel
	t.mu.Unlock()

	err := t.pool.Submit(func() {
		t.setStatus(task.ID, StatusRunning)
		result, err := run(ctx)
		t.complete(task.ID, result, err)
	})
	if err != nil {
		t.complete(task.ID, "", fmt.Errorf("assistant busy: %w", err))
		current, _ := t.Get(task.ID)
		return current, err
	}
	return task, nil
}

func (t *Tasks) runVideo(ctx context.Context, req VideoRequest) (string, error) {
	op, err := t.gen.StartVideo(ctx, req)
	if err != nil {
		return "", err
	}
	timer := time.NewTimer(t.pollInterval)
	defer timer.Stop()
	for !op.Done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
		if op, err = t.gen.PollVideo(ctx, op); err != nil {
			return "", err
		}
		timer.Reset(t.pollInterval)
	}
	if op.Error != "" {
		return "", errors.New(op.Error)
	}
	return op.VideoURI, nil
}

func (t *Tasks) setStatus(id string, status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks.Get(id)
	if !ok || task.Finished() {
		return
	}
	task.Status = status
	task.UpdatedAt = t.clock.Now()
	t.tasks.Set(id, task, taskTTL)
}

// complete stores the outcome unless the task was superseded meanwhile, in
// which case the result is dropped.
func (t *Tasks) complete(id, result string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cancel, ok := t.cancels[id]; ok {
		cancel()
		delete(t.cancels, id)
	}
	task, ok := t.tasks.Get(id)
	if !ok || task.Status == StatusSuperseded {
		t.metrics.RecordAssistantTask(context.Background(), kindOf(task), string(StatusSuperseded))
		return
	}
	if latest, ok := t.latest.Get(task.Subject); !ok || latest != id {
		task.Status = StatusSuperseded
	} else if err != nil {
		task.Status = StatusFailed
		task.Error = err.Error()
		t.log.Warn("assistant task failed", zap.String("task_id", id), zap.String("kind", task.Kind), zap.Error(err))
	} else {
		task.Status = StatusSucceeded
		task.Result = result
	}
	task.UpdatedAt = t.clock.Now()
	t.tasks.Set(id, task, taskTTL)
	t.metrics.RecordAssistantTask(context.Background(), task.Kind, string(task.Status))
}

func (t *Tasks) supersedeLocked(id string) {
	task, ok := t.tasks.Get(id)
	if !ok || task.Finished() {
		return
	}
	task.Status = StatusSuperseded
	task.UpdatedAt = t.clock.Now()
	t.tasks.Set(id, task, taskTTL)
	if cancel, ok := t.cancels[id]; ok {
		cancel()
	}
}

func kindOf(task Task) string {
	if task.Kind == "" {
		return "unknown"
	}
	return task.Kind
}

func deadline(ctx context.Context) time.Duration {
	if d, ok := ctx.Deadline(); ok {
		if remaining := time.Until(d); remaining > 0 {
			return remaining
		}
	}
	return 5 * time.Second
}
