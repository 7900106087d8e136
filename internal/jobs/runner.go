package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/ingest"
	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/google/uuid"
)

// Task is the body of a background import.
type Task func(ctx context.Context) (ingest.Summary, error)

// Runner runs tasks on their own goroutines, detached from the request that
// started them, and records their progress in Store.
type Runner struct {
	Store Store

	wg  sync.WaitGroup
	now func() time.Time
}

func NewRunner(store Store) *Runner {
	return &Runner{Store: store, now: time.Now}
}

// Start records a pending job and launches task. The returned job is the pending snapshot.
func (r *Runner) Start(ctx context.Context, source string, task Task) (*Job, error) {
	now := r.clock()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	bg := context.WithoutCancel(ctx)
	snapshot := *job
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(bg, job, task)
	}()
	return &snapshot, nil
}

// Wait blocks until every started task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, job *Job, task Task) {
	l := logging.FromContext(ctx).With("component", "jobs", "job_id", job.ID, "source", job.Source)

	job.Status = StatusRunning
	job.UpdatedAt = r.clock()
	if err := r.Store.Save(ctx, job); err != nil {
		l.Error("job_save_failed", "status", job.Status, "error", err)
	}
	l.Info("job_started")

	sum, err := r.safeRun(ctx, task)
	job.UpdatedAt = r.clock()
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		l.Error("job_failed", "error", err)
	} else {
		job.Status = StatusCompleted
		l.Info("job_completed", "created", sum.Created, "errors", sum.Errors)
	}
	if sum.ErrorDetails == nil {
		sum.ErrorDetails = []ingest.ErrorDetail{}
	}
	job.Result = &sum

	if err := r.Store.Save(ctx, job); err != nil {
		l.Error("job_save_failed", "status", job.Status, "error", err)
	}
}

func (r *Runner) safeRun(ctx context.Context, task Task) (sum ingest.Summary, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return task(ctx)
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now().UTC()
	}
	return r.now().UTC()
}
