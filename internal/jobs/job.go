package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/ingest"
)

// DefaultTTL is how long a finished job stays queryable.
const DefaultTTL = 24 * time.Hour

var ErrJobNotFound = errors.New("job not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Job struct {
	ID        string          `json:"job_id"`
	Status    Status          `json:"status"`
	Source    string          `json:"source"`
	Result    *ingest.Summary `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Store keeps job state. Save overwrites any previous state of the same job.
type Store interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
}
