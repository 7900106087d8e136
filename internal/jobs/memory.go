package jobs

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	job     Job
	expires time.Time
}

// MemoryStore keeps jobs in process memory. Used when no redis address is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{jobs: map[string]memoryEntry{}, ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.jobs {
		if now.After(e.expires) {
			delete(s.jobs, id)
		}
	}
	s.jobs[job.ID] = memoryEntry{job: copyJob(job), expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.jobs[id]
	if !ok || s.now().After(e.expires) {
		return nil, ErrJobNotFound
	}
	j := copyJob(&e.job)
	return &j, nil
}

func copyJob(j *Job) Job {
	out := *j
	if j.Result != nil {
		r := *j.Result
		r.ErrorDetails = append(r.ErrorDetails[:0:0], j.Result.ErrorDetails...)
		out.Result = &r
	}
	return out
}
