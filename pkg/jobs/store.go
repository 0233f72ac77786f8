package jobs

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
)

// Store persists jobs and is the single mutation path for their status.
// MarkRunning rejects any job that is not pending, which gives each job
// at-most-once execution even with concurrent workers.
type Store interface {
	Create(ctx context.Context, kind Kind, dataset string, payload any) (*Job, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, result any) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	List(ctx context.Context, filter Filter) ([]*Job, error)
}

// MemoryStore keeps jobs in process memory. Suitable for single-node
// deployments and tests; state is lost on restart.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*Job)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, kind Kind, dataset string, payload any) (*Job, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        uuid.New(),
		Kind:      kind,
		Dataset:   dataset,
		Payload:   raw,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return job.Clone(), nil
}

func (s *MemoryStore) MarkRunning(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return apperrors.Storage(apperrors.ErrNotFound, "job %s", id)
	}
	if job.Status != StatusPending {
		return apperrors.Storage(apperrors.ErrConflict, "job %s is %s, not pending", id, job.Status)
	}

	now := time.Now().UTC()
	job.Status = StatusRunning
	job.StartedAt = &now
	return nil
}

func (s *MemoryStore) Complete(_ context.Context, id uuid.UUID, result any) error {
	raw, err := marshalPayload(result)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return apperrors.Storage(apperrors.ErrNotFound, "job %s", id)
	}
	if job.Status != StatusRunning {
		return apperrors.Storage(apperrors.ErrConflict, "job %s is %s, not running", id, job.Status)
	}

	now := time.Now().UTC()
	job.Status = StatusCompleted
	job.CompletedAt = &now
	job.Result = raw
	return nil
}

func (s *MemoryStore) Fail(_ context.Context, id uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return apperrors.Storage(apperrors.ErrNotFound, "job %s", id)
	}
	if job.Status != StatusRunning {
		return apperrors.Storage(apperrors.ErrConflict, "job %s is %s, not running", id, job.Status)
	}

	now := time.Now().UTC()
	job.Status = StatusFailed
	job.CompletedAt = &now
	job.Error = message
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.Storage(apperrors.ErrNotFound, "job %s", id)
	}
	return job.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.matches(job) {
			out = append(out, job.Clone())
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID.String() < out[k].ID.String()
		}
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out, nil
}

func marshalPayload(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Storage(err, "encode job payload")
	}
	return raw, nil
}
