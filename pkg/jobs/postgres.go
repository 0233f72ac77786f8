package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
)

// PostgresStore persists jobs in the engine_jobs table so job history
// survives restarts. Status transitions are guarded in SQL, which keeps
// at-most-once execution correct across multiple engine processes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Create(ctx context.Context, kind Kind, dataset string, payload any) (*Job, error) {
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

	query := `
		INSERT INTO engine_jobs (id, kind, dataset, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.pool.Exec(ctx, query, job.ID, job.Kind, job.Dataset, job.Payload, job.Status, job.CreatedAt); err != nil {
		return nil, apperrors.Storage(err, "create job")
	}
	return job, nil
}

func (s *PostgresStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE engine_jobs
		SET status = $2, started_at = $3
		WHERE id = $1 AND status = $4`

	tag, err := s.pool.Exec(ctx, query, id, StatusRunning, time.Now().UTC(), StatusPending)
	if err != nil {
		return apperrors.Storage(err, "mark job %s running", id)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionConflict(ctx, id, StatusPending)
	}
	return nil
}

func (s *PostgresStore) Complete(ctx context.Context, id uuid.UUID, result any) error {
	raw, err := marshalPayload(result)
	if err != nil {
		return err
	}

	query := `
		UPDATE engine_jobs
		SET status = $2, completed_at = $3, result = $4
		WHERE id = $1 AND status = $5`

	tag, err := s.pool.Exec(ctx, query, id, StatusCompleted, time.Now().UTC(), raw, StatusRunning)
	if err != nil {
		return apperrors.Storage(err, "complete job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionConflict(ctx, id, StatusRunning)
	}
	return nil
}

func (s *PostgresStore) Fail(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE engine_jobs
		SET status = $2, completed_at = $3, error = $4
		WHERE id = $1 AND status = $5`

	tag, err := s.pool.Exec(ctx, query, id, StatusFailed, time.Now().UTC(), message, StatusRunning)
	if err != nil {
		return apperrors.Storage(err, "fail job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionConflict(ctx, id, StatusRunning)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `
		SELECT id, kind, dataset, payload, status, created_at, started_at, completed_at, result, error
		FROM engine_jobs
		WHERE id = $1`

	job, err := scanJob(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Storage(apperrors.ErrNotFound, "job %s", id)
		}
		return nil, apperrors.Storage(err, "get job %s", id)
	}
	return job, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*Job, error) {
	query := `
		SELECT id, kind, dataset, payload, status, created_at, started_at, completed_at, result, error
		FROM engine_jobs
		WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id`

	rows, err := s.pool.Query(ctx, query, string(filter.Kind), string(filter.Status))
	if err != nil {
		return nil, apperrors.Storage(err, "list jobs")
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, apperrors.Storage(err, "list jobs")
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "list jobs")
	}
	return out, nil
}

// transitionConflict distinguishes a missing job from one already past the
// expected state, after a guarded UPDATE touched zero rows.
func (s *PostgresStore) transitionConflict(ctx context.Context, id uuid.UUID, expected Status) error {
	var status Status
	err := s.pool.QueryRow(ctx, `SELECT status FROM engine_jobs WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.Storage(apperrors.ErrNotFound, "job %s", id)
	}
	if err != nil {
		return apperrors.Storage(err, "inspect job %s", id)
	}
	return apperrors.Storage(apperrors.ErrConflict, "job %s is %s, not %s", id, status, expected)
}

func scanJob(row pgx.Row) (*Job, error) {
	var (
		job       Job
		dataset   *string
		errorMsg  *string
		startedAt *time.Time
		doneAt    *time.Time
	)
	err := row.Scan(&job.ID, &job.Kind, &dataset, &job.Payload, &job.Status,
		&job.CreatedAt, &startedAt, &doneAt, &job.Result, &errorMsg)
	if err != nil {
		return nil, err
	}
	if dataset != nil {
		job.Dataset = *dataset
	}
	if errorMsg != nil {
		job.Error = *errorMsg
	}
	job.StartedAt = startedAt
	job.CompletedAt = doneAt
	return &job, nil
}
