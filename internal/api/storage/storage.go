package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cuongbtq/minutes-be/internal/api/domain"
	"github.com/cuongbtq/minutes-be/internal/api/model"
	"github.com/cuongbtq/minutes-be/shared/postgresql"
	"github.com/jmoiron/sqlx"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

func (s *Storage) CreateJob(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, kind, status, file_path,
			original_filename, chunk_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.Kind,
		job.Status,
		job.FilePath,
		job.OriginalFilename,
		job.ChunkCount,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	query := `
		SELECT
			job_id, kind, status, file_path, original_filename, worker_id,
			chunk_count, processing_time_ms, result, error_message, metadata,
			created_at, updated_at, started_at, completed_at
		FROM jobs
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

type JobFilter struct {
	Kind     string
	Status   string
	PageSize int
	Cursor   *JobCursor
}

type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `
        SELECT
            job_id, kind, status, file_path, original_filename, worker_id,
            chunk_count, processing_time_ms, result, error_message, metadata,
            created_at, updated_at, started_at, completed_at
        FROM jobs
        WHERE 1=1
    `
	args := []interface{}{}
	argIdx := 1

	// Filters
	if filter.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argIdx)
		args = append(args, filter.Kind)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	// Order by created_at DESC, job_id DESC for consistent pagination
	query += " ORDER BY created_at DESC, job_id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []model.Job
	err := s.db.SelectContext(ctx, &jobs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

func (s *Storage) GetTranscript(ctx context.Context, jobID string) (*model.Transcript, error) {
	var rec model.Transcript
	query := `
		SELECT job_id, transcript_text, meeting_name, model, model_name, chunk_size_ms, overlap_ms, created_at
		FROM transcripts
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &rec, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	return &rec, nil
}

// PurgedJob carries what the purge hook needs to remove on-disk artifacts
// after the rows are gone.
type PurgedJob struct {
	JobID    string `db:"job_id"`
	FilePath string `db:"file_path"`
	Result   []byte `db:"result"`
}

// PurgeJobs deletes terminal jobs created before the cutoff and returns them
// so the caller can clean up their files. Transcript rows go with their job
// via the FK cascade.
func (s *Storage) PurgeJobs(ctx context.Context, cutoff time.Time) ([]PurgedJob, error) {
	query := `
		DELETE FROM jobs
		WHERE created_at < $1
		  AND status IN ($2, $3)
		RETURNING job_id, file_path, result
	`

	var purged []PurgedJob
	err := s.db.SelectContext(ctx, &purged, query, cutoff, domain.JobStatusCompleted, domain.JobStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to purge jobs: %w", err)
	}

	return purged, nil
}
