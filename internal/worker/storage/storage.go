package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/minutes-be/internal/worker/domain"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for the worker: the job store
// and the transcript store.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimJob attempts to claim a pending job using optimistic locking.
// A second delivery for the same job finds nothing to claim and gets
// ErrJobAlreadyClaimed, so each job_id is processed at most once.
func (s *Storage) ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET worker_id = $1,
		    started_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $2
		  AND status = $3
		  AND worker_id IS NULL
		RETURNING job_id, kind, status, file_path, original_filename, chunk_count, created_at, started_at
	`

	var job domain.Job
	var startedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, workerID, jobID, domain.JobStatusPending).Scan(
		&job.JobID,
		&job.Kind,
		&job.Status,
		&job.FilePath,
		&job.OriginalFilename,
		&job.ChunkCount,
		&job.CreatedAt,
		&startedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			s.logger.Warn("Failed to claim job - already claimed or not found",
				slog.String("job_id", jobID),
				slog.String("worker_id", workerID),
			)
			return nil, domain.ErrJobAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	job.WorkerID = workerID
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}

	s.logger.Info("Job claimed successfully",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
		slog.String("kind", job.Kind),
	)

	return &job, nil
}

// UpdateStatus advances a job to a new non-terminal status. The WHERE guard
// refuses transitions out of COMPLETED / FAILED, so terminal states are
// monotonic at the store level as well.
func (s *Storage) UpdateStatus(ctx context.Context, jobID, status string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    updated_at = NOW()
		WHERE job_id = $2
		  AND status NOT IN ($3, $4)
	`

	result, err := s.db.ExecContext(ctx, query, status, jobID, domain.JobStatusCompleted, domain.JobStatusFailed)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("job %s is terminal or missing, refusing transition to %s", jobID, status)
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)

	return nil
}

// CompleteJob records the terminal COMPLETED state together with the result
// paths, chunk count, processing time, and run metadata.
func (s *Storage) CompleteJob(ctx context.Context, jobID string, result map[string]string, chunkCount int, processingTimeMs int64, metadata map[string]string) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = $1,
		    result = $2,
		    chunk_count = $3,
		    processing_time_ms = $4,
		    metadata = $5,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $6
		  AND status NOT IN ($1, $7)
	`

	res, err := s.db.ExecContext(ctx, query,
		domain.JobStatusCompleted, resultJSON, chunkCount, processingTimeMs, metadataJSON,
		jobID, domain.JobStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("job %s is terminal or missing, refusing completion", jobID)
	}

	s.logger.Info("Job completed",
		slog.String("job_id", jobID),
		slog.Int("chunk_count", chunkCount),
		slog.Int64("processing_time_ms", processingTimeMs),
	)

	return nil
}

// FailJob records the terminal FAILED state with the captured error message.
// result stays NULL so a failed job never reports partial output paths.
func (s *Storage) FailJob(ctx context.Context, jobID, errorMessage string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    error_message = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $3
		  AND status NOT IN ($1, $4)
	`

	res, err := s.db.ExecContext(ctx, query,
		domain.JobStatusFailed, errorMessage, jobID, domain.JobStatusCompleted,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("job %s is terminal or missing, refusing failure transition", jobID)
	}

	s.logger.Info("Job marked as failed",
		slog.String("job_id", jobID),
		slog.String("error", errorMessage),
	)

	return nil
}

// GetJob retrieves a job from the database by its ID
func (s *Storage) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		SELECT job_id, kind, status, file_path, original_filename, worker_id,
		       chunk_count, processing_time_ms, result, error_message, metadata,
		       created_at, updated_at, started_at, completed_at
		FROM jobs
		WHERE job_id = $1
	`

	var (
		job              domain.Job
		workerID         sql.NullString
		processingTimeMs sql.NullInt64
		resultJSON       []byte
		errorMessage     sql.NullString
		metadataJSON     []byte
		startedAt        sql.NullTime
		completedAt      sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, query, jobID).Scan(
		&job.JobID,
		&job.Kind,
		&job.Status,
		&job.FilePath,
		&job.OriginalFilename,
		&workerID,
		&job.ChunkCount,
		&processingTimeMs,
		&resultJSON,
		&errorMessage,
		&metadataJSON,
		&job.CreatedAt,
		&job.UpdatedAt,
		&startedAt,
		&completedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job.WorkerID = workerID.String
	job.ProcessingTimeMs = processingTimeMs.Int64
	job.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &job.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &job.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &job, nil
}

// SaveTranscript persists the transcript record for a job. Upsert keeps the
// record 1:1 with its job even if a run is repeated after manual recovery.
func (s *Storage) SaveTranscript(ctx context.Context, rec *domain.TranscriptRecord) error {
	query := `
		INSERT INTO transcripts (job_id, transcript_text, model, model_name, chunk_size_ms, overlap_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (job_id) DO UPDATE
		SET transcript_text = EXCLUDED.transcript_text,
		    model = EXCLUDED.model,
		    model_name = EXCLUDED.model_name,
		    chunk_size_ms = EXCLUDED.chunk_size_ms,
		    overlap_ms = EXCLUDED.overlap_ms
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.JobID, rec.TranscriptText, rec.Model, rec.ModelName, rec.ChunkSizeMs, rec.OverlapMs,
	)
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	s.logger.Info("Transcript saved",
		slog.String("job_id", rec.JobID),
		slog.Int("chunk_size_ms", rec.ChunkSizeMs),
		slog.Int("text_length", len(rec.TranscriptText)),
	)

	return nil
}

// UpdateMeetingName stores the meeting name derived from the minutes heading
func (s *Storage) UpdateMeetingName(ctx context.Context, jobID, name string) error {
	query := `
		UPDATE transcripts
		SET meeting_name = $1
		WHERE job_id = $2
	`

	_, err := s.db.ExecContext(ctx, query, name, jobID)
	if err != nil {
		return fmt.Errorf("failed to update meeting name: %w", err)
	}

	return nil
}

// GetTranscript retrieves the transcript record for a job
func (s *Storage) GetTranscript(ctx context.Context, jobID string) (*domain.TranscriptRecord, error) {
	query := `
		SELECT job_id, transcript_text, meeting_name, model, model_name, chunk_size_ms, overlap_ms, created_at
		FROM transcripts
		WHERE job_id = $1
	`

	var rec domain.TranscriptRecord
	var meetingName sql.NullString
	var createdAt time.Time

	err := s.db.QueryRowContext(ctx, query, jobID).Scan(
		&rec.JobID,
		&rec.TranscriptText,
		&meetingName,
		&rec.Model,
		&rec.ModelName,
		&rec.ChunkSizeMs,
		&rec.OverlapMs,
		&createdAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	rec.MeetingName = meetingName.String
	rec.CreatedAt = createdAt

	return &rec, nil
}
