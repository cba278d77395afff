package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/minutes-be/internal/worker/domain"
)

// processJob claims a single job and drives it through the minutes pipeline
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.String("worker_id", w.workerID),
	)

	// Step 1: Claim job from database (optimistic, PENDING only)
	job, err := w.storage.ClaimJob(ctx, msg.JobID, w.workerID)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyClaimed) {
			// Duplicate delivery, another claim already won. The message is
			// acked as a no-op skip.
			w.logger.Warn("Job already claimed, skipping",
				slog.String("job_id", msg.JobID),
			)
			return nil
		}
		// Database error - could be transient, let the broker redeliver
		w.logger.Error("Failed to claim job",
			slog.String("job_id", msg.JobID),
			slog.String("error", err.Error()),
		)
		return domain.NewRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	// Step 2: Bound the whole run. Long recordings are the common case, so
	// the timeout comes from config rather than per-job input.
	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	// Step 3: Run the pipeline. It persists the terminal state itself, the
	// returned error only feeds the ACK/NACK decision.
	if err := w.pipeline.Run(jobCtx, job); err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	return nil
}
