package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuongbtq/minutes-be/internal/api/domain"
	"github.com/cuongbtq/minutes-be/internal/api/model"
	"github.com/google/uuid"
)

// JobCreator persists new job rows
type JobCreator interface {
	CreateJob(ctx context.Context, job *model.Job) error
}

// Publisher dispatches job messages to the work queue
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Submitter registers an artifact as a PENDING job and dispatches it to the
// worker queue. Both the HTTP upload handlers and the drop-folder watcher
// submit through it, so every job enters the system the same way.
type Submitter struct {
	jobs      JobCreator
	publisher Publisher
	logger    *slog.Logger
}

// NewSubmitter creates a new Submitter instance
func NewSubmitter(jobs JobCreator, publisher Publisher, logger *slog.Logger) *Submitter {
	return &Submitter{
		jobs:      jobs,
		publisher: publisher,
		logger:    logger,
	}
}

// Submission describes an artifact to register. JobID is optional, a fresh
// UUID is assigned when empty. Upload handlers pre-generate it because the
// staged file is named after the job.
type Submission struct {
	JobID            string
	Kind             string
	FilePath         string
	OriginalFilename string
}

// Submit creates the job row first, then publishes the dispatch message.
// If publishing fails the row stays PENDING and can be re-dispatched by an
// operator, so the error is returned rather than rolled back.
func (s *Submitter) Submit(ctx context.Context, sub Submission) (*model.Job, error) {
	jobID := sub.JobID
	if jobID == "" {
		jobID = uuid.New().String()
	}

	now := time.Now()
	job := &model.Job{
		JobID:            jobID,
		Kind:             sub.Kind,
		Status:           domain.JobStatusPending,
		FilePath:         sub.FilePath,
		OriginalFilename: sub.OriginalFilename,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	body, err := json.Marshal(map[string]string{"job_id": job.JobID})
	if err != nil {
		return nil, fmt.Errorf("marshal dispatch message: %w", err)
	}

	if err := s.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		s.logger.Error("Job created but dispatch failed, row stays PENDING",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("dispatch job %s: %w", job.JobID, err)
	}

	s.logger.Info("Job submitted",
		slog.String("job_id", job.JobID),
		slog.String("kind", job.Kind),
		slog.String("original_filename", job.OriginalFilename),
	)

	return job, nil
}

var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".text": true,
}

var mediaExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".aac":  true,
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".m4v":  true,
	".flv":  true,
}

// KindForFile infers the artifact kind from the file extension.
// Unknown extensions are not submitted.
func KindForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case textExtensions[ext]:
		return domain.JobKindText, true
	case mediaExtensions[ext]:
		return domain.JobKindMedia, true
	default:
		return "", false
	}
}
