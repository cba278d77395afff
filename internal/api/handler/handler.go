package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/minutes-be/internal/api/model"
	"github.com/cuongbtq/minutes-be/internal/api/storage"
	"github.com/cuongbtq/minutes-be/internal/ingest"
	"github.com/cuongbtq/minutes-be/shared/postgresql"
	"github.com/cuongbtq/minutes-be/shared/rabbitmq"
)

// JobStore is the slice of the job store the handlers read through
type JobStore interface {
	GetJobByID(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error)
	GetTranscript(ctx context.Context, jobID string) (*model.Transcript, error)
	PurgeJobs(ctx context.Context, cutoff time.Time) ([]storage.PurgedJob, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger        *slog.Logger
	Storage       *storage.Storage
	Submitter     *ingest.Submitter
	DBClient      *postgresql.Client
	RabbitClient  *rabbitmq.Client
	TempPath      string
	MaxUploadSize int64
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger        *slog.Logger
	storage       JobStore
	submitter     *ingest.Submitter
	tempPath      string
	maxUploadSize int64
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:        deps.Logger,
		storage:       deps.Storage,
		submitter:     deps.Submitter,
		tempPath:      deps.TempPath,
		maxUploadSize: deps.MaxUploadSize,
	}
}
