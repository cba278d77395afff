package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuongbtq/minutes-be/internal/api/domain"
	"github.com/cuongbtq/minutes-be/internal/api/model"
	"github.com/cuongbtq/minutes-be/internal/api/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJobStore serves canned rows to the handlers under test
type fakeJobStore struct {
	job           *model.Job
	jobErr        error
	transcript    *model.Transcript
	transcriptErr error
}

func (f *fakeJobStore) GetJobByID(ctx context.Context, jobID string) (*model.Job, error) {
	return f.job, f.jobErr
}

func (f *fakeJobStore) ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error) {
	return nil, nil
}

func (f *fakeJobStore) GetTranscript(ctx context.Context, jobID string) (*model.Transcript, error) {
	return f.transcript, f.transcriptErr
}

func (f *fakeJobStore) PurgeJobs(ctx context.Context, cutoff time.Time) ([]storage.PurgedJob, error) {
	return nil, nil
}

func baseJob() *model.Job {
	now := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	return &model.Job{
		JobID:            "b9f1a7c2-0000-0000-0000-000000000001",
		Kind:             domain.JobKindMedia,
		Status:           domain.JobStatusPending,
		FilePath:         "data/temp/temp_x.mp4",
		OriginalFilename: "standup.mp4",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestToJobDTO(t *testing.T) {
	t.Run("pending job exposes neither result nor error", func(t *testing.T) {
		job := baseJob()

		got, err := toJobDTO(job)
		require.NoError(t, err)

		assert.Equal(t, domain.JobStatusPending, got.Status)
		assert.Nil(t, got.Result)
		assert.Empty(t, got.Error)
		assert.Empty(t, got.CompletedAt)
	})

	t.Run("completed job exposes result only", func(t *testing.T) {
		job := baseJob()
		job.Status = domain.JobStatusCompleted
		job.Result = json.RawMessage(`{"output_path":"data/output/x.docx"}`)
		job.ProcessingTimeMs = sql.NullInt64{Int64: 4200, Valid: true}
		job.ErrorMessage = sql.NullString{String: "stale message", Valid: true}
		job.CompletedAt = sql.NullTime{Time: job.CreatedAt.Add(time.Minute), Valid: true}

		got, err := toJobDTO(job)
		require.NoError(t, err)

		assert.Equal(t, "data/output/x.docx", got.Result[domain.ResultKeyOutputPath])
		assert.Equal(t, int64(4200), got.ProcessingTimeMs)
		assert.Empty(t, got.Error)
		assert.NotEmpty(t, got.CompletedAt)
	})

	t.Run("failed job exposes error only", func(t *testing.T) {
		job := baseJob()
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = sql.NullString{String: "transcription: chunk 1: decode failed", Valid: true}

		got, err := toJobDTO(job)
		require.NoError(t, err)

		assert.Nil(t, got.Result)
		assert.Equal(t, "transcription: chunk 1: decode failed", got.Error)
	})
}

func downloadTranscript(store JobStore, jobID string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	h := &JobHandler{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage: store,
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID+"/transcript", nil)
	c.Params = gin.Params{{Key: "job_id", Value: jobID}}

	h.DownloadTranscript(c)
	return w
}

func TestDownloadTranscript(t *testing.T) {
	transcript := &model.Transcript{
		JobID:          baseJob().JobID,
		TranscriptText: "hello from the meeting",
		Model:          "whisper.cpp",
	}

	t.Run("running job answers conflict", func(t *testing.T) {
		job := baseJob()
		job.Status = domain.JobStatusSummarizing
		store := &fakeJobStore{job: job, transcript: transcript}

		w := downloadTranscript(store, job.JobID)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), domain.ErrJobNotReady.Error())
		assert.Contains(t, w.Body.String(), domain.JobStatusSummarizing)
	})

	t.Run("completed job serves transcript", func(t *testing.T) {
		job := baseJob()
		job.Status = domain.JobStatusCompleted
		store := &fakeJobStore{job: job, transcript: transcript}

		w := downloadTranscript(store, job.JobID)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello from the meeting", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), job.JobID)
	})

	t.Run("failed job keeps transcript downloadable", func(t *testing.T) {
		job := baseJob()
		job.Status = domain.JobStatusFailed
		store := &fakeJobStore{job: job, transcript: transcript}

		w := downloadTranscript(store, job.JobID)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello from the meeting", w.Body.String())
	})

	t.Run("unknown job answers not found", func(t *testing.T) {
		store := &fakeJobStore{jobErr: domain.ErrJobNotFound}

		w := downloadTranscript(store, baseJob().JobID)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPurgedFilePaths(t *testing.T) {
	p := storage.PurgedJob{
		JobID:    "b9f1a7c2-0000-0000-0000-000000000002",
		FilePath: "data/temp/temp_y.wav",
		Result:   []byte(`{"output_path":"data/output/y.docx","transcript_path":"data/output/y_transcript.txt"}`),
	}

	paths := purgedFilePaths(p)

	assert.Contains(t, paths, "data/temp/temp_y.wav")
	assert.Contains(t, paths, "data/output/y.docx")
	assert.Contains(t, paths, "data/output/y_transcript.txt")
}

func TestPurgedFilePathsNoResult(t *testing.T) {
	p := storage.PurgedJob{
		JobID:    "b9f1a7c2-0000-0000-0000-000000000003",
		FilePath: "data/temp/temp_z.txt",
	}

	assert.Equal(t, []string{"data/temp/temp_z.txt"}, purgedFilePaths(p))
}
