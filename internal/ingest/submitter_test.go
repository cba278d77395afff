package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/cuongbtq/minutes-be/internal/api/domain"
	"github.com/cuongbtq/minutes-be/internal/api/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobCreator struct {
	created []*model.Job
	err     error
}

func (f *fakeJobCreator) CreateJob(ctx context.Context, job *model.Job) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, job)
	return nil
}

type fakePublisher struct {
	bodies [][]byte
	err    error
}

func (f *fakePublisher) PublishWithRetry(ctx context.Context, body []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.bodies = append(f.bodies, body)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSubmit(t *testing.T) {
	creator := &fakeJobCreator{}
	publisher := &fakePublisher{}
	s := NewSubmitter(creator, publisher, quietLogger())

	job, err := s.Submit(context.Background(), Submission{
		Kind:             domain.JobKindMedia,
		FilePath:         "data/input/standup.mp4",
		OriginalFilename: "standup.mp4",
	})
	require.NoError(t, err)

	// row created as PENDING with a generated UUID
	require.Len(t, creator.created, 1)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	_, parseErr := uuid.Parse(job.JobID)
	assert.NoError(t, parseErr)

	// dispatch message carries only the job id
	require.Len(t, publisher.bodies, 1)
	var msg map[string]string
	require.NoError(t, json.Unmarshal(publisher.bodies[0], &msg))
	assert.Equal(t, map[string]string{"job_id": job.JobID}, msg)
}

func TestSubmitKeepsProvidedJobID(t *testing.T) {
	creator := &fakeJobCreator{}
	publisher := &fakePublisher{}
	s := NewSubmitter(creator, publisher, quietLogger())

	jobID := uuid.New().String()
	job, err := s.Submit(context.Background(), Submission{
		JobID:            jobID,
		Kind:             domain.JobKindText,
		FilePath:         "data/temp/temp_" + jobID + ".txt",
		OriginalFilename: "notes.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, jobID, job.JobID)
}

func TestSubmitCreateFailure(t *testing.T) {
	creator := &fakeJobCreator{err: fmt.Errorf("db down")}
	publisher := &fakePublisher{}
	s := NewSubmitter(creator, publisher, quietLogger())

	_, err := s.Submit(context.Background(), Submission{Kind: domain.JobKindText, FilePath: "x.txt"})
	require.Error(t, err)
	assert.Empty(t, publisher.bodies)
}

func TestSubmitPublishFailure(t *testing.T) {
	creator := &fakeJobCreator{}
	publisher := &fakePublisher{err: fmt.Errorf("broker unreachable")}
	s := NewSubmitter(creator, publisher, quietLogger())

	_, err := s.Submit(context.Background(), Submission{Kind: domain.JobKindText, FilePath: "x.txt"})
	require.Error(t, err)

	// the row is still there for manual re-dispatch
	assert.Len(t, creator.created, 1)
}

func TestKindForFile(t *testing.T) {
	tests := []struct {
		path     string
		wantKind string
		wantOK   bool
	}{
		{"notes.txt", domain.JobKindText, true},
		{"minutes.MD", domain.JobKindText, true},
		{"standup.mp4", domain.JobKindMedia, true},
		{"call.WAV", domain.JobKindMedia, true},
		{"recording.m4a", domain.JobKindMedia, true},
		{"deck.pdf", "", false},
		{"noextension", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			kind, ok := KindForFile(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}
