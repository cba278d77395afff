package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuongbtq/minutes-be/internal/transcriber"
	"github.com/cuongbtq/minutes-be/internal/worker/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJobStore records every persisted transition in order. With ctxAware
// set it refuses writes on a dead context, like the real store's ExecContext.
type fakeJobStore struct {
	events     []string
	result     map[string]string
	metadata   map[string]string
	chunkCount int
	failMsg    string
	statusErr  error
	ctxAware   bool
}

func (f *fakeJobStore) UpdateStatus(ctx context.Context, jobID, status string) error {
	if f.ctxAware && ctx.Err() != nil {
		return ctx.Err()
	}
	if f.statusErr != nil {
		return f.statusErr
	}
	f.events = append(f.events, "status:"+status)
	return nil
}

func (f *fakeJobStore) CompleteJob(ctx context.Context, jobID string, result map[string]string, chunkCount int, processingTimeMs int64, metadata map[string]string) error {
	if f.ctxAware && ctx.Err() != nil {
		return ctx.Err()
	}
	f.events = append(f.events, "complete")
	f.result = result
	f.metadata = metadata
	f.chunkCount = chunkCount
	return nil
}

func (f *fakeJobStore) FailJob(ctx context.Context, jobID, errorMessage string) error {
	if f.ctxAware && ctx.Err() != nil {
		return ctx.Err()
	}
	f.events = append(f.events, "fail")
	f.failMsg = errorMessage
	return nil
}

type fakeTranscriptStore struct {
	saved       *domain.TranscriptRecord
	meetingName string
}

func (f *fakeTranscriptStore) SaveTranscript(ctx context.Context, rec *domain.TranscriptRecord) error {
	f.saved = rec
	return nil
}

func (f *fakeTranscriptStore) UpdateMeetingName(ctx context.Context, jobID, name string) error {
	f.meetingName = name
	return nil
}

type fakeSTT struct{}

func (fakeSTT) Transcribe(ctx context.Context, path string) (string, error) { return "", nil }
func (fakeSTT) Model() string                                               { return "whisper.cpp" }
func (fakeSTT) ModelName() string                                           { return "ggml-base" }

type fakeEngine struct {
	result *transcriber.Result
	err    error
}

func (f *fakeEngine) Transcribe(ctx context.Context, jobID, mediaPath string) (*transcriber.Result, error) {
	return f.result, f.err
}

func (f *fakeEngine) STT() transcriber.SpeechToText { return fakeSTT{} }

type fakeSummarizer struct {
	minutes string
	err     error
	block   bool // wait for ctx cancellation instead of answering
}

func (f *fakeSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.minutes, f.err
}

func (f *fakeSummarizer) Model() string { return "gemini-2.5-flash" }

type fakeExporter struct {
	minutes string
	err     error
}

func (f *fakeExporter) Export(minutesMarkdown, outputPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.minutes = minutesMarkdown
	return outputPath, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixture struct {
	jobs        *fakeJobStore
	transcripts *fakeTranscriptStore
	engine      *fakeEngine
	summarizer  *fakeSummarizer
	exporter    *fakeExporter
	outputDir   string
	pipeline    *Pipeline
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		jobs:        &fakeJobStore{},
		transcripts: &fakeTranscriptStore{},
		engine: &fakeEngine{result: &transcriber.Result{
			Transcript: "hello from the meeting",
			ChunkCount: 3,
			DurationMs: 81000,
		}},
		summarizer: &fakeSummarizer{minutes: "# Weekly Sync\n- decision one"},
		exporter:   &fakeExporter{},
		outputDir:  t.TempDir(),
	}

	f.pipeline = New(&Config{
		Jobs:        f.jobs,
		Transcripts: f.transcripts,
		Engine:      f.engine,
		Summarizer:  f.summarizer,
		Exporter:    f.exporter,
		OutputDir:   f.outputDir,
		ChunkSizeMs: 30000,
		Logger:      testLogger(),
	})

	return f
}

func mediaJob() *domain.Job {
	started := time.Now().Add(-2 * time.Second)
	return &domain.Job{
		JobID:            "3f0c8e1a-0000-0000-0000-000000000001",
		Kind:             domain.JobKindMedia,
		Status:           domain.JobStatusPending,
		FilePath:         "data/temp/temp_job.mp4",
		OriginalFilename: "standup.mp4",
		StartedAt:        &started,
	}
}

func textJob(t *testing.T, content string) *domain.Job {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return &domain.Job{
		JobID:            "3f0c8e1a-0000-0000-0000-000000000002",
		Kind:             domain.JobKindText,
		Status:           domain.JobStatusPending,
		FilePath:         path,
		OriginalFilename: "notes.txt",
	}
}

func TestRunMediaJob(t *testing.T) {
	f := newFixture(t)
	job := mediaJob()

	err := f.pipeline.Run(context.Background(), job)
	require.NoError(t, err)

	// every transition persisted, in order, exactly one terminal write
	assert.Equal(t, []string{
		"status:" + domain.JobStatusTranscribing,
		"status:" + domain.JobStatusSummarizing,
		"complete",
	}, f.jobs.events)

	assert.Equal(t, 3, f.jobs.chunkCount)
	assert.Equal(t, "81000", f.jobs.metadata[domain.MetaKeyDurationMs])
	assert.Equal(t, domain.JobKindMedia, f.jobs.metadata[domain.MetaKeyKind])

	outputPath := f.jobs.result[domain.ResultKeyOutputPath]
	assert.Equal(t, filepath.Join(f.outputDir, job.JobID+".docx"), outputPath)

	transcriptPath := f.jobs.result[domain.ResultKeyTranscriptPath]
	data, err := os.ReadFile(transcriptPath)
	require.NoError(t, err)
	assert.Equal(t, "hello from the meeting", string(data))

	require.NotNil(t, f.transcripts.saved)
	assert.Equal(t, "whisper.cpp", f.transcripts.saved.Model)
	assert.Equal(t, "ggml-base", f.transcripts.saved.ModelName)
	assert.Equal(t, 30000, f.transcripts.saved.ChunkSizeMs)
	assert.Equal(t, 0, f.transcripts.saved.OverlapMs)

	assert.Equal(t, "Weekly Sync", f.transcripts.meetingName)
	assert.Equal(t, f.summarizer.minutes, f.exporter.minutes)
}

func TestRunTextJob(t *testing.T) {
	f := newFixture(t)
	job := textJob(t, "raw meeting notes")

	err := f.pipeline.Run(context.Background(), job)
	require.NoError(t, err)

	// text jobs go straight to summarization
	assert.Equal(t, []string{
		"status:" + domain.JobStatusSummarizing,
		"complete",
	}, f.jobs.events)

	assert.Equal(t, 1, f.jobs.chunkCount)
	assert.NotContains(t, f.jobs.result, domain.ResultKeyTranscriptPath)

	require.NotNil(t, f.transcripts.saved)
	assert.Equal(t, "text", f.transcripts.saved.Model)
	assert.Equal(t, 0, f.transcripts.saved.ChunkSizeMs)
	assert.Equal(t, "raw meeting notes", f.transcripts.saved.TranscriptText)
}

func TestRunTranscriptionFailure(t *testing.T) {
	f := newFixture(t)
	f.engine.result = nil
	f.engine.err = fmt.Errorf("ffmpeg segment audio: boom")

	err := f.pipeline.Run(context.Background(), mediaJob())
	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageTranscription, stageErr.Stage)

	assert.Equal(t, []string{
		"status:" + domain.JobStatusTranscribing,
		"fail",
	}, f.jobs.events)
	assert.Contains(t, f.jobs.failMsg, "transcription:")
	assert.Nil(t, f.jobs.result)
}

func TestRunSummarizationFailure(t *testing.T) {
	f := newFixture(t)
	f.summarizer.err = fmt.Errorf("all API keys exhausted")

	err := f.pipeline.Run(context.Background(), textJob(t, "notes"))
	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageSummarization, stageErr.Stage)

	assert.Equal(t, []string{
		"status:" + domain.JobStatusSummarizing,
		"fail",
	}, f.jobs.events)
	assert.Nil(t, f.jobs.result)
}

func TestRunExportFailure(t *testing.T) {
	f := newFixture(t)
	f.exporter.err = fmt.Errorf("minutes document produced no content blocks")

	err := f.pipeline.Run(context.Background(), textJob(t, "notes"))
	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageExport, stageErr.Stage)
	assert.Contains(t, f.jobs.failMsg, "export:")
}

func TestRunJobTimeoutStillPersistsFailed(t *testing.T) {
	f := newFixture(t)
	f.jobs.ctxAware = true
	f.summarizer.block = true

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := f.pipeline.Run(ctx, textJob(t, "notes"))
	require.Error(t, err)

	// the run context is dead, but the terminal write still lands
	assert.Equal(t, []string{
		"status:" + domain.JobStatusSummarizing,
		"fail",
	}, f.jobs.events)
	assert.Contains(t, f.jobs.failMsg, "summarization:")
}

func TestRunEmptyTextArtifact(t *testing.T) {
	f := newFixture(t)

	err := f.pipeline.Run(context.Background(), textJob(t, "   \n  "))
	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageInput, stageErr.Stage)

	// no non-terminal transition happened before the input check failed
	assert.Equal(t, []string{"fail"}, f.jobs.events)
}

func TestRunUnknownKind(t *testing.T) {
	f := newFixture(t)
	job := textJob(t, "notes")
	job.Kind = "archive"

	err := f.pipeline.Run(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, []string{"fail"}, f.jobs.events)
	assert.Contains(t, f.jobs.failMsg, "unsupported artifact kind")
}

func TestExtractMeetingName(t *testing.T) {
	tests := []struct {
		name    string
		minutes string
		want    string
	}{
		{"h1 heading", "# Weekly Sync\nbody", "Weekly Sync"},
		{"h2 heading", "## Standup Notes", "Standup Notes"},
		{"plain first line", "Quarterly Review\nbody", "Quarterly Review"},
		{"empty", "", ""},
		{"hashes only", "###", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMeetingName(tt.minutes))
		})
	}
}
