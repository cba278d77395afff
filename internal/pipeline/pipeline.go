package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/minutes-be/internal/summarizer"
	"github.com/cuongbtq/minutes-be/internal/transcriber"
	"github.com/cuongbtq/minutes-be/internal/worker/domain"
)

// JobStore is the slice of the job store the orchestrator writes through.
// Every status write completes before the next stage starts.
type JobStore interface {
	UpdateStatus(ctx context.Context, jobID, status string) error
	CompleteJob(ctx context.Context, jobID string, result map[string]string, chunkCount int, processingTimeMs int64, metadata map[string]string) error
	FailJob(ctx context.Context, jobID, errorMessage string) error
}

// TranscriptStore persists the transcript record associated with a job
type TranscriptStore interface {
	SaveTranscript(ctx context.Context, rec *domain.TranscriptRecord) error
	UpdateMeetingName(ctx context.Context, jobID, name string) error
}

// Transcriber is the chunked transcription engine contract
type Transcriber interface {
	Transcribe(ctx context.Context, jobID, mediaPath string) (*transcriber.Result, error)
	STT() transcriber.SpeechToText
}

// DocumentExporter writes minutes markdown to a document file
type DocumentExporter interface {
	Export(minutesMarkdown, outputPath string) (string, error)
}

// Pipeline drives one claimed job through
// {transcribe (media only) -> summarize -> export} to exactly one terminal
// state, persisting every transition before the next stage begins.
type Pipeline struct {
	jobs        JobStore
	transcripts TranscriptStore
	engine      Transcriber
	summarizer  summarizer.Summarizer
	exporter    DocumentExporter
	outputDir   string
	chunkSizeMs int
	logger      *slog.Logger
}

// Config holds pipeline dependencies
type Config struct {
	Jobs        JobStore
	Transcripts TranscriptStore
	Engine      Transcriber
	Summarizer  summarizer.Summarizer
	Exporter    DocumentExporter
	OutputDir   string
	ChunkSizeMs int
	Logger      *slog.Logger
}

// New creates a new Pipeline instance
func New(cfg *Config) *Pipeline {
	return &Pipeline{
		jobs:        cfg.Jobs,
		transcripts: cfg.Transcripts,
		engine:      cfg.Engine,
		summarizer:  cfg.Summarizer,
		exporter:    cfg.Exporter,
		outputDir:   cfg.OutputDir,
		chunkSizeMs: cfg.ChunkSizeMs,
		logger:      cfg.Logger,
	}
}

// outcome collects everything the terminal COMPLETED write needs
type outcome struct {
	result     map[string]string
	metadata   map[string]string
	chunkCount int
}

// terminalPersistTimeout bounds the terminal status write once it is
// detached from the run context.
const terminalPersistTimeout = 10 * time.Second

// terminalCtx detaches a terminal write from run cancellation. The job
// timeout or a shutdown cancel kills the stages, but the COMPLETED/FAILED
// row must still land or the job is stranded in a non-terminal status.
func terminalCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), terminalPersistTimeout)
}

// Run executes the pipeline for a claimed job. On any stage failure the job
// is marked FAILED with the captured error message and the error is returned
// to the dispatcher for logging and requeue decisions.
func (p *Pipeline) Run(ctx context.Context, job *domain.Job) error {
	start := time.Now()
	if job.StartedAt != nil {
		start = *job.StartedAt
	}

	out, err := p.execute(ctx, job)
	if err != nil {
		failCtx, cancel := terminalCtx(ctx)
		defer cancel()
		if failErr := p.jobs.FailJob(failCtx, job.JobID, err.Error()); failErr != nil {
			p.logger.Error("Failed to persist FAILED status",
				slog.String("job_id", job.JobID),
				slog.String("error", failErr.Error()),
			)
		}
		return err
	}

	processingTimeMs := time.Since(start).Milliseconds()
	completeCtx, cancel := terminalCtx(ctx)
	defer cancel()
	if err := p.jobs.CompleteJob(completeCtx, job.JobID, out.result, out.chunkCount, processingTimeMs, out.metadata); err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}

	p.logger.Info("Pipeline run completed",
		slog.String("job_id", job.JobID),
		slog.String("kind", job.Kind),
		slog.Int("chunk_count", out.chunkCount),
		slog.Int64("processing_time_ms", processingTimeMs),
	)

	return nil
}

// execute runs the non-terminal stages and returns the completion payload
func (p *Pipeline) execute(ctx context.Context, job *domain.Job) (*outcome, error) {
	out := &outcome{
		result: make(map[string]string),
		metadata: map[string]string{
			domain.MetaKeyKind:             job.Kind,
			domain.MetaKeyOriginalFilename: job.OriginalFilename,
		},
		chunkCount: 1,
	}

	var transcript string

	switch job.Kind {
	case domain.JobKindMedia:
		if err := p.jobs.UpdateStatus(ctx, job.JobID, domain.JobStatusTranscribing); err != nil {
			return nil, err
		}

		res, err := p.engine.Transcribe(ctx, job.JobID, job.FilePath)
		if err != nil {
			return nil, domain.NewStageError(domain.StageTranscription, err)
		}

		transcript = res.Transcript
		out.chunkCount = res.ChunkCount
		out.metadata[domain.MetaKeyDurationMs] = strconv.FormatInt(res.DurationMs, 10)

		transcriptPath, err := p.writeTranscriptFile(job.JobID, transcript)
		if err != nil {
			return nil, domain.NewStageError(domain.StageTranscription, err)
		}
		out.result[domain.ResultKeyTranscriptPath] = transcriptPath

		stt := p.engine.STT()
		if err := p.transcripts.SaveTranscript(ctx, &domain.TranscriptRecord{
			JobID:          job.JobID,
			TranscriptText: transcript,
			Model:          stt.Model(),
			ModelName:      stt.ModelName(),
			ChunkSizeMs:    p.chunkSizeMs,
			OverlapMs:      0,
		}); err != nil {
			return nil, err
		}

	case domain.JobKindText:
		data, err := os.ReadFile(job.FilePath)
		if err != nil {
			return nil, domain.NewStageError(domain.StageInput, fmt.Errorf("read artifact: %w", err))
		}
		transcript = string(data)

		// No chunking occurred, so chunk size and overlap are recorded as 0/0
		if err := p.transcripts.SaveTranscript(ctx, &domain.TranscriptRecord{
			JobID:          job.JobID,
			TranscriptText: transcript,
			Model:          "text",
			ModelName:      p.summarizer.Model(),
			ChunkSizeMs:    0,
			OverlapMs:      0,
		}); err != nil {
			return nil, err
		}

	default:
		return nil, domain.NewStageError(domain.StageInput, fmt.Errorf("unsupported artifact kind %q", job.Kind))
	}

	if strings.TrimSpace(transcript) == "" {
		return nil, domain.NewStageError(domain.StageInput, fmt.Errorf("artifact contains no text"))
	}

	if err := p.jobs.UpdateStatus(ctx, job.JobID, domain.JobStatusSummarizing); err != nil {
		return nil, err
	}

	minutes, err := p.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return nil, domain.NewStageError(domain.StageSummarization, err)
	}

	if name := extractMeetingName(minutes); name != "" {
		if err := p.transcripts.UpdateMeetingName(ctx, job.JobID, name); err != nil {
			return nil, err
		}
	}

	outputPath := filepath.Join(p.outputDir, job.JobID+".docx")
	finalPath, err := p.exporter.Export(minutes, outputPath)
	if err != nil {
		return nil, domain.NewStageError(domain.StageExport, err)
	}
	out.result[domain.ResultKeyOutputPath] = finalPath

	return out, nil
}

// writeTranscriptFile persists the raw transcript next to the output
// document, keyed by job id, so media jobs can expose it for download.
func (p *Pipeline) writeTranscriptFile(jobID, transcript string) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(p.outputDir, jobID+"_transcript.txt")
	if err := os.WriteFile(path, []byte(transcript), 0644); err != nil {
		return "", fmt.Errorf("write transcript file: %w", err)
	}

	return path, nil
}

// extractMeetingName takes the first line of the minutes and strips any
// leading markdown heading markers.
func extractMeetingName(minutes string) string {
	firstLine := minutes
	if idx := strings.IndexByte(minutes, '\n'); idx >= 0 {
		firstLine = minutes[:idx]
	}

	firstLine = strings.TrimSpace(firstLine)
	firstLine = strings.TrimLeft(firstLine, "#")
	return strings.TrimSpace(firstLine)
}
