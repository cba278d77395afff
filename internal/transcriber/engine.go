package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/cuongbtq/minutes-be/internal/config"
	"github.com/cuongbtq/minutes-be/pkg/executor"
)

// Result is the output of one chunked transcription run
type Result struct {
	Transcript string
	ChunkCount int
	DurationMs int64
	ScratchDir string
}

// Engine is the chunked transcription engine. It extracts audio from video
// containers, partitions the audio stream into fixed windows, transcribes
// each window through a SpeechToText capability, and reassembles the chunk
// outputs into one ordered transcript.
type Engine struct {
	cfg      *config.TranscriptionConfig
	tempPath string
	exec     executor.Executor
	stt      SpeechToText
	logger   *slog.Logger
}

// NewEngine creates a transcription engine writing scratch files under tempPath
func NewEngine(cfg *config.TranscriptionConfig, tempPath string, exec executor.Executor, stt SpeechToText, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		tempPath: tempPath,
		exec:     exec,
		stt:      stt,
		logger:   logger,
	}
}

// STT exposes the engine's speech-to-text capability so callers can record
// the model identifiers used for a run.
func (e *Engine) STT() SpeechToText {
	return e.stt
}

// Transcribe converts an audio or video artifact into one ordered transcript.
// Scratch chunk files are left in place for external housekeeping; the engine
// never deletes them itself.
func (e *Engine) Transcribe(ctx context.Context, jobID, mediaPath string) (*Result, error) {
	if err := os.MkdirAll(e.tempPath, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	scratchDir, err := os.MkdirTemp(e.tempPath, "chunks_"+jobID+"_*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	audioPath := mediaPath
	if isVideo(mediaPath) {
		e.logger.Info("Extracting audio from video container",
			slog.String("job_id", jobID),
			slog.String("video", mediaPath),
		)
		audioPath, err = e.extractAudio(ctx, mediaPath, scratchDir)
		if err != nil {
			return nil, err
		}
	}

	durationMs, err := e.probeDuration(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	chunks, err := e.segmentAudio(ctx, audioPath, scratchDir)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Audio partitioned into chunks",
		slog.String("job_id", jobID),
		slog.Int("chunk_count", len(chunks)),
		slog.Int64("duration_ms", durationMs),
		slog.Duration("window", e.cfg.ChunkDuration),
	)

	transcript, err := e.transcribeChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	return &Result{
		Transcript: transcript,
		ChunkCount: len(chunks),
		DurationMs: durationMs,
		ScratchDir: scratchDir,
	}, nil
}

// transcribeChunks runs per-chunk transcription with bounded parallelism.
// Results are written into an index-addressed slice so the final concatenation
// is always in window order regardless of call interleaving. Any single chunk
// failure fails the whole run.
func (e *Engine) transcribeChunks(ctx context.Context, chunkPaths []string) (string, error) {
	texts := make([]string, len(chunkPaths))
	sem := newSemaphore(e.cfg.MaxConcurrentChunks)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, chunkPath := range chunkPaths {
		if err := sem.acquire(ctx); err != nil {
			break
		}

		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()
			defer sem.release()

			text, err := e.stt.Transcribe(ctx, path)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("chunk %d: %w", index, err)
					cancel()
				}
				mu.Unlock()
				return
			}

			texts[index] = strings.TrimSpace(text)
		}(i, chunkPath)
	}

	wg.Wait()

	if firstErr != nil {
		return "", firstErr
	}
	// Canceled before every chunk was dispatched; a partial join is not a transcript
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return strings.Join(texts, " "), nil
}
