package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/minutes-be/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor simulates ffmpeg/ffprobe. The segment call materializes chunk
// files so listChunks finds what a real run would.
type fakeExecutor struct {
	mu          sync.Mutex
	calls       [][]string
	chunkCount  int
	durationOut string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	if strings.Contains(name, "ffprobe") {
		return f.durationOut, nil
	}

	for i, arg := range args {
		if arg == "-f" && i+1 < len(args) && args[i+1] == "segment" {
			pattern := args[len(args)-1]
			for n := 0; n < f.chunkCount; n++ {
				path := fmt.Sprintf(pattern, n)
				if err := os.WriteFile(path, []byte("pcm"), 0644); err != nil {
					return "", err
				}
			}
			return "", nil
		}
	}

	// audio extraction, nothing to materialize
	return "", nil
}

// fakeSTT answers with a text derived from the chunk index. A per-index
// delay lets tests force out-of-order completion.
type fakeSTT struct {
	delays  map[int]time.Duration
	failIdx int
}

func newFakeSTT() *fakeSTT {
	return &fakeSTT{failIdx: -1}
}

func (f *fakeSTT) Transcribe(ctx context.Context, audioChunkPath string) (string, error) {
	idx := chunkIndex(audioChunkPath)
	if d, ok := f.delays[idx]; ok {
		time.Sleep(d)
	}
	if idx == f.failIdx {
		return "", fmt.Errorf("decode failed")
	}
	return fmt.Sprintf("text-%d", idx), nil
}

func (f *fakeSTT) Model() string     { return "fake" }
func (f *fakeSTT) ModelName() string { return "fake-model" }

func chunkIndex(path string) int {
	base := filepath.Base(path)
	base = strings.TrimPrefix(base, "chunk_")
	base = strings.TrimSuffix(base, ".wav")
	idx, _ := strconv.Atoi(base)
	return idx
}

func testTranscriptionConfig() *config.TranscriptionConfig {
	return &config.TranscriptionConfig{
		FFmpegPath:          "ffmpeg",
		FFprobePath:         "ffprobe",
		WhisperPath:         "whisper",
		ModelPath:           "model.bin",
		ChunkDuration:       30 * time.Second,
		MaxConcurrentChunks: 2,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestEngineTranscribeAudio(t *testing.T) {
	exec := &fakeExecutor{chunkCount: 3, durationOut: "95.5\n"}
	engine := NewEngine(testTranscriptionConfig(), t.TempDir(), exec, newFakeSTT(), quietLogger())

	res, err := engine.Transcribe(context.Background(), "job-1", "meeting.wav")
	require.NoError(t, err)

	assert.Equal(t, "text-0 text-1 text-2", res.Transcript)
	assert.Equal(t, 3, res.ChunkCount)
	assert.Equal(t, int64(95500), res.DurationMs)

	// plain audio skips extraction: probe + segment only
	require.Len(t, exec.calls, 2)
	assert.Contains(t, exec.calls[0][0], "ffprobe")
	assert.Contains(t, exec.calls[1], "segment")
}

func TestEngineTranscribeVideoExtractsAudio(t *testing.T) {
	exec := &fakeExecutor{chunkCount: 2, durationOut: "40"}
	engine := NewEngine(testTranscriptionConfig(), t.TempDir(), exec, newFakeSTT(), quietLogger())

	res, err := engine.Transcribe(context.Background(), "job-2", "meeting.mp4")
	require.NoError(t, err)
	assert.Equal(t, 2, res.ChunkCount)

	// extract + probe + segment
	require.Len(t, exec.calls, 3)
	assert.Contains(t, exec.calls[0], "-vn")
	assert.Contains(t, exec.calls[0], "meeting.mp4")
}

func TestEngineOrderPreservedUnderParallelism(t *testing.T) {
	exec := &fakeExecutor{chunkCount: 4, durationOut: "120"}
	stt := newFakeSTT()
	// Early windows finish last
	stt.delays = map[int]time.Duration{
		0: 60 * time.Millisecond,
		1: 30 * time.Millisecond,
	}

	cfg := testTranscriptionConfig()
	cfg.MaxConcurrentChunks = 4
	engine := NewEngine(cfg, t.TempDir(), exec, stt, quietLogger())

	res, err := engine.Transcribe(context.Background(), "job-3", "meeting.wav")
	require.NoError(t, err)
	assert.Equal(t, "text-0 text-1 text-2 text-3", res.Transcript)
}

func TestEngineChunkFailureFailsRun(t *testing.T) {
	exec := &fakeExecutor{chunkCount: 3, durationOut: "90"}
	stt := newFakeSTT()
	stt.failIdx = 1

	engine := NewEngine(testTranscriptionConfig(), t.TempDir(), exec, stt, quietLogger())

	_, err := engine.Transcribe(context.Background(), "job-4", "meeting.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 1")
}

func TestEngineNoChunksProduced(t *testing.T) {
	exec := &fakeExecutor{chunkCount: 0, durationOut: "0.1"}
	engine := NewEngine(testTranscriptionConfig(), t.TempDir(), exec, newFakeSTT(), quietLogger())

	_, err := engine.Transcribe(context.Background(), "job-5", "meeting.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chunks")
}
