package transcriber

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// video container extensions that need audio extraction before chunking
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
	".m4v":  true,
}

// isVideo reports whether the artifact is a recognized video container
func isVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// extractAudio extracts the audio stream from a video container into a
// standalone 16kHz mono WAV, the format whisper handles best.
func (e *Engine) extractAudio(ctx context.Context, videoPath, scratchDir string) (string, error) {
	audioPath := filepath.Join(scratchDir, "extracted.wav")

	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		audioPath,
	}

	if _, err := e.exec.Execute(ctx, e.cfg.FFmpegPath, args...); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}

	return audioPath, nil
}

// probeDuration returns the decoded stream duration in milliseconds.
// Byte size is not a reliable duration measure, so ffprobe is asked directly.
func (e *Engine) probeDuration(ctx context.Context, audioPath string) (int64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	}

	out, err := e.exec.Execute(ctx, e.cfg.FFprobePath, args...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparsable duration %q: %w", strings.TrimSpace(out), err)
	}

	return int64(math.Round(seconds * 1000)), nil
}

// segmentAudio partitions the audio stream into contiguous non-overlapping
// windows of the configured duration. The final window may be shorter.
// Chunk files are written to the scratch dir as chunk_0000.wav, chunk_0001.wav, ...
func (e *Engine) segmentAudio(ctx context.Context, audioPath, scratchDir string) ([]string, error) {
	pattern := filepath.Join(scratchDir, "chunk_%04d.wav")
	seconds := e.cfg.ChunkDuration.Seconds()

	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", audioPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "segment",
		"-segment_time", strconv.FormatFloat(seconds, 'f', -1, 64),
		pattern,
	}

	if _, err := e.exec.Execute(ctx, e.cfg.FFmpegPath, args...); err != nil {
		return nil, fmt.Errorf("ffmpeg segment audio: %w", err)
	}

	chunks, err := listChunks(scratchDir)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("segmentation produced no chunks for %s", audioPath)
	}

	return chunks, nil
}

// listChunks returns chunk file paths in window order. Lexicographic sort
// is index order because of the zero-padded naming pattern.
func listChunks(scratchDir string) ([]string, error) {
	entries, err := os.ReadDir(scratchDir)
	if err != nil {
		return nil, fmt.Errorf("read scratch dir: %w", err)
	}

	var chunks []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "chunk_") && strings.HasSuffix(name, ".wav") {
			chunks = append(chunks, filepath.Join(scratchDir, name))
		}
	}

	sort.Strings(chunks)
	return chunks, nil
}
