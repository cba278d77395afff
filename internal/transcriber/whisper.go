package transcriber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuongbtq/minutes-be/internal/config"
	"github.com/cuongbtq/minutes-be/pkg/executor"
)

// SpeechToText converts one audio chunk into text. Implementations are
// stateless; one chunk per call.
type SpeechToText interface {
	Transcribe(ctx context.Context, audioChunkPath string) (string, error)
	Model() string
	ModelName() string
}

// whisperCpp runs the whisper.cpp binary for each chunk and reads back
// the .txt transcript it writes next to the chunk file.
type whisperCpp struct {
	cfg  *config.TranscriptionConfig
	exec executor.Executor
}

// NewWhisperCpp creates a SpeechToText backed by a local whisper.cpp binary
func NewWhisperCpp(cfg *config.TranscriptionConfig, exec executor.Executor) SpeechToText {
	return &whisperCpp{cfg: cfg, exec: exec}
}

func (w *whisperCpp) Transcribe(ctx context.Context, audioChunkPath string) (string, error) {
	outputBase := strings.TrimSuffix(audioChunkPath, filepath.Ext(audioChunkPath))

	args := []string{
		"-m", w.cfg.ModelPath,
		"-f", audioChunkPath,
		"-of", outputBase,
		"-otxt",
	}
	if lang := normalizeLanguage(w.cfg.Language); lang != "" {
		args = append(args, "-l", lang)
	}

	if _, err := w.exec.Execute(ctx, w.cfg.WhisperPath, args...); err != nil {
		return "", fmt.Errorf("whisper transcribe: %w", err)
	}

	textPath := outputBase + ".txt"
	content, err := os.ReadFile(textPath)
	if err != nil {
		return "", fmt.Errorf("whisper completed but transcript file is missing: %w", err)
	}

	return strings.TrimSpace(string(content)), nil
}

func (w *whisperCpp) Model() string {
	return "whisper.cpp"
}

func (w *whisperCpp) ModelName() string {
	base := filepath.Base(w.cfg.ModelPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// normalizeLanguage maps "auto" and empty language to no CLI override
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}
