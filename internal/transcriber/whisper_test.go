package transcriber

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "", normalizeLanguage(""))
	assert.Equal(t, "", normalizeLanguage("auto"))
	assert.Equal(t, "", normalizeLanguage("AUTO"))
	assert.Equal(t, "en", normalizeLanguage(" en "))
	assert.Equal(t, "vi", normalizeLanguage("vi"))
}

func TestWhisperModelName(t *testing.T) {
	cfg := testTranscriptionConfig()
	cfg.ModelPath = "/opt/whisper.cpp/models/ggml-base.bin"

	stt := NewWhisperCpp(cfg, &fakeExecutor{})
	assert.Equal(t, "whisper.cpp", stt.Model())
	assert.Equal(t, "ggml-base", stt.ModelName())
}

func TestWhisperTranscribeReadsOutputFile(t *testing.T) {
	dir := t.TempDir()
	chunkPath := filepath.Join(dir, "chunk_0000.wav")
	require.NoError(t, os.WriteFile(chunkPath, []byte("pcm"), 0644))

	// whisper.cpp writes <chunk base>.txt next to the chunk
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunk_0000.txt"), []byte(" hello world \n"), 0644))

	stt := NewWhisperCpp(testTranscriptionConfig(), &fakeExecutor{})
	text, err := stt.Transcribe(context.Background(), chunkPath)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestWhisperTranscribeMissingOutput(t *testing.T) {
	dir := t.TempDir()
	chunkPath := filepath.Join(dir, "chunk_0001.wav")
	require.NoError(t, os.WriteFile(chunkPath, []byte("pcm"), 0644))

	stt := NewWhisperCpp(testTranscriptionConfig(), &fakeExecutor{})
	_, err := stt.Transcribe(context.Background(), chunkPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcript file is missing")
}
