package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiExtractText(t *testing.T) {
	ex := geminiExtractor{}

	t.Run("concatenates text parts", func(t *testing.T) {
		res := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "# Weekly Sync\n"},
						{Text: "- decision one"},
					},
				},
			}},
		}

		text, err := ex.ExtractText(res)
		require.NoError(t, err)
		assert.Equal(t, "# Weekly Sync\n- decision one", text)
	})

	t.Run("nil response", func(t *testing.T) {
		_, err := ex.ExtractText(nil)
		require.Error(t, err)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := ex.ExtractText(&genai.GenerateContentResponse{})
		require.Error(t, err)
	})

	t.Run("only empty parts", func(t *testing.T) {
		res := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: "   "}},
				},
			}},
		}

		_, err := ex.ExtractText(res)
		require.Error(t, err)
	})
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("we discussed the rollout")

	assert.True(t, strings.HasPrefix(prompt, systemPrompt))
	assert.Contains(t, prompt, minutesInstructions)
	assert.Contains(t, prompt, exampleOutput)
	assert.True(t, strings.HasSuffix(prompt, "we discussed the rollout"))
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, isQuotaError(errorString("googleapi: Error 429: rate limit")))
	assert.True(t, isQuotaError(errorString("RESOURCE_EXHAUSTED: quota exceeded")))
	assert.False(t, isQuotaError(errorString("invalid API key")))
}

type errorString string

func (e errorString) Error() string { return string(e) }
