package summarizer

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ResponseExtractor pulls the generated text out of a provider response.
// Providers expose the text under different shapes, so each provider gets
// its own extractor behind this interface instead of probing attributes
// at runtime.
type ResponseExtractor interface {
	ExtractText(res *genai.GenerateContentResponse) (string, error)
}

// geminiExtractor reads text parts from the first Gemini candidate
type geminiExtractor struct{}

func (geminiExtractor) ExtractText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("response contained no text parts")
	}

	return text, nil
}
