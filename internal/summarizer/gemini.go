package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// geminiSummarizer calls the Gemini API with the minutes prompt.
// Rotates through the supplied API keys on quota errors. One instance is
// shared by the whole worker pool, so the key index is mutex-guarded.
type geminiSummarizer struct {
	apiKeys   []string
	model     string
	timeout   time.Duration
	extractor ResponseExtractor
	logger    *slog.Logger

	mu         sync.Mutex
	currentKey int
}

// NewGemini creates a Summarizer backed by the Gemini API. A zero
// requestTimeout leaves the caller's context deadline in charge.
func NewGemini(apiKeys []string, model string, requestTimeout time.Duration, logger *slog.Logger) (Summarizer, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("at least one Gemini API key is required")
	}

	return &geminiSummarizer{
		apiKeys:   apiKeys,
		model:     model,
		timeout:   requestTimeout,
		extractor: geminiExtractor{},
		logger:    logger,
	}, nil
}

func (s *geminiSummarizer) Model() string {
	return s.model
}

// Summarize sends the transcript with system instructions and a few-shot
// example, and extracts the markdown minutes from the response.
func (s *geminiSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	prompt := buildPrompt(transcript)

	attempts := len(s.apiKeys)
	var lastErr error

	for range attempts {
		key, keyIndex := s.activeKey()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			s.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
		if err != nil {
			if isQuotaError(err) {
				s.logger.Warn("Gemini key rate limited, rotating",
					slog.Int("key_index", keyIndex),
				)
				s.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		text, err := s.extractor.ExtractText(result)
		if err != nil {
			return "", fmt.Errorf("extract response text: %w", err)
		}

		return text, nil
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (s *geminiSummarizer) activeKey() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKeys[s.currentKey], s.currentKey
}

func (s *geminiSummarizer) rotateKey() {
	s.mu.Lock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	s.mu.Unlock()
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func buildPrompt(transcript string) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(minutesInstructions)
	sb.WriteString("\n\nExample output:\n")
	sb.WriteString(exampleOutput)
	sb.WriteString("\n\nMeeting transcript text: ")
	sb.WriteString(transcript)
	return sb.String()
}
