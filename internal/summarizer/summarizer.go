package summarizer

import "context"

// Summarizer turns one meeting transcript into markdown meeting minutes.
// Stateless; one call per job.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
	Model() string
}
