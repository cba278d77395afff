package domain

import (
	"errors"
)

const (
	JobStatusPending      = "PENDING"
	JobStatusTranscribing = "TRANSCRIBING"
	JobStatusSummarizing  = "SUMMARIZING"
	JobStatusCompleted    = "COMPLETED"
	JobStatusFailed       = "FAILED"
)

const (
	JobKindText  = "text"
	JobKindMedia = "media"
)

// Result keys written by the worker pipeline
const (
	ResultKeyOutputPath     = "output_path"
	ResultKeyTranscriptPath = "transcript_path"
)

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrJobNotReady        = errors.New("job result not ready")
	ErrTranscriptNotFound = errors.New("transcript not found")
)

// IsTerminal reports whether a status admits no further transitions
func IsTerminal(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}
