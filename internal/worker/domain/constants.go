package domain

// Job status constants
const (
	JobStatusPending      = "PENDING"
	JobStatusTranscribing = "TRANSCRIBING"
	JobStatusSummarizing  = "SUMMARIZING"
	JobStatusCompleted    = "COMPLETED"
	JobStatusFailed       = "FAILED"
)

// Artifact kind constants
const (
	JobKindText  = "text"
	JobKindMedia = "media"
)

// Result map keys persisted on COMPLETED jobs
const (
	ResultKeyOutputPath     = "output_path"
	ResultKeyTranscriptPath = "transcript_path"
)

// Metadata map keys
const (
	MetaKeyKind             = "kind"
	MetaKeyOriginalFilename = "original_filename"
	MetaKeyDurationMs       = "duration_ms"
)

// IsTerminal reports whether a status permits no further transitions.
func IsTerminal(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}
