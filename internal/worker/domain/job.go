package domain

import "time"

// Job represents one submitted artifact's end-to-end processing run.
type Job struct {
	JobID            string
	Kind             string // text | media
	Status           string
	FilePath         string
	OriginalFilename string
	WorkerID         string
	ChunkCount       int
	ProcessingTimeMs int64
	Result           map[string]string
	ErrorMessage     string
	Metadata         map[string]string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// TranscriptRecord stores the transcript produced for a job, together with
// the model identifiers and chunking parameters used for that run.
// ChunkSizeMs and OverlapMs are 0/0 for text-only jobs.
type TranscriptRecord struct {
	JobID          string
	TranscriptText string
	MeetingName    string
	Model          string
	ModelName      string
	ChunkSizeMs    int
	OverlapMs      int
	CreatedAt      time.Time
}

// JobMessage represents a job dispatch message from RabbitMQ
type JobMessage struct {
	JobID       string `json:"job_id"`
	DeliveryTag uint64 `json:"-"`
}
