package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

type Job struct {
	JobID            string          `db:"job_id"`
	Kind             string          `db:"kind"`
	Status           string          `db:"status"`
	FilePath         string          `db:"file_path"`
	OriginalFilename string          `db:"original_filename"`
	WorkerID         sql.NullString  `db:"worker_id"`
	ChunkCount       int             `db:"chunk_count"`
	ProcessingTimeMs sql.NullInt64   `db:"processing_time_ms"`
	Result           json.RawMessage `db:"result"`
	ErrorMessage     sql.NullString  `db:"error_message"`
	Metadata         json.RawMessage `db:"metadata"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
	StartedAt        sql.NullTime    `db:"started_at"`
	CompletedAt      sql.NullTime    `db:"completed_at"`
}

// ResultMap decodes the result JSON column, nil when the job has no result
func (j *Job) ResultMap() (map[string]string, error) {
	if len(j.Result) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(j.Result, &m); err != nil {
		return nil, err
	}
	return m, nil
}

type Transcript struct {
	JobID          string         `db:"job_id"`
	TranscriptText string         `db:"transcript_text"`
	MeetingName    sql.NullString `db:"meeting_name"`
	Model          string         `db:"model"`
	ModelName      string         `db:"model_name"`
	ChunkSizeMs    int            `db:"chunk_size_ms"`
	OverlapMs      int            `db:"overlap_ms"`
	CreatedAt      time.Time      `db:"created_at"`
}
