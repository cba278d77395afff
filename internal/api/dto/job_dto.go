package dto

type SubmitJobResponse struct {
	JobID            string `json:"job_id"`
	Kind             string `json:"kind"`
	Status           string `json:"status"`
	OriginalFilename string `json:"original_filename"`
	CreatedAt        string `json:"created_at"`
}

type ListJobsRequest struct {
	Kind     string `form:"kind"`
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// JobDTO is the external job view. Result is only populated for COMPLETED
// jobs and Error only for FAILED jobs.
type JobDTO struct {
	JobID            string            `json:"job_id"`
	Kind             string            `json:"kind"`
	Status           string            `json:"status"`
	OriginalFilename string            `json:"original_filename"`
	ChunkCount       int               `json:"chunk_count"`
	ProcessingTimeMs int64             `json:"processing_time_ms,omitempty"`
	Result           map[string]string `json:"result,omitempty"`
	Error            string            `json:"error,omitempty"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
	StartedAt        string            `json:"started_at,omitempty"`
	CompletedAt      string            `json:"completed_at,omitempty"`
}

type PurgeJobsResponse struct {
	PurgedJobs   int `json:"purged_jobs"`
	RemovedFiles int `json:"removed_files"`
}
