package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cuongbtq/minutes-be/internal/api/domain"
	"github.com/cuongbtq/minutes-be/internal/api/dto"
	"github.com/cuongbtq/minutes-be/internal/api/model"
	"github.com/cuongbtq/minutes-be/internal/api/storage"
	"github.com/cuongbtq/minutes-be/internal/ingest"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// minutesDownloadName is the filename the browser sees for any minutes file
const minutesDownloadName = "meeting_minutes.docx"

// SubmitJob handles POST /api/v1/jobs
// Accepts a multipart upload, stages the file, and submits it as a new job.
// The artifact kind is inferred from the uploaded file's extension.
func (h *JobHandler) SubmitJob(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.logger.Error("Missing file in upload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "multipart field 'file' is required",
		})
		return
	}

	if h.maxUploadSize > 0 && fileHeader.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "uploaded file exceeds the size limit",
		})
		return
	}

	kind, ok := ingest.KindForFile(fileHeader.Filename)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unsupported file type",
		})
		return
	}

	// The staged file is named after the job so the worker can find it and
	// the purge hook can remove it.
	jobID := uuid.New().String()
	stagedPath := filepath.Join(h.tempPath, "temp_"+jobID+filepath.Ext(fileHeader.Filename))

	if err := c.SaveUploadedFile(fileHeader, stagedPath); err != nil {
		h.logger.Error("Failed to stage uploaded file",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store uploaded file",
		})
		return
	}

	job, err := h.submitter.Submit(c.Request.Context(), ingest.Submission{
		JobID:            jobID,
		Kind:             kind,
		FilePath:         stagedPath,
		OriginalFilename: fileHeader.Filename,
	})
	if err != nil {
		h.logger.Error("Failed to submit job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to submit job",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.SubmitJobResponse{
		JobID:            job.JobID,
		Kind:             job.Kind,
		Status:           job.Status,
		OriginalFilename: job.OriginalFilename,
		CreatedAt:        job.CreatedAt.Format(time.RFC3339),
	})
}

// GetJob handles GET /api/v1/jobs/:job_id
// Retrieves status and detail for a specific job
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	jobDTO, err := toJobDTO(job)
	if err != nil {
		h.logger.Error("Failed to decode job result", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to decode job",
		})
		return
	}

	c.JSON(http.StatusOK, jobDTO)
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs with optional filtering and cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.JobFilter{
		Kind:     req.Kind,
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	jobs, err := h.storage.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobDTO, err := toJobDTO(&jobs[i])
		if err != nil {
			h.logger.Error("Failed to decode job result", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to decode job",
			})
			return
		}
		jobResponse[i] = jobDTO
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		cursorObj := storage.JobCursor{
			CreatedAt: lastJob.CreatedAt,
			JobID:     lastJob.JobID,
		}
		nextCursor, err = EncodeJobCursor(&cursorObj)
		if err != nil {
			h.logger.Error("Failed to encode next cursor", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to encode next cursor",
			})
			return
		}
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

// DownloadMinutes handles GET /api/v1/jobs/:job_id/minutes
// Serves the generated document. A job that is not COMPLETED yet answers 409.
func (h *JobHandler) DownloadMinutes(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	if job.Status != domain.JobStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{
			"error":  domain.ErrJobNotReady.Error(),
			"status": job.Status,
		})
		return
	}

	result, err := job.ResultMap()
	if err != nil {
		h.logger.Error("Failed to decode job result", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to decode job result",
		})
		return
	}

	outputPath, ok := result[domain.ResultKeyOutputPath]
	if !ok || outputPath == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "job result has no output document",
		})
		return
	}

	if _, err := os.Stat(outputPath); err != nil {
		h.logger.Error("Output document missing on disk",
			slog.String("job_id", jobID),
			slog.String("path", outputPath),
		)
		c.JSON(http.StatusNotFound, gin.H{
			"error": "output document no longer available",
		})
		return
	}

	c.FileAttachment(outputPath, minutesDownloadName)
}

// DownloadTranscript handles GET /api/v1/jobs/:job_id/transcript
// Serves the stored transcript text once the job is terminal. FAILED jobs
// keep their transcript downloadable, a run in flight answers 409.
func (h *JobHandler) DownloadTranscript(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	if !domain.IsTerminal(job.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"error":  domain.ErrJobNotReady.Error(),
			"status": job.Status,
		})
		return
	}

	rec, err := h.storage.GetTranscript(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrTranscriptNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "transcript not found",
			})
			return
		}
		h.logger.Error("Failed to get transcript", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get transcript",
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+jobID+`_transcript.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(rec.TranscriptText))
}

// PurgeJobs handles DELETE /api/v1/jobs?older_than=168h
// Removes terminal jobs older than the given duration together with their
// staged inputs and output files.
func (h *JobHandler) PurgeJobs(c *gin.Context) {
	olderThanStr := c.DefaultQuery("older_than", "168h")
	olderThan, err := time.ParseDuration(olderThanStr)
	if err != nil || olderThan <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "older_than must be a positive duration",
		})
		return
	}

	cutoff := time.Now().Add(-olderThan)
	purged, err := h.storage.PurgeJobs(c.Request.Context(), cutoff)
	if err != nil {
		h.logger.Error("Failed to purge jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to purge jobs",
		})
		return
	}

	removed := 0
	for _, p := range purged {
		for _, path := range purgedFilePaths(p) {
			if path == "" {
				continue
			}
			if err := os.Remove(path); err != nil {
				if !os.IsNotExist(err) {
					h.logger.Warn("Failed to remove purged artifact",
						slog.String("job_id", p.JobID),
						slog.String("path", path),
						slog.String("error", err.Error()),
					)
				}
				continue
			}
			removed++
		}
	}

	h.logger.Info("Jobs purged",
		slog.Int("purged_jobs", len(purged)),
		slog.Int("removed_files", removed),
		slog.String("older_than", olderThan.String()),
	)

	c.JSON(http.StatusOK, dto.PurgeJobsResponse{
		PurgedJobs:   len(purged),
		RemovedFiles: removed,
	})
}

// purgedFilePaths collects the on-disk artifacts of one purged job
func purgedFilePaths(p storage.PurgedJob) []string {
	paths := []string{p.FilePath}

	if len(p.Result) > 0 {
		job := model.Job{Result: p.Result}
		if result, err := job.ResultMap(); err == nil {
			paths = append(paths,
				result[domain.ResultKeyOutputPath],
				result[domain.ResultKeyTranscriptPath],
			)
		}
	}

	return paths
}

// toJobDTO maps a job row to its external view. The result is exposed only
// for COMPLETED jobs and the error only for FAILED jobs.
func toJobDTO(job *model.Job) (dto.JobDTO, error) {
	out := dto.JobDTO{
		JobID:            job.JobID,
		Kind:             job.Kind,
		Status:           job.Status,
		OriginalFilename: job.OriginalFilename,
		ChunkCount:       job.ChunkCount,
		CreatedAt:        job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        job.UpdatedAt.Format(time.RFC3339),
	}

	if job.StartedAt.Valid {
		out.StartedAt = job.StartedAt.Time.Format(time.RFC3339)
	}
	if job.CompletedAt.Valid {
		out.CompletedAt = job.CompletedAt.Time.Format(time.RFC3339)
	}

	switch job.Status {
	case domain.JobStatusCompleted:
		result, err := job.ResultMap()
		if err != nil {
			return dto.JobDTO{}, err
		}
		out.Result = result
		if job.ProcessingTimeMs.Valid {
			out.ProcessingTimeMs = job.ProcessingTimeMs.Int64
		}
	case domain.JobStatusFailed:
		out.Error = job.ErrorMessage.String
	}

	return out, nil
}
