package router

import (
	"net/http"

	"github.com/cuongbtq/minutes-be/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint, reports dependency state
	r.GET("/health", func(c *gin.Context) {
		dbHealthy := deps.DBClient != nil && deps.DBClient.HealthCheck(c.Request.Context()) == nil
		mqHealthy := deps.RabbitClient != nil && deps.RabbitClient.IsConnected()

		status := http.StatusOK
		overall := "healthy"
		if !dbHealthy || !mqHealthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}

		c.JSON(status, gin.H{
			"status":   overall,
			"service":  "minutes-api-service",
			"database": dbHealthy,
			"rabbitmq": mqHealthy,
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Submit an artifact for processing
			jobs.POST("", jobHandler.SubmitJob)

			// GET /api/v1/jobs - List jobs with filtering and pagination
			jobs.GET("", jobHandler.ListJobs)

			// DELETE /api/v1/jobs - Purge old terminal jobs and their files
			jobs.DELETE("", jobHandler.PurgeJobs)

			// GET /api/v1/jobs/:job_id - Get job status and detail
			jobs.GET("/:job_id", jobHandler.GetJob)

			// GET /api/v1/jobs/:job_id/minutes - Download the minutes document
			jobs.GET("/:job_id/minutes", jobHandler.DownloadMinutes)

			// GET /api/v1/jobs/:job_id/transcript - Download the transcript text
			jobs.GET("/:job_id/transcript", jobHandler.DownloadTranscript)
		}
	}

	return r
}
