package http

import (
	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/middleware"
	"github.com/labstack/echo/v4"
)

func MapJobRoutes(jobsGroup *echo.Group, h jobs.Handler, mw *middleware.MiddlewareManager) {
	jobsGroup.Use(mw.AuthJWTMiddleware())
	jobsGroup.POST("", h.StartJob(), mw.CPUGuardMiddleware())
	jobsGroup.GET("", h.ListJobs())
	jobsGroup.GET("/:job_id", h.GetJob())
	jobsGroup.GET("/:job_id/download", h.GetDownloadURL())
}
