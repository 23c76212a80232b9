package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/logger"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/utils"
	"github.com/labstack/echo/v4"
)

type jobsHandler struct {
	jobsUC jobs.UseCase
	logger logger.Logger
}

func NewJobsHandler(jobsUC jobs.UseCase, logger logger.Logger) jobs.Handler {
	return &jobsHandler{
		jobsUC: jobsUC,
		logger: logger,
	}
}

func (h *jobsHandler) StartJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.StartJobInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}

		async, _ := strconv.ParseBool(c.QueryParam("async"))
		if async {
			job, err := h.jobsUC.SubmitJob(c.Request().Context(), input)
			if err != nil {
				return h.errorResponse(c, err)
			}
			return c.JSON(http.StatusAccepted, job)
		}

		job, err := h.jobsUC.StartJob(c.Request().Context(), input)
		if err != nil {
			return h.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, job)
	}
}

func (h *jobsHandler) GetJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := h.jobsUC.GetJob(c.Request().Context(), c.Param("job_id"))
		if err != nil {
			return h.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, job)
	}
}

func (h *jobsHandler) ListJobs() echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := h.jobsUC.ListJobs(c.Request().Context())
		if err != nil {
			return h.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, list)
	}
}

func (h *jobsHandler) GetDownloadURL() echo.HandlerFunc {
	return func(c echo.Context) error {
		handle, err := h.jobsUC.GetDownloadURL(c.Request().Context(), c.Param("job_id"))
		if err != nil {
			return h.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, handle)
	}
}

func (h *jobsHandler) errorResponse(c echo.Context, err error) error {
	var failed *jobs.JobFailedError
	switch {
	case errors.As(err, &failed):
		h.logger.Errorf("Job failed RequestID: %s, JobID: %s, ERROR: %v", utils.GetRequestID(c), failed.JobID, failed.Err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":  failed.Err.Error(),
			"job_id": failed.JobID,
			"status": string(models.JobStatusError),
		})
	case errors.Is(err, jobs.ErrIdentityMissing):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	case errors.Is(err, jobs.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
	case errors.Is(err, jobs.ErrJobNotReady):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, jobs.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger.Errorf("Request failed RequestID: %s, ERROR: %v", utils.GetRequestID(c), err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
