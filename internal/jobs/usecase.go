package jobs

import (
	"context"

	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
)

type UseCase interface {
	// StartJob runs the whole pipeline before returning.
	StartJob(ctx context.Context, input *models.StartJobInput) (*models.Job, error)
	// SubmitJob creates the record and runs the pipeline in the background.
	SubmitJob(ctx context.Context, input *models.StartJobInput) (*models.Job, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListJobs(ctx context.Context) (*models.JobList, error)
	GetDownloadURL(ctx context.Context, jobID string) (*models.DownloadHandle, error)
	// Wait blocks until background pipelines finish or ctx is done.
	Wait(ctx context.Context) error
}
