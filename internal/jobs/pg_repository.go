package jobs

import (
	"context"

	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
)

// Repository stores job records under one fixed partition value. Every
// operation is addressed by owner key and job id; implementations compose the
// record key with identity.RecordKey and list by prefix.
type Repository interface {
	Create(ctx context.Context, job *models.Job) error
	Patch(ctx context.Context, ownerKey, jobID string, patch *models.JobPatch) error
	Get(ctx context.Context, ownerKey, jobID string) (*models.Job, error)
	ListByOwner(ctx context.Context, ownerKey string) ([]*models.Job, error)
}
