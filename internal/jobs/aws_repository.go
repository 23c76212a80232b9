package jobs

import (
	"context"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
)

// ArtifactRepository moves objects between blob storage and local scratch space.
type ArtifactRepository interface {
	FetchToLocal(ctx context.Context, source models.Location, localPath string) (*models.ObjectInfo, error)
	PublishFromLocal(ctx context.Context, input *models.PublishInput) (int64, error)
	PresignGet(ctx context.Context, location models.Location, expires time.Duration) (string, error)
}
