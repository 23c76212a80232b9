package jobs

import (
	"context"

	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
)

type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string, format models.Format) error
}

type Prober interface {
	Probe(ctx context.Context, path string) (*models.MediaInfo, error)
}
