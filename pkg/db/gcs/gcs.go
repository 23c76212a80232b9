package gcs

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"github.com/amankumarsingh77/cloud-video-converter/internal/config"
	"google.golang.org/api/option"
)

func NewGCSClient(ctx context.Context, c *config.Config) (*storage.Client, error) {
	var opts []option.ClientOption
	if c.GCS.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.GCS.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return client, nil
}

// LoadPrivateKey reads the PEM key used for URL signing. An empty path
// returns nil.
func LoadPrivateKey(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gcs signing key: %w", err)
	}
	return key, nil
}
