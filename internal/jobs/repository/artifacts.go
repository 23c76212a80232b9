package repository

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
)

func contentDisposition(filename string) string {
	if filename == "" {
		return "attachment"
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

// createLocal opens localPath for writing, creating parent directories.
func createLocal(localPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return nil, err
	}
	return os.Create(localPath)
}

func sourceUnavailable(err error) error {
	return fmt.Errorf("%w: %v", jobs.ErrSourceUnavailable, err)
}

func publishFailed(err error) error {
	return fmt.Errorf("%w: %v", jobs.ErrPublishFailed, err)
}
