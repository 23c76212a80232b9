package repository

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	"github.com/pkg/errors"
)

type gcsRepository struct {
	client         *storage.Client
	googleAccessID string
	privateKey     []byte
}

// NewGcsRepository builds the GCS adapter. googleAccessID and privateKey may be
// empty, in which case signing uses the client's own credentials.
func NewGcsRepository(client *storage.Client, googleAccessID string, privateKey []byte) jobs.ArtifactRepository {
	return &gcsRepository{
		client:         client,
		googleAccessID: googleAccessID,
		privateKey:     privateKey,
	}
}

func (g *gcsRepository) FetchToLocal(ctx context.Context, source models.Location, localPath string) (*models.ObjectInfo, error) {
	obj := g.client.Bucket(source.Bucket).Object(source.Key)
	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, sourceUnavailable(errors.Wrapf(err, "open %s", source))
	}
	defer reader.Close()

	file, err := createLocal(localPath)
	if err != nil {
		return nil, errors.Wrap(err, "gcsRepository.FetchToLocal.createLocal")
	}
	n, err := io.Copy(file, reader)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(localPath)
		return nil, sourceUnavailable(errors.Wrapf(err, "read %s", source))
	}

	return &models.ObjectInfo{
		LocalPath:    localPath,
		Size:         n,
		LastModified: reader.Attrs.LastModified.UTC(),
	}, nil
}

func (g *gcsRepository) PublishFromLocal(ctx context.Context, input *models.PublishInput) (int64, error) {
	file, err := os.Open(input.LocalPath)
	if err != nil {
		return 0, publishFailed(errors.Wrap(err, "open artifact"))
	}
	defer file.Close()

	// Cancelling the writer context aborts the upload; Close would commit
	// whatever was buffered under the final key.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	writer := g.client.Bucket(input.Destination.Bucket).Object(input.Destination.Key).NewWriter(ctx)
	writer.ContentType = input.ContentType
	writer.ContentDisposition = contentDisposition(input.DownloadFilename)

	n, err := io.Copy(writer, file)
	if err != nil {
		cancel()
		return 0, publishFailed(errors.Wrapf(err, "write %s", input.Destination))
	}
	if err = writer.Close(); err != nil {
		return 0, publishFailed(errors.Wrapf(err, "close %s", input.Destination))
	}
	return n, nil
}

func (g *gcsRepository) PresignGet(ctx context.Context, location models.Location, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expires),
	}
	if g.googleAccessID != "" {
		opts.GoogleAccessID = g.googleAccessID
		opts.PrivateKey = g.privateKey
	}
	url, err := g.client.Bucket(location.Bucket).SignedURL(location.Key, opts)
	if err != nil {
		return "", errors.Wrap(err, "gcsRepository.PresignGet")
	}
	return url, nil
}
