package repository

import (
	"context"
	"os"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

type awsRepository struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
	downloader    *manager.Downloader
	uploader      *manager.Uploader
}

func NewAwsRepository(awsClient *s3.Client, preSignClient *s3.PresignClient) jobs.ArtifactRepository {
	return &awsRepository{
		client:        awsClient,
		preSignClient: preSignClient,
		downloader:    manager.NewDownloader(awsClient),
		uploader:      manager.NewUploader(awsClient),
	}
}

func (a *awsRepository) FetchToLocal(ctx context.Context, source models.Location, localPath string) (*models.ObjectInfo, error) {
	head, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(source.Bucket),
		Key:    aws.String(source.Key),
	})
	if err != nil {
		return nil, sourceUnavailable(errors.Wrapf(err, "head %s", source))
	}

	file, err := createLocal(localPath)
	if err != nil {
		return nil, errors.Wrap(err, "awsRepository.FetchToLocal.createLocal")
	}
	n, err := a.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(source.Bucket),
		Key:    aws.String(source.Key),
	})
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(localPath)
		return nil, sourceUnavailable(errors.Wrapf(err, "download %s", source))
	}

	info := &models.ObjectInfo{
		LocalPath: localPath,
		Size:      n,
	}
	if head.LastModified != nil {
		info.LastModified = head.LastModified.UTC()
	}
	return info, nil
}

func (a *awsRepository) PublishFromLocal(ctx context.Context, input *models.PublishInput) (int64, error) {
	file, err := os.Open(input.LocalPath)
	if err != nil {
		return 0, publishFailed(errors.Wrap(err, "open artifact"))
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return 0, publishFailed(errors.Wrap(err, "stat artifact"))
	}

	if _, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(input.Destination.Bucket),
		Key:                aws.String(input.Destination.Key),
		Body:               file,
		ContentType:        aws.String(input.ContentType),
		ContentDisposition: aws.String(contentDisposition(input.DownloadFilename)),
	}); err != nil {
		return 0, publishFailed(errors.Wrapf(err, "upload %s", input.Destination))
	}
	return stat.Size(), nil
}

func (a *awsRepository) PresignGet(ctx context.Context, location models.Location, expires time.Duration) (string, error) {
	req, err := a.preSignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(location.Bucket),
			Key:    aws.String(location.Key),
		},
		s3.WithPresignExpires(expires),
	)
	if err != nil {
		return "", errors.Wrap(err, "awsRepository.PresignGet")
	}
	return req.URL, nil
}
