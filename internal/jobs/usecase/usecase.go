package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/config"
	"github.com/amankumarsingh77/cloud-video-converter/internal/identity"
	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/metrics"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/logger"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/utils"
	"github.com/google/uuid"
)

type jobsUC struct {
	cfg          *config.Config
	jobRepo      jobs.Repository
	artifactRepo jobs.ArtifactRepository
	transcoder   jobs.Transcoder
	prober       jobs.Prober
	logger       logger.Logger

	scheme string
	now    func() time.Time
	newID  func(time.Time) string
	wg     sync.WaitGroup
}

func NewJobsUseCase(
	cfg *config.Config,
	jobRepo jobs.Repository,
	artifactRepo jobs.ArtifactRepository,
	transcoder jobs.Transcoder,
	prober jobs.Prober,
	log logger.Logger,
) jobs.UseCase {
	return &jobsUC{
		cfg:          cfg,
		jobRepo:      jobRepo,
		artifactRepo: artifactRepo,
		transcoder:   transcoder,
		prober:       prober,
		logger:       log,
		scheme:       StorageScheme(cfg.Storage.Driver),
		now:          time.Now,
		newID:        NewJobID,
	}
}

// StorageScheme maps the storage driver name to its location scheme.
func StorageScheme(driver string) string {
	if strings.EqualFold(driver, "gcs") {
		return models.SchemeGCS
	}
	return models.SchemeS3
}

// NewJobID returns a base36 millisecond timestamp with a random suffix. Ids
// from different processes stay unique without relying on clock order.
func NewJobID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + suffix
}

func (uc *jobsUC) StartJob(ctx context.Context, input *models.StartJobInput) (*models.Job, error) {
	owner, claims, err := identity.OwnerFromCtx(ctx)
	if err != nil {
		uc.logger.Warnf("StartJob - OwnerFromCtx: %v", err)
		return nil, err
	}
	job, source, err := uc.createJob(ctx, owner, claims, input)
	if err != nil {
		return nil, err
	}

	uc.wg.Add(1)
	defer uc.wg.Done()
	// The caller may give up during a long transcode; the outcome is still read back.
	detached := context.WithoutCancel(ctx)
	if err = uc.runPipeline(detached, job, source); err != nil {
		latest, getErr := uc.jobRepo.Get(detached, owner, job.JobID)
		if getErr != nil {
			uc.logger.Errorf("StartJob - Get failed job %s owner %s: %v", job.JobID, owner, getErr)
			latest = job
		}
		return latest, &jobs.JobFailedError{JobID: job.JobID, Err: err}
	}

	done, err := uc.jobRepo.Get(detached, owner, job.JobID)
	if err != nil {
		uc.logger.Errorf("StartJob - Get finished job %s owner %s: %v", job.JobID, owner, err)
		return nil, fmt.Errorf("failed to read finished job: %w", err)
	}
	return done, nil
}

func (uc *jobsUC) SubmitJob(ctx context.Context, input *models.StartJobInput) (*models.Job, error) {
	owner, claims, err := identity.OwnerFromCtx(ctx)
	if err != nil {
		uc.logger.Warnf("SubmitJob - OwnerFromCtx: %v", err)
		return nil, err
	}
	job, source, err := uc.createJob(ctx, owner, claims, input)
	if err != nil {
		return nil, err
	}
	queued := *job

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		if err := uc.runPipeline(context.WithoutCancel(ctx), job, source); err != nil {
			uc.logger.Warnf("SubmitJob - job %s owner %s ended in error: %v", job.JobID, owner, err)
		}
	}()
	return &queued, nil
}

// createJob validates the request and seeds the queued record. Nothing is
// written when validation fails.
func (uc *jobsUC) createJob(ctx context.Context, owner string, claims *identity.Claims, input *models.StartJobInput) (*models.Job, models.Location, error) {
	if input == nil {
		return nil, models.Location{}, fmt.Errorf("%w: empty request", jobs.ErrInvalidInput)
	}
	if err := utils.ValidateStruct(ctx, input); err != nil {
		uc.logger.Warnf("createJob - ValidateStruct owner %s: %v", owner, err)
		return nil, models.Location{}, fmt.Errorf("%w: %v", jobs.ErrInvalidInput, err)
	}
	source, err := models.ParseLocation(input.Source, uc.scheme, uc.cfg.Storage.InputBucket)
	if err != nil {
		return nil, models.Location{}, fmt.Errorf("%w: %v", jobs.ErrInvalidInput, err)
	}
	if source.Scheme != uc.scheme {
		return nil, models.Location{}, fmt.Errorf("%w: %s sources are not served by the %s storage driver",
			jobs.ErrInvalidInput, source.Scheme, uc.cfg.Storage.Driver)
	}

	now := uc.now().UTC()
	job := &models.Job{
		JobID:            uc.newID(now),
		OwnerKey:         owner,
		OwnerEmail:       strings.TrimSpace(claims.Email),
		OriginalFilename: strings.TrimSpace(input.OriginalFilename),
		SourceLocation:   source.String(),
		Status:           models.JobStatusQueued,
		Progress:         models.ProgressQueued,
		OutputFormat:     models.NormalizeFormat(input.Format),
		OriginalSize:     input.OriginalSize,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if job.OriginalFilename == "" {
		job.OriginalFilename = path.Base(source.Key)
	}
	if input.UploadedAt != nil {
		uploaded := input.UploadedAt.UTC()
		job.UploadedAt = &uploaded
	}

	if err = uc.jobRepo.Create(ctx, job); err != nil {
		uc.logger.Errorf("createJob - Create job %s owner %s: %v", job.JobID, owner, err)
		return nil, models.Location{}, fmt.Errorf("failed to create job: %w", err)
	}
	metrics.JobsStarted.Inc()
	uc.logger.Infof("Job %s queued for owner %s: %s -> %s", job.JobID, owner, job.SourceLocation, job.OutputFormat)
	return job, source, nil
}

func (uc *jobsUC) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	owner, _, err := identity.OwnerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id is required", jobs.ErrInvalidInput)
	}
	job, err := uc.jobRepo.Get(ctx, owner, jobID)
	if err != nil {
		if !errors.Is(err, jobs.ErrNotFound) {
			uc.logger.Errorf("GetJob - Get job %s owner %s: %v", jobID, owner, err)
		}
		return nil, err
	}
	return job, nil
}

func (uc *jobsUC) ListJobs(ctx context.Context) (*models.JobList, error) {
	owner, _, err := identity.OwnerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	list, err := uc.jobRepo.ListByOwner(ctx, owner)
	if err != nil {
		uc.logger.Errorf("ListJobs - ListByOwner owner %s: %v", owner, err)
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return &models.JobList{Jobs: list, TotalCount: len(list)}, nil
}

func (uc *jobsUC) GetDownloadURL(ctx context.Context, jobID string) (*models.DownloadHandle, error) {
	job, err := uc.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusDone || job.OutputLocation == "" {
		return nil, fmt.Errorf("%w: job %s is %s", jobs.ErrJobNotReady, job.JobID, job.Status)
	}
	location, err := models.ParseLocation(job.OutputLocation, uc.scheme, uc.cfg.Storage.OutputBucket)
	if err != nil {
		return nil, fmt.Errorf("stored output location of job %s: %w", job.JobID, err)
	}
	expires := uc.cfg.Storage.PresignExpire
	url, err := uc.artifactRepo.PresignGet(ctx, location, expires)
	if err != nil {
		uc.logger.Errorf("GetDownloadURL - PresignGet job %s: %v", job.JobID, err)
		return nil, fmt.Errorf("failed to issue download url: %w", err)
	}
	return &models.DownloadHandle{
		JobID:     job.JobID,
		URL:       url,
		ExpiresAt: uc.now().UTC().Add(expires),
	}, nil
}

func (uc *jobsUC) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
