package usecase

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/identity"
	"github.com/amankumarsingh77/cloud-video-converter/internal/metrics"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const failurePatchTimeout = 10 * time.Second

// probeResult is the outcome of the best-effort probe stage. A failed probe
// is logged and counted by the caller and never becomes a pipeline error.
type probeResult struct {
	media *models.MediaInfo
	err   error
}

func (r probeResult) ok() bool {
	return r.err == nil && r.media != nil
}

// runPipeline drives a created job to done or error. The scratch directory
// for the job is removed on every exit path.
func (uc *jobsUC) runPipeline(ctx context.Context, job *models.Job, source models.Location) error {
	metrics.ActivePipelines.Inc()
	defer metrics.ActivePipelines.Dec()

	scratch := filepath.Join(uc.cfg.Transcoder.ScratchDir, job.JobID)
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			uc.logger.Warnf("runPipeline - remove scratch %s: %v", scratch, err)
		}
	}()

	if err := uc.execute(ctx, job, source, scratch); err != nil {
		uc.fail(ctx, job, err)
		metrics.JobsFinished.WithLabelValues(string(models.JobStatusError)).Inc()
		return err
	}
	metrics.JobsFinished.WithLabelValues(string(models.JobStatusDone)).Inc()
	uc.logger.Infof("Job %s owner %s done", job.JobID, job.OwnerKey)
	return nil
}

func (uc *jobsUC) execute(ctx context.Context, job *models.Job, source models.Location, scratch string) error {
	format := models.NormalizeFormat(string(job.OutputFormat))
	ext := format.Extension()

	// Download.
	if err := uc.patch(ctx, job, models.NewPatch().SetStage(models.JobStatusDownloading, models.ProgressDownloading)); err != nil {
		return err
	}
	timer := uc.stageTimer("download")
	sourcePath := filepath.Join(scratch, "source"+path.Ext(source.Key))
	info, err := uc.artifactRepo.FetchToLocal(ctx, source, sourcePath)
	timer.ObserveDuration()
	if err != nil {
		return err
	}
	observed := models.NewPatch()
	if job.OriginalSize == nil {
		observed.SetOriginalSize(info.Size)
	}
	if job.UploadedAt == nil && !info.LastModified.IsZero() {
		observed.SetUploadedAt(info.LastModified)
	}
	if err = uc.patch(ctx, job, observed); err != nil {
		return err
	}

	// Transcode.
	if err = uc.patch(ctx, job, models.NewPatch().SetStage(models.JobStatusProcessing, models.ProgressProcessing)); err != nil {
		return err
	}
	outputPath := filepath.Join(scratch, "output."+ext)
	timer = uc.stageTimer("transcode")
	err = uc.transcoder.Transcode(ctx, sourcePath, outputPath, format)
	timer.ObserveDuration()
	if err != nil {
		return err
	}

	// Probe, best effort.
	probed := models.NewPatch().SetProgress(models.ProgressProbed)
	if result := uc.probe(ctx, job, outputPath); result.ok() {
		probed.SetMedia(*result.media)
	}
	if err = uc.patch(ctx, job, probed); err != nil {
		return err
	}

	// Publish.
	if err = uc.patch(ctx, job, models.NewPatch().SetStage(models.JobStatusUploading, models.ProgressUploading)); err != nil {
		return err
	}
	destination := models.Location{
		Scheme: uc.scheme,
		Bucket: uc.cfg.Storage.OutputBucket,
		Key:    identity.OutputKey(uc.cfg.Storage.OutputPrefix, job.OwnerKey, job.JobID, ext),
	}
	timer = uc.stageTimer("publish")
	size, err := uc.artifactRepo.PublishFromLocal(ctx, &models.PublishInput{
		LocalPath:        outputPath,
		Destination:      destination,
		ContentType:      format.ContentType(),
		DownloadFilename: downloadFilename(job, ext),
	})
	timer.ObserveDuration()
	if err != nil {
		return err
	}

	return uc.patch(ctx, job, models.NewPatch().
		SetStage(models.JobStatusDone, models.ProgressDone).
		SetOutputSize(size).
		SetOutputLocation(destination.String()).
		SetCompletedAt(uc.now()))
}

func (uc *jobsUC) probe(ctx context.Context, job *models.Job, outputPath string) probeResult {
	timer := uc.stageTimer("probe")
	defer timer.ObserveDuration()

	media, err := uc.prober.Probe(ctx, outputPath)
	result := probeResult{media: media, err: err}
	if !result.ok() {
		metrics.ProbeFailures.Inc()
		uc.logger.Warnf("Job %s owner %s probe failed, media info left empty: %v", job.JobID, job.OwnerKey, err)
	}
	return result
}

func (uc *jobsUC) patch(ctx context.Context, job *models.Job, patch *models.JobPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	if err := uc.jobRepo.Patch(ctx, job.OwnerKey, job.JobID, patch); err != nil {
		uc.logger.Errorf("Job %s owner %s patch failed: %v", job.JobID, job.OwnerKey, err)
		return err
	}
	if patch.Status != nil {
		uc.logger.Infof("Job %s owner %s -> %s", job.JobID, job.OwnerKey, *patch.Status)
	}
	return nil
}

// fail records the error state. Progress is left at its last value.
func (uc *jobsUC) fail(ctx context.Context, job *models.Job, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failurePatchTimeout)
	defer cancel()

	uc.logger.Errorf("Job %s owner %s failed: %v", job.JobID, job.OwnerKey, cause)
	if err := uc.jobRepo.Patch(ctx, job.OwnerKey, job.JobID, models.NewPatch().SetError(cause.Error())); err != nil {
		uc.logger.Errorf("Job %s owner %s could not record error state: %v", job.JobID, job.OwnerKey, err)
	}
}

func (uc *jobsUC) stageTimer(stage string) *prometheus.Timer {
	return prometheus.NewTimer(metrics.StageDuration.WithLabelValues(stage))
}

// downloadFilename names the artifact after the sanitized original file but
// always with the target extension.
func downloadFilename(job *models.Job, ext string) string {
	base := path.Base(strings.ReplaceAll(job.OriginalFilename, "\\", "/"))
	base = strings.TrimSpace(strings.TrimSuffix(base, path.Ext(base)))
	if base == "" || base == "." || base == "/" {
		return job.JobID + "." + ext
	}
	return identity.SanitizeFilename(base) + "." + ext
}
