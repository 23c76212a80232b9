package models

import "time"

type JobStatus string

const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusProcessing  JobStatus = "processing"
	JobStatusUploading   JobStatus = "uploading"
	JobStatusDone        JobStatus = "done"
	JobStatusError       JobStatus = "error"
)

// Progress milestones for each pipeline stage.
const (
	ProgressQueued      = 0
	ProgressDownloading = 5
	ProgressProcessing  = 20
	ProgressProbed      = 80
	ProgressUploading   = 85
	ProgressDone        = 100
)

// MediaInfo holds the technical metadata extracted from the output artifact.
// Every field stays nil until the probe stage succeeds.
type MediaInfo struct {
	Width      *int     `json:"width"`
	Height     *int     `json:"height"`
	VideoCodec *string  `json:"video_codec"`
	AudioCodec *string  `json:"audio_codec"`
	FPS        *float64 `json:"fps"`
	Duration   *float64 `json:"duration"`
	Bitrate    *int64   `json:"bitrate"`
}

// Job is one transcode attempt. PartitionKey is the same for every record;
// owner isolation comes from RecordKey, which is OwnerKey + "#" + JobID.
type Job struct {
	PartitionKey     string    `json:"-"`
	RecordKey        string    `json:"-"`
	JobID            string    `json:"job_id"`
	OwnerKey         string    `json:"owner_key"`
	OwnerEmail       string    `json:"owner_email,omitempty"`
	OriginalFilename string    `json:"original_filename"`
	SourceLocation   string    `json:"source_location"`
	Status           JobStatus `json:"status"`
	Progress         int       `json:"progress"`
	OutputFormat     Format    `json:"output_format"`
	MediaInfo
	OriginalSize   *int64     `json:"original_size"`
	UploadedAt     *time.Time `json:"uploaded_at"`
	OutputSize     *int64     `json:"output_size"`
	OutputLocation string     `json:"output_location,omitempty"`
	CompletedAt    *time.Time `json:"completed_at"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type StartJobInput struct {
	Source           string     `json:"source" validate:"required,lte=1024"`
	Format           string     `json:"format" validate:"omitempty,lte=20"`
	OriginalFilename string     `json:"original_filename" validate:"omitempty,lte=255"`
	OriginalSize     *int64     `json:"original_size" validate:"omitempty,gte=0"`
	UploadedAt       *time.Time `json:"uploaded_at" validate:"omitempty"`
}

type JobList struct {
	Jobs       []*Job `json:"jobs"`
	TotalCount int    `json:"total_count"`
}

type DownloadHandle struct {
	JobID     string    `json:"job_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
