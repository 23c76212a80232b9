package models

import "time"

// JobPatch is a partial update of a Job record. It has no fields for the
// partition key, record key, job id or owner, so a patch can never rewrite them.
type JobPatch struct {
	Status         *JobStatus
	Progress       *int
	Media          *MediaInfo
	OriginalSize   *int64
	UploadedAt     *time.Time
	OutputSize     *int64
	OutputLocation *string
	CompletedAt    *time.Time
	ErrorMessage   *string
}

func NewPatch() *JobPatch {
	return &JobPatch{}
}

func (p *JobPatch) SetStatus(status JobStatus) *JobPatch {
	p.Status = &status
	return p
}

func (p *JobPatch) SetProgress(progress int) *JobPatch {
	if progress < 0 {
		progress = 0
	}
	if progress > ProgressDone {
		progress = ProgressDone
	}
	p.Progress = &progress
	return p
}

// SetStage sets status and the milestone progress in one call.
func (p *JobPatch) SetStage(status JobStatus, progress int) *JobPatch {
	return p.SetStatus(status).SetProgress(progress)
}

func (p *JobPatch) SetMedia(media MediaInfo) *JobPatch {
	p.Media = &media
	return p
}

func (p *JobPatch) SetOriginalSize(size int64) *JobPatch {
	p.OriginalSize = &size
	return p
}

func (p *JobPatch) SetUploadedAt(t time.Time) *JobPatch {
	t = t.UTC()
	p.UploadedAt = &t
	return p
}

func (p *JobPatch) SetOutputSize(size int64) *JobPatch {
	p.OutputSize = &size
	return p
}

func (p *JobPatch) SetOutputLocation(location string) *JobPatch {
	p.OutputLocation = &location
	return p
}

func (p *JobPatch) SetCompletedAt(t time.Time) *JobPatch {
	t = t.UTC()
	p.CompletedAt = &t
	return p
}

func (p *JobPatch) SetError(message string) *JobPatch {
	p.ErrorMessage = &message
	return p.SetStatus(JobStatusError)
}

func (p *JobPatch) IsEmpty() bool {
	return p == nil || (p.Status == nil &&
		p.Progress == nil &&
		p.Media == nil &&
		p.OriginalSize == nil &&
		p.UploadedAt == nil &&
		p.OutputSize == nil &&
		p.OutputLocation == nil &&
		p.CompletedAt == nil &&
		p.ErrorMessage == nil)
}

// Apply merges the patch into job. Progress never moves backwards and media
// fields are merged one by one, so a nil field in the patch keeps the stored value.
func (p *JobPatch) Apply(job *Job, now time.Time) {
	if p.IsEmpty() {
		return
	}
	if p.Status != nil {
		job.Status = *p.Status
	}
	if p.Progress != nil && *p.Progress > job.Progress {
		job.Progress = *p.Progress
	}
	if p.Media != nil {
		job.MediaInfo.merge(*p.Media)
	}
	if p.OriginalSize != nil {
		job.OriginalSize = p.OriginalSize
	}
	if p.UploadedAt != nil {
		job.UploadedAt = p.UploadedAt
	}
	if p.OutputSize != nil {
		job.OutputSize = p.OutputSize
	}
	if p.OutputLocation != nil {
		job.OutputLocation = *p.OutputLocation
	}
	if p.CompletedAt != nil {
		job.CompletedAt = p.CompletedAt
	}
	if p.ErrorMessage != nil {
		job.ErrorMessage = *p.ErrorMessage
	}
	job.UpdatedAt = now.UTC()
}

func (m *MediaInfo) merge(other MediaInfo) {
	if other.Width != nil {
		m.Width = other.Width
	}
	if other.Height != nil {
		m.Height = other.Height
	}
	if other.VideoCodec != nil {
		m.VideoCodec = other.VideoCodec
	}
	if other.AudioCodec != nil {
		m.AudioCodec = other.AudioCodec
	}
	if other.FPS != nil {
		m.FPS = other.FPS
	}
	if other.Duration != nil {
		m.Duration = other.Duration
	}
	if other.Bitrate != nil {
		m.Bitrate = other.Bitrate
	}
}

// IsEmpty reports whether no technical field was extracted.
func (m MediaInfo) IsEmpty() bool {
	return m.Width == nil && m.Height == nil && m.VideoCodec == nil && m.AudioCodec == nil &&
		m.FPS == nil && m.Duration == nil && m.Bitrate == nil
}
