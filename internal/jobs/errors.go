package jobs

import (
	"errors"
	"fmt"

	"github.com/amankumarsingh77/cloud-video-converter/internal/identity"
)

var (
	ErrIdentityMissing   = identity.ErrIdentityMissing
	ErrNotFound          = errors.New("job not found")
	ErrDuplicateJob      = errors.New("duplicate job")
	ErrJobNotReady       = errors.New("job output not ready")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrToolUnavailable   = errors.New("transcoding tool unavailable")
	ErrTranscodeFailed   = errors.New("transcode failed")
	ErrPublishFailed     = errors.New("publish failed")
	ErrInvalidInput      = errors.New("invalid input")
)

// TranscodeError is returned when the transcoder ran but exited non-zero.
type TranscodeError struct {
	ExitCode int
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode failed: exit code %d", e.ExitCode)
}

func (e *TranscodeError) Unwrap() error {
	return ErrTranscodeFailed
}

// JobFailedError is returned by a start request whose pipeline failed after
// the record was created. The record is in the error state under JobID.
type JobFailedError struct {
	JobID string
	Err   error
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %v", e.JobID, e.Err)
}

func (e *JobFailedError) Unwrap() error {
	return e.Err
}
