package worker

import (
	"context"
	"fmt"
	"os"

	"github.com/amankumarsingh77/cloud-video-converter/internal/config"
	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/logger"
)

var formatArgs = map[models.Format][]string{
	models.FormatMP4: {
		"-c:v", "libx264", "-preset", "medium", "-crf", "23",
		"-c:a", "aac", "-b:a", "128k",
		"-movflags", "+faststart",
		"-f", "mp4",
	},
	models.FormatWebM: {
		"-c:v", "libvpx-vp9", "-crf", "32", "-b:v", "0", "-row-mt", "1",
		"-c:a", "libopus", "-b:a", "128k",
		"-f", "webm",
	},
	models.FormatMKV: {
		"-c:v", "libx265", "-preset", "medium", "-crf", "28",
		"-c:a", "aac", "-b:a", "160k",
		"-f", "matroska",
	},
	models.FormatMOV: {
		"-c:v", "libx264", "-preset", "medium", "-crf", "20", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-b:a", "192k",
		"-movflags", "+faststart",
		"-f", "mov",
	},
	models.FormatAVI: {
		"-c:v", "mpeg4", "-q:v", "5",
		"-c:a", "libmp3lame", "-q:a", "4",
		"-f", "avi",
	},
}

// BuildTranscodeArgs returns the ffmpeg argument list for the target format.
// Unknown formats use the default format's settings.
func BuildTranscodeArgs(inputPath, outputPath string, format models.Format) []string {
	format = models.NormalizeFormat(string(format))
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", inputPath}
	args = append(args, formatArgs[format]...)
	return append(args, outputPath)
}

type Transcoder struct {
	ffmpegPath string
	runner     commandRunner
	logger     logger.Logger
}

func NewTranscoder(cfg *config.Config, log logger.Logger) *Transcoder {
	return &Transcoder{
		ffmpegPath: cfg.Transcoder.FFmpegPath,
		runner:     &execRunner{},
		logger:     log,
	}
}

// Transcode blocks until ffmpeg exits. A process that could not be started
// yields ErrToolUnavailable and a non-zero exit yields *jobs.TranscodeError.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, outputPath string, format models.Format) error {
	args := BuildTranscodeArgs(inputPath, outputPath, format)
	t.logger.Debugf("Transcoder.Transcode: %s %v", t.ffmpegPath, args)

	res, err := t.runner.Run(ctx, t.ffmpegPath, args...)
	if err != nil {
		if !res.Started {
			return fmt.Errorf("%w: %s: %v", jobs.ErrToolUnavailable, t.ffmpegPath, err)
		}
		return &jobs.TranscodeError{ExitCode: res.ExitCode}
	}
	if _, err = os.Stat(outputPath); err != nil {
		return fmt.Errorf("%w: output not written: %v", jobs.ErrTranscodeFailed, err)
	}
	return nil
}
