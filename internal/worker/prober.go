package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/amankumarsingh77/cloud-video-converter/internal/config"
	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
)

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	BitRate      string `json:"bit_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type Prober struct {
	ffprobePath string
	runner      commandRunner
}

func NewProber(cfg *config.Config) *Prober {
	return &Prober{
		ffprobePath: cfg.Transcoder.FFprobePath,
		runner:      &execRunner{},
	}
}

func (p *Prober) Probe(ctx context.Context, path string) (*models.MediaInfo, error) {
	res, err := p.runner.Run(ctx, p.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		if !res.Started {
			return nil, fmt.Errorf("%w: %s: %v", jobs.ErrToolUnavailable, p.ffprobePath, err)
		}
		return nil, fmt.Errorf("ffprobe exited with code %d", res.ExitCode)
	}
	return ParseProbeOutput(res.Stdout)
}

// ParseProbeOutput extracts MediaInfo from ffprobe JSON. Fields that are
// missing or unparsable stay nil.
func ParseProbeOutput(data []byte) (*models.MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	info := &models.MediaInfo{}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec != nil {
				continue
			}
			info.VideoCodec = nonEmpty(s.CodecName)
			if s.Width > 0 && s.Height > 0 {
				w, h := s.Width, s.Height
				info.Width, info.Height = &w, &h
			}
			fps, ok := parseRate(s.RFrameRate)
			if !ok {
				fps, ok = parseRate(s.AvgFrameRate)
			}
			if ok {
				info.FPS = &fps
			}
		case "audio":
			if info.AudioCodec == nil {
				info.AudioCodec = nonEmpty(s.CodecName)
			}
		}
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64); err == nil && isFinite(d) && d >= 0 {
		info.Duration = &d
	}
	if b, err := strconv.ParseInt(strings.TrimSpace(out.Format.BitRate), 10, 64); err == nil && b > 0 {
		info.Bitrate = &b
	}

	if info.IsEmpty() {
		return nil, fmt.Errorf("ffprobe reported no usable media fields")
	}
	return info, nil
}

// parseRate turns "30000/1001" into 29.97.
func parseRate(raw string) (float64, bool) {
	num, den, found := strings.Cut(strings.TrimSpace(raw), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d := 1.0
	if found {
		if d, err = strconv.ParseFloat(den, 64); err != nil || d == 0 {
			return 0, false
		}
	}
	rate := n / d
	if !isFinite(rate) || rate <= 0 {
		return 0, false
	}
	return math.Round(rate*100) / 100, true
}

// isFinite rejects the NaN and Inf values strconv.ParseFloat accepts.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
