package models

import "strings"

// Format is one of the supported output containers.
type Format string

const (
	FormatMP4  Format = "mp4"
	FormatWebM Format = "webm"
	FormatMKV  Format = "mkv"
	FormatMOV  Format = "mov"
	FormatAVI  Format = "avi"

	DefaultFormat = FormatMP4
)

var SupportedFormats = []Format{FormatMP4, FormatWebM, FormatMKV, FormatMOV, FormatAVI}

// NormalizeFormat maps user input onto the closed format set. Unknown values
// fall back to DefaultFormat.
func NormalizeFormat(raw string) Format {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "."))
	for _, supported := range SupportedFormats {
		if f == supported {
			return f
		}
	}
	return DefaultFormat
}

func (f Format) Extension() string {
	return string(NormalizeFormat(string(f)))
}

func (f Format) ContentType() string {
	switch NormalizeFormat(string(f)) {
	case FormatWebM:
		return "video/webm"
	case FormatMKV:
		return "video/x-matroska"
	case FormatMOV:
		return "video/quicktime"
	case FormatAVI:
		return "video/x-msvideo"
	default:
		return "video/mp4"
	}
}
