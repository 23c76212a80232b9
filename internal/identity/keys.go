package identity

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// RecordKey is the range portion of a job record key.
func RecordKey(ownerKey, jobID string) string {
	return ownerKey + KeyDelimiter + jobID
}

// OwnerPrefix is the prefix shared by every record key of one owner.
func OwnerPrefix(ownerKey string) string {
	return ownerKey + KeyDelimiter
}

// PrefixUpperBound returns the smallest key greater than every key starting
// with prefix, or "" when no such bound exists.
func PrefixUpperBound(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

// OutputKey returns <prefix>/<escaped owner>/<jobId>/output.<ext>.
func OutputKey(prefix, ownerKey, jobID, ext string) string {
	return joinKey(prefix, url.PathEscape(ownerKey), jobID, "output."+ext)
}

// UploadKey returns <prefix>/<escaped owner>/uploads/<unix millis>-<filename>.
func UploadKey(prefix, ownerKey, filename string, at time.Time) string {
	name := fmt.Sprintf("%d-%s", at.UnixMilli(), SanitizeFilename(filename))
	return joinKey(prefix, url.PathEscape(ownerKey), "uploads", name)
}

// SanitizeFilename keeps the base name and replaces anything outside
// [a-zA-Z0-9._-] with an underscore.
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	clean := strings.Trim(unsafeFilenameChars.ReplaceAllString(base, "_"), "_")
	if clean == "" || strings.Trim(clean, ".") == "" {
		return "file"
	}
	return clean
}

func joinKey(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "/")
}
