package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SchemeS3  = "s3"
	SchemeGCS = "gs"
)

var ErrInvalidLocation = errors.New("invalid storage location")

// Location addresses one object in blob storage.
type Location struct {
	Scheme string `json:"scheme"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// ParseLocation accepts "s3://bucket/key", "gs://bucket/key" or a bare key,
// which is resolved against the default scheme and bucket.
func ParseLocation(raw, defaultScheme, defaultBucket string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("%w: empty location", ErrInvalidLocation)
	}
	scheme, rest, found := strings.Cut(raw, "://")
	if !found {
		if defaultBucket == "" {
			return Location{}, fmt.Errorf("%w: no bucket for key %q", ErrInvalidLocation, raw)
		}
		return Location{Scheme: defaultScheme, Bucket: defaultBucket, Key: strings.TrimPrefix(raw, "/")}, nil
	}
	scheme = strings.ToLower(scheme)
	if scheme != SchemeS3 && scheme != SchemeGCS {
		return Location{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocation, scheme)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return Location{}, fmt.Errorf("%w: %q must name a bucket and a key", ErrInvalidLocation, raw)
	}
	return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// ObjectInfo describes an object fetched into local scratch space.
type ObjectInfo struct {
	LocalPath    string
	Size         int64
	LastModified time.Time
}

type PublishInput struct {
	LocalPath        string
	Destination      Location
	ContentType      string
	DownloadFilename string
}
