package repository

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	awsclient "github.com/amankumarsingh77/cloud-video-converter/pkg/db/aws"
)

// fakeS3 serves just enough of the S3 REST API for one bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	headers map[string]http.Header
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: map[string][]byte{},
		headers: map[string]http.Header{},
	}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodHead, http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Last-Modified", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.Header().Set("ETag", `"etag"`)
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Range", "bytes 0-"+strconv.Itoa(len(body)-1)+"/"+strconv.Itoa(len(body)))
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(body)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.headers[key] = r.Header.Clone()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestAwsRepository(t *testing.T, server *httptest.Server) jobs.ArtifactRepository {
	t.Helper()
	client, presign, err := awsclient.NewAWSClient(server.URL, "us-east-1", "test-access", "test-secret")
	if err != nil {
		t.Fatalf("NewAWSClient: %v", err)
	}
	return NewAwsRepository(client, presign)
}

func TestAwsRepositoryFetchToLocal(t *testing.T) {
	fake := newFakeS3()
	fake.objects["inputs/in.mov"] = []byte("0123456789")
	server := httptest.NewServer(fake)
	defer server.Close()

	repo := newTestAwsRepository(t, server)
	localPath := filepath.Join(t.TempDir(), "job-1", "source.mov")

	info, err := repo.FetchToLocal(context.Background(), models.Location{Scheme: "s3", Bucket: "inputs", Key: "in.mov"}, localPath)
	if err != nil {
		t.Fatalf("FetchToLocal: %v", err)
	}
	if info.Size != 10 {
		t.Fatalf("Size = %d, want 10", info.Size)
	}
	if !info.LastModified.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("LastModified = %v", info.LastModified)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		t.Fatalf("read local: %v", err)
	}
	if string(data) != "0123456789" {
		t.Fatalf("local content = %q", data)
	}
}

func TestAwsRepositoryFetchMissingObject(t *testing.T) {
	server := httptest.NewServer(newFakeS3())
	defer server.Close()

	repo := newTestAwsRepository(t, server)
	localPath := filepath.Join(t.TempDir(), "source.mov")

	_, err := repo.FetchToLocal(context.Background(), models.Location{Scheme: "s3", Bucket: "inputs", Key: "missing.mov"}, localPath)
	if !errors.Is(err, jobs.ErrSourceUnavailable) {
		t.Fatalf("FetchToLocal error = %v, want ErrSourceUnavailable", err)
	}
	if _, statErr := os.Stat(localPath); !os.IsNotExist(statErr) {
		t.Fatalf("scratch file left behind: %v", statErr)
	}
}

func TestAwsRepositoryPublishSetsDisposition(t *testing.T) {
	fake := newFakeS3()
	server := httptest.NewServer(fake)
	defer server.Close()

	repo := newTestAwsRepository(t, server)
	localPath := filepath.Join(t.TempDir(), "output.webm")
	if err := os.WriteFile(localPath, []byte("webm-bytes"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	size, err := repo.PublishFromLocal(context.Background(), &models.PublishInput{
		LocalPath:        localPath,
		Destination:      models.Location{Scheme: "s3", Bucket: "outputs", Key: "converted/u1/j-1/output.webm"},
		ContentType:      "video/webm",
		DownloadFilename: "holiday.webm",
	})
	if err != nil {
		t.Fatalf("PublishFromLocal: %v", err)
	}
	if size != int64(len("webm-bytes")) {
		t.Fatalf("size = %d", size)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	headers, ok := fake.headers["outputs/converted/u1/j-1/output.webm"]
	if !ok {
		t.Fatalf("object not published, have %v", fake.headers)
	}
	if got := headers.Get("Content-Disposition"); got != `attachment; filename=holiday.webm` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if got := headers.Get("Content-Type"); got != "video/webm" {
		t.Fatalf("Content-Type = %q", got)
	}
}

func TestAwsRepositoryPresignGet(t *testing.T) {
	server := httptest.NewServer(newFakeS3())
	defer server.Close()

	repo := newTestAwsRepository(t, server)
	url, err := repo.PresignGet(context.Background(), models.Location{Scheme: "s3", Bucket: "outputs", Key: "converted/u1/j-1/output.webm"}, 10*time.Minute)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if !strings.HasPrefix(url, server.URL+"/outputs/converted/u1/j-1/output.webm?") {
		t.Fatalf("unexpected url %q", url)
	}
	if !strings.Contains(url, "X-Amz-Expires=600") {
		t.Fatalf("url missing expiry: %q", url)
	}
}

func TestContentDisposition(t *testing.T) {
	if got := contentDisposition("my clip.mp4"); got != `attachment; filename="my clip.mp4"` {
		t.Fatalf("contentDisposition = %q", got)
	}
	if got := contentDisposition(""); got != "attachment" {
		t.Fatalf("contentDisposition(empty) = %q", got)
	}
}
