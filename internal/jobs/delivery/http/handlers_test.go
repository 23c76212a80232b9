package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/internal/models"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/logger"
	"github.com/labstack/echo/v4"
)

type fakeUseCase struct {
	startErr   error
	getErr     error
	downloadFn func(jobID string) (*models.DownloadHandle, error)

	startCalls  int
	submitCalls int
	lastInput   *models.StartJobInput
	lastJobID   string
}

func (f *fakeUseCase) StartJob(_ context.Context, input *models.StartJobInput) (*models.Job, error) {
	f.startCalls++
	f.lastInput = input
	if f.startErr != nil {
		return &models.Job{JobID: "j1", Status: models.JobStatusError}, f.startErr
	}
	return &models.Job{JobID: "j1", Status: models.JobStatusDone, Progress: 100}, nil
}

func (f *fakeUseCase) SubmitJob(_ context.Context, input *models.StartJobInput) (*models.Job, error) {
	f.submitCalls++
	f.lastInput = input
	return &models.Job{JobID: "j2", Status: models.JobStatusQueued}, nil
}

func (f *fakeUseCase) GetJob(_ context.Context, jobID string) (*models.Job, error) {
	f.lastJobID = jobID
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Job{JobID: jobID, Status: models.JobStatusProcessing, Progress: 20}, nil
}

func (f *fakeUseCase) ListJobs(context.Context) (*models.JobList, error) {
	return &models.JobList{Jobs: []*models.Job{{JobID: "b"}, {JobID: "a"}}, TotalCount: 2}, nil
}

func (f *fakeUseCase) GetDownloadURL(_ context.Context, jobID string) (*models.DownloadHandle, error) {
	return f.downloadFn(jobID)
}

func (f *fakeUseCase) Wait(context.Context) error { return nil }

func newTestEcho(uc jobs.UseCase) *echo.Echo {
	e := echo.New()
	h := NewJobsHandler(uc, logger.NewNopLogger())
	g := e.Group("/api/v1/jobs")
	g.POST("", h.StartJob())
	g.GET("", h.ListJobs())
	g.GET("/:job_id", h.GetJob())
	g.GET("/:job_id/download", h.GetDownloadURL())
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestStartJobSync(t *testing.T) {
	uc := &fakeUseCase{}
	e := newTestEcho(uc)

	rec := doRequest(e, http.MethodPost, "/api/v1/jobs", `{"source":"uploads/a.mov","format":"webm","original_size":42}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
	}
	if uc.startCalls != 1 || uc.submitCalls != 0 {
		t.Fatalf("start=%d submit=%d", uc.startCalls, uc.submitCalls)
	}
	if uc.lastInput.Source != "uploads/a.mov" || uc.lastInput.Format != "webm" || *uc.lastInput.OriginalSize != 42 {
		t.Fatalf("bound input = %+v", uc.lastInput)
	}
	if body := decodeBody(t, rec); body["status"] != "done" {
		t.Fatalf("body = %v", body)
	}
}

func TestStartJobAsync(t *testing.T) {
	uc := &fakeUseCase{}
	e := newTestEcho(uc)

	rec := doRequest(e, http.MethodPost, "/api/v1/jobs?async=true", `{"source":"a.mov"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("code = %d", rec.Code)
	}
	if uc.submitCalls != 1 || uc.startCalls != 0 {
		t.Fatalf("start=%d submit=%d", uc.startCalls, uc.submitCalls)
	}
	if body := decodeBody(t, rec); body["status"] != "queued" {
		t.Fatalf("body = %v", body)
	}
}

func TestStartJobFailureCarriesJobID(t *testing.T) {
	uc := &fakeUseCase{startErr: &jobs.JobFailedError{JobID: "j1", Err: &jobs.TranscodeError{ExitCode: 1}}}
	e := newTestEcho(uc)

	rec := doRequest(e, http.MethodPost, "/api/v1/jobs", `{"source":"a.mov"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["job_id"] != "j1" || body["status"] != "error" || body["error"] == "" {
		t.Fatalf("body = %v", body)
	}
}

func TestStartJobBadPayload(t *testing.T) {
	e := newTestEcho(&fakeUseCase{})
	rec := doRequest(e, http.MethodPost, "/api/v1/jobs", `{"source":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{jobs.ErrIdentityMissing, http.StatusUnauthorized},
		{jobs.ErrNotFound, http.StatusNotFound},
		{jobs.ErrInvalidInput, http.StatusBadRequest},
		{errors.New("store down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		e := newTestEcho(&fakeUseCase{getErr: tc.err})
		rec := doRequest(e, http.MethodGet, "/api/v1/jobs/abc", "")
		if rec.Code != tc.code {
			t.Fatalf("%v: code = %d, want %d", tc.err, rec.Code, tc.code)
		}
	}
}

func TestGetJobPassesID(t *testing.T) {
	uc := &fakeUseCase{}
	e := newTestEcho(uc)
	rec := doRequest(e, http.MethodGet, "/api/v1/jobs/lq3x-abc", "")
	if rec.Code != http.StatusOK || uc.lastJobID != "lq3x-abc" {
		t.Fatalf("code = %d id = %q", rec.Code, uc.lastJobID)
	}
}

func TestListJobs(t *testing.T) {
	e := newTestEcho(&fakeUseCase{})
	rec := doRequest(e, http.MethodGet, "/api/v1/jobs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["total_count"] != float64(2) {
		t.Fatalf("body = %v", body)
	}
}

func TestGetDownloadURL(t *testing.T) {
	expires := time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC)
	uc := &fakeUseCase{downloadFn: func(jobID string) (*models.DownloadHandle, error) {
		if jobID == "pending" {
			return nil, jobs.ErrJobNotReady
		}
		return &models.DownloadHandle{JobID: jobID, URL: "https://signed/x", ExpiresAt: expires}, nil
	}}
	e := newTestEcho(uc)

	rec := doRequest(e, http.MethodGet, "/api/v1/jobs/j1/download", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["url"] != "https://signed/x" || body["expires_at"] != "2024-01-01T00:15:00Z" {
		t.Fatalf("body = %v", body)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/jobs/pending/download", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("not ready code = %d", rec.Code)
	}
}
