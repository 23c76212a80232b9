package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amankumarsingh77/cloud-video-converter/internal/config"
	"github.com/amankumarsingh77/cloud-video-converter/internal/identity"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/logger"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/secrets"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-signing-secret"

func newTestManager() *MiddlewareManager {
	cfg := &config.Config{}
	cfg.Auth.CookieName = "jwt-token"
	cfg.Worker.MaxCPUUsage = 90
	return NewMiddlewareManager(cfg, secrets.NewCache(secrets.StaticSource(testSecret), 0), []string{"*"}, logger.NewNopLogger())
}

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

// ownerEcho serves /owner behind the auth middleware and echoes the derived owner key.
func ownerEcho(mw *MiddlewareManager) *echo.Echo {
	e := echo.New()
	e.GET("/owner", func(c echo.Context) error {
		owner, _, err := identity.OwnerFromCtx(c.Request().Context())
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.String(http.StatusOK, owner)
	}, mw.AuthJWTMiddleware())
	return e
}

func TestAuthJWTMiddlewareBearer(t *testing.T) {
	e := ownerEcho(newTestManager())
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub":   "abc-123",
		"email": "Alice@Example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/owner", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "alice@example.com" {
		t.Fatalf("code = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestAuthJWTMiddlewareCookieAndPreferredUsername(t *testing.T) {
	e := ownerEcho(newTestManager())
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub":                "abc-123",
		"preferred_username": "Bob",
	})

	req := httptest.NewRequest(http.MethodGet, "/owner", nil)
	req.AddCookie(&http.Cookie{Name: "jwt-token", Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "bob" {
		t.Fatalf("code = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestAuthJWTMiddlewareRejects(t *testing.T) {
	e := ownerEcho(newTestManager())
	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"email": "a@b.c",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"email": "a@b.c"})
	noIdentity := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"email": "x#y"})

	cases := map[string]string{
		"missing":     "",
		"malformed":   "Token abc",
		"expired":     "Bearer " + expired,
		"wrong key":   "Bearer " + wrongKey,
		"no identity": "Bearer " + noIdentity,
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/owner", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: code = %d", name, rec.Code)
		}
	}
}

type rotatingSource struct {
	current string
	fetches int
}

func (s *rotatingSource) Fetch(context.Context) (string, error) {
	s.fetches++
	return s.current, nil
}

func TestAuthJWTMiddlewarePicksUpRotatedSecret(t *testing.T) {
	src := &rotatingSource{current: "old-secret"}
	mw := newTestManager()
	mw.secrets = secrets.NewCache(src, time.Hour)
	e := ownerEcho(mw)

	serve := func(key string) int {
		token := signToken(t, jwt.SigningMethodHS256, []byte(key), jwt.MapClaims{"email": "a@b.c"})
		req := httptest.NewRequest(http.MethodGet, "/owner", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := serve("old-secret"); code != http.StatusOK {
		t.Fatalf("old secret code = %d", code)
	}
	src.current = "new-secret"
	if code := serve("new-secret"); code != http.StatusOK {
		t.Fatalf("rotated secret code = %d", code)
	}
	if src.fetches != 2 {
		t.Fatalf("fetches = %d, want 2", src.fetches)
	}
	if code := serve("old-secret"); code != http.StatusUnauthorized {
		t.Fatalf("retired secret code = %d", code)
	}
}

func TestCPUGuardMiddleware(t *testing.T) {
	mw := newTestManager()
	busy := true
	mw.cpuFn = func(float64) (bool, float64) { return !busy, 97 }

	e := echo.New()
	e.POST("/work", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, mw.CPUGuardMiddleware())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/work", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("busy code = %d", rec.Code)
	}

	busy = false
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/work", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("idle code = %d", rec.Code)
	}
}
