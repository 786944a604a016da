package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatlas/climatlas/internal/api/middleware"
)

type stubValidator struct {
	subject string
	err     error
}

func (v *stubValidator) Validate(string) (string, error) {
	if v.err != nil {
		return "", v.err
	}
	return v.subject, nil
}

func TestAuthPutsSubjectInContext(t *testing.T) {
	var gotSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = middleware.GetSubject(r.Context())
	})

	h := middleware.Auth(&stubValidator{subject: "scheduler"})(next)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	req.Header.Set("Authorization", "Bearer token")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "scheduler", gotSubject)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	h := middleware.Auth(&stubValidator{err: errors.New("bad token")})(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler should not be reached")
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	req.Header.Set("Authorization", "Bearer token")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimitReturnsProblem(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute}
	h := middleware.RateLimitByIP(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
		req.RemoteAddr = "203.0.113.7:1000"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
	}

	require.NotNil(t, last)
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", last.Header().Get("Content-Type"))
}

func TestRequestIDGenerated(t *testing.T) {
	var gotID string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = middleware.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, gotID)
	assert.Equal(t, gotID, rec.Header().Get("X-Request-Id"))
	assert.Contains(t, gotID, "req_")
}
