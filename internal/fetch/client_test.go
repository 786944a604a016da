package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatlas/climatlas/internal/fetch"
)

func TestGetBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("STATION,DATE,TMAX\n"))
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.Config{Name: "test"})

	body, err := client.GetBytes(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "STATION,DATE,TMAX\n", string(body))
}

func TestGetBytesNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.Config{Name: "test"})

	_, err := client.GetBytes(context.Background(), server.URL)
	assert.ErrorIs(t, err, fetch.ErrNotFound)
}

func TestDoRetriesOn5xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.Config{
		Name:           "test-retry",
		MaxRetries:     5,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
	})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDoDoesNotRetry4xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.Config{
		Name:           "test-4xx",
		InitialBackoff: 5 * time.Millisecond,
	})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.Config{
		Name:           "test-breaker",
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})

	for i := 0; i < 5; i++ {
		resp, _ := client.Do(mustRequest(t, server.URL)) //nolint:bodyclose // closed below
		if resp != nil {
			resp.Body.Close()
		}
	}
	assert.Equal(t, gobreaker.StateOpen, client.BreakerState())

	_, err := client.GetBytes(context.Background(), server.URL)
	assert.ErrorIs(t, err, fetch.ErrSourceUnavailable)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := fetch.NewClient(fetch.Config{Name: "test-cancel"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.GetBytes(ctx, server.URL)
	assert.Error(t, err)
}

func mustRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return req
}
