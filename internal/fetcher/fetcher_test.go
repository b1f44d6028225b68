package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFTPURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPath string
		wantErr  bool
	}{
		{
			name:     "default port",
			url:      "ftp://data.example.gov/sites/export.csv",
			wantHost: "data.example.gov:21",
			wantPath: "/sites/export.csv",
		},
		{
			name:     "explicit port",
			url:      "ftp://data.example.gov:2121/export.csv",
			wantHost: "data.example.gov:2121",
			wantPath: "/export.csv",
		},
		{
			name:    "wrong scheme",
			url:     "https://data.example.gov/export.csv",
			wantErr: true,
		},
		{
			name:    "empty path",
			url:     "ftp://data.example.gov",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			host, path, err := parseFTPURL(tc.url)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantHost, host)
			assert.Equal(t, tc.wantPath, path)
		})
	}
}

func TestHTTPFetcher_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "loraplan-test", r.Header.Get("User-Agent"))
		w.Write([]byte("name,lat,lon\n"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{UserAgent: "loraplan-test", RatePerSec: 100})
	body, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "name,lat,lon\n", string(data))
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{RatePerSec: 100})
	body, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, 3, calls)
}

func TestHTTPFetcher_ClientErrorsFailFast(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{RatePerSec: 100})
	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestHTTPFetcher_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := NewHTTPFetcher(HTTPOptions{RatePerSec: 100})
	_, err := f.Download(ctx, srv.URL)
	require.Error(t, err)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, isTransient(nil))
	assert.False(t, isTransient(errors.New("parse failure")))
	assert.True(t, isTransient(&transientError{err: errors.New("status 502")}))
}

func TestBackoff_Capped(t *testing.T) {
	cfg := defaultRetryConfig(10)
	cfg.jitterFraction = 0

	assert.Equal(t, 500*time.Millisecond, backoff(0, cfg))
	assert.Equal(t, time.Second, backoff(1, cfg))
	assert.Equal(t, cfg.maxBackoff, backoff(20, cfg))
}
