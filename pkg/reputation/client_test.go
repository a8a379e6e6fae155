package reputation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
)

func newTestRecorder(t *testing.T) *recorder.Recorder {
	t.Helper()

	store, err := recorder.NewStore(&recorder.Config{
		Type:   recorder.DatabaseTypeSQLite,
		SQLite: recorder.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)

	rec := recorder.New(store)
	go rec.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rec.Shutdown(ctx)
		_ = store.Close()
	})
	return rec
}

func TestParseRateLimitHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Limit", "1000")
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("X-RateLimit-Reset", "1719792000")
	h.Set("Retry-After", "3600")

	info := parseRateLimitHeaders(h)
	assert.Equal(t, 1000, info.Limit)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, int64(1719792000), info.ResetTimestamp)
	assert.Equal(t, 3600, info.RetryAfterSeconds)
	assert.Equal(t, time.Unix(1719792000, 0), info.ResetTime())
}

func TestParseRateLimitHeadersMalformed(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Limit", "not-a-number")

	info := parseRateLimitHeaders(h)
	assert.Zero(t, info.Limit)
	assert.Zero(t, info.RetryAfterSeconds)
	assert.True(t, info.ResetTime().IsZero())
}

func TestCheckIPHitsAPIOnceThenMemory(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "secret-key", r.Header.Get("Key"))
		assert.Equal(t, "203.0.113.5", r.URL.Query().Get("ipAddress"))
		assert.Equal(t, "90", r.URL.Query().Get("maxAgeInDays"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"ipAddress":"203.0.113.5","isPublic":true,"ipVersion":4,"abuseConfidenceScore":97,"countryCode":"RU","usageType":"Data Center/Web Hosting/Transit","isp":"Example LLC","isTor":false,"totalReports":451}}`)
	}))
	defer server.Close()

	client := NewClient("secret-key", newTestRecorder(t), server.URL, 0)
	ctx := context.Background()

	result, err := client.CheckIP(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.Equal(t, 97, result.AbuseConfidenceScore)
	assert.Equal(t, "RU", result.CountryCode)

	// Second lookup is served from memory.
	result, err = client.CheckIP(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.Equal(t, 97, result.AbuseConfidenceScore)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheckIPUsesDatabaseTier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API must not be called when the database tier has a fresh row")
	}))
	defer server.Close()

	rec := newTestRecorder(t)
	ctx := context.Background()
	require.NoError(t, rec.RecordAbuseIPCheck(ctx, recorder.AbuseIPCheck{
		IP:                   "198.51.100.8",
		AbuseConfidenceScore: 42,
		CountryCode:          "BR",
	}))

	client := NewClient("secret-key", rec, server.URL, 0)
	result, err := client.CheckIP(ctx, "198.51.100.8")
	require.NoError(t, err)
	assert.Equal(t, 42, result.AbuseConfidenceScore)
	assert.Equal(t, "BR", result.CountryCode)
}

func TestCheckIPPersistsRawResponse(t *testing.T) {
	body := `{"data":{"ipAddress":"203.0.113.9","abuseConfidenceScore":12,"countryCode":"DE"}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	rec := newTestRecorder(t)
	client := NewClient("secret-key", rec, server.URL, 0)
	ctx := context.Background()

	_, err := client.CheckIP(ctx, "203.0.113.9")
	require.NoError(t, err)

	row, err := rec.GetAbuseIPCheck(ctx, "203.0.113.9", recorder.DefaultCacheTTL)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, body, string(row.ResponseData))
}

func TestCheckIPConfiguredTTLSkipsStaleRow(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"data":{"ipAddress":"198.51.100.30","abuseConfidenceScore":77}}`)
	}))
	defer server.Close()

	rec := newTestRecorder(t)
	ctx := context.Background()
	require.NoError(t, rec.RecordAbuseIPCheck(ctx, recorder.AbuseIPCheck{
		IP:                   "198.51.100.30",
		AbuseConfidenceScore: 1,
		Timestamp:            time.Now().Add(-time.Minute),
	}))

	// A one-second TTL makes the minute-old row stale, so the API is hit.
	client := NewClient("secret-key", rec, server.URL, time.Second)
	result, err := client.CheckIP(ctx, "198.51.100.30")
	require.NoError(t, err)
	assert.Equal(t, 77, result.AbuseConfidenceScore)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheckIPRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "1000")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", "1800")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	rec := newTestRecorder(t)
	client := NewClient("secret-key", rec, server.URL, 0)
	ctx := context.Background()

	_, err := client.CheckIP(ctx, "203.0.113.50")
	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 1800, rateErr.Info.RetryAfterSeconds)

	// The failed lookup must not poison the caches.
	row, err := rec.GetAbuseIPCheck(ctx, "203.0.113.50", recorder.DefaultCacheTTL)
	require.NoError(t, err)
	assert.Nil(t, row)
	_, inMemory := client.memory.Get("203.0.113.50")
	assert.False(t, inMemory)
}

func TestCheckIPServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("secret-key", newTestRecorder(t), server.URL, 0)
	_, err := client.CheckIP(context.Background(), "203.0.113.51")
	require.Error(t, err)
	var rateErr *RateLimitError
	assert.NotErrorAs(t, err, &rateErr)
}

func TestReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/report", r.URL.Path)
		assert.Equal(t, "203.0.113.77", r.PostForm.Get("ip"))
		assert.Equal(t, "18,22", r.PostForm.Get("categories"))
		fmt.Fprint(w, `{"data":{"ipAddress":"203.0.113.77","abuseConfidenceScore":52}}`)
	}))
	defer server.Close()

	client := NewClient("secret-key", newTestRecorder(t), server.URL, 0)
	err := client.Report(context.Background(), "203.0.113.77", []int{18, 22}, "SSH brute force")
	assert.NoError(t, err)
}
