package geoip

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

func TestLookupCachesSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/json/203.0.113.12", r.URL.Path)
		fmt.Fprint(w, `{"status":"success","country":"France","countryCode":"FR","regionName":"Ile-de-France","city":"Paris","lat":48.85,"lon":2.35,"timezone":"Europe/Paris","isp":"Example SA","as":"AS64500 Example","query":"203.0.113.12"}`)
	}))
	defer server.Close()

	rec := newTestRecorder(t)
	client := NewClient(rec, server.URL, 0)
	ctx := context.Background()

	loc, err := client.Lookup(ctx, "203.0.113.12")
	require.NoError(t, err)
	assert.Equal(t, "Paris", loc.City)
	assert.Equal(t, "FR", loc.CountryCode)

	// Memory tier absorbs the repeat.
	_, err = client.Lookup(ctx, "203.0.113.12")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// The DB tier was refreshed too.
	row, err := rec.GetIPApiCheck(ctx, "203.0.113.12", recorder.DefaultCacheTTL)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "France", row.Country)
}

func TestLookupUsesDatabaseTier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("API must not be called when the database tier has a fresh row")
	}))
	defer server.Close()

	rec := newTestRecorder(t)
	ctx := context.Background()
	require.NoError(t, rec.RecordIPApiCheck(ctx, recorder.IPApiCheck{
		IP:      "198.51.100.20",
		Status:  "success",
		Country: "Japan",
		City:    "Tokyo",
	}))

	client := NewClient(rec, server.URL, 0)
	loc, err := client.Lookup(ctx, "198.51.100.20")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", loc.City)
}

func TestLookupPersistsRawResponse(t *testing.T) {
	body := `{"status":"success","country":"Japan","city":"Tokyo","query":"203.0.113.14"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	rec := newTestRecorder(t)
	client := NewClient(rec, server.URL, 0)
	ctx := context.Background()

	_, err := client.Lookup(ctx, "203.0.113.14")
	require.NoError(t, err)

	row, err := rec.GetIPApiCheck(ctx, "203.0.113.14", recorder.DefaultCacheTTL)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, body, string(row.ResponseData))
}

func TestLookupConfiguredTTLSkipsStaleRow(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"status":"success","country":"Sweden","city":"Stockholm","query":"198.51.100.40"}`)
	}))
	defer server.Close()

	rec := newTestRecorder(t)
	ctx := context.Background()
	require.NoError(t, rec.RecordIPApiCheck(ctx, recorder.IPApiCheck{
		IP:        "198.51.100.40",
		Status:    "success",
		Country:   "Norway",
		Timestamp: time.Now().Add(-time.Minute),
	}))

	// A one-second TTL makes the minute-old row stale, so the API is hit.
	client := NewClient(rec, server.URL, time.Second)
	loc, err := client.Lookup(ctx, "198.51.100.40")
	require.NoError(t, err)
	assert.Equal(t, "Sweden", loc.Country)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLookupFailureNotCached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"fail","message":"private range","query":"10.0.0.1"}`)
	}))
	defer server.Close()

	rec := newTestRecorder(t)
	client := NewClient(rec, server.URL, 0)
	ctx := context.Background()

	_, err := client.Lookup(ctx, "10.0.0.1")
	require.Error(t, err)

	row, err := rec.GetIPApiCheck(ctx, "10.0.0.1", recorder.DefaultCacheTTL)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestLookupServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(newTestRecorder(t), server.URL, 0)
	_, err := client.Lookup(context.Background(), "203.0.113.13")
	assert.Error(t, err)
}
