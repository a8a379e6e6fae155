package report

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
)

func newTestStore(t *testing.T) *recorder.Store {
	t.Helper()

	store, err := recorder.NewStore(&recorder.Config{
		Type: recorder.DatabaseTypeSQLite,
		SQLite: recorder.SQLiteConfig{
			Path: filepath.Join(t.TempDir(), "test.db"),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func seedAuth(t *testing.T, store *recorder.Store, ip, username, password string, ts time.Time) {
	t.Helper()

	require.NoError(t, store.InsertAuth(context.Background(), &recorder.Auth{
		ID:         uuid.NewString(),
		IP:         ip,
		Username:   username,
		Password:   password,
		Method:     recorder.AuthMethodPassword,
		Successful: true,
		Timestamp:  ts,
	}))
}

func TestIPReportText(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	seedAuth(t, store, "203.0.113.7", "root", "123456", base)
	seedAuth(t, store, "203.0.113.7", "root", "123456", base.Add(time.Minute))
	seedAuth(t, store, "203.0.113.7", "admin", "letmein", base.Add(2*time.Minute))
	seedAuth(t, store, "198.51.100.9", "root", "toor", base) // different IP, excluded

	require.NoError(t, store.UpsertAbuseIPCheck(ctx, &recorder.AbuseIPCheck{
		IP:                   "203.0.113.7",
		AbuseConfidenceScore: 93,
		TotalReports:         412,
		IsTor:                true,
		Timestamp:            base,
	}))
	require.NoError(t, store.UpsertIPApiCheck(ctx, &recorder.IPApiCheck{
		IP:         "203.0.113.7",
		Status:     "success",
		Country:    "Netherlands",
		RegionName: "North Holland",
		City:       "Amsterdam",
		Lat:        52.3740,
		Lon:        4.8897,
		ISP:        "Example Hosting BV",
		Timestamp:  base,
	}))

	generator, err := NewGenerator(store)
	require.NoError(t, err)

	out, err := generator.IPReport(ctx, "203.0.113.7", FormatText)
	require.NoError(t, err)

	assert.Contains(t, out, "SSH HONEYPOT REPORT FOR IP: 203.0.113.7")
	assert.Contains(t, out, "Total Authentication Attempts: 3")
	assert.Contains(t, out, "Unique Usernames Tried: 2")
	assert.Contains(t, out, "Unique Passwords Tried: 2")
	assert.Contains(t, out, "First Seen: 2024-03-10 12:00:00 UTC")
	assert.Contains(t, out, "Last Seen: 2024-03-10 12:02:00 UTC")
	assert.Contains(t, out, "root (2x)")
	assert.Contains(t, out, "123456 (2x)")
	assert.Contains(t, out, "Country: Netherlands")
	assert.Contains(t, out, "Coordinates: 52.3740, 4.8897")
	assert.Contains(t, out, "Abuse Confidence Score: 93%")
	assert.Contains(t, out, "Tor Exit Node: Yes")
	assert.NotContains(t, out, "toor")
}

func TestIPReportNoData(t *testing.T) {
	store := newTestStore(t)

	generator, err := NewGenerator(store)
	require.NoError(t, err)

	out, err := generator.IPReport(context.Background(), "192.0.2.1", FormatText)
	require.NoError(t, err)
	assert.Equal(t, "No data found for IP address: 192.0.2.1\n", out)
}

func TestIPReportWithoutEnrichment(t *testing.T) {
	store := newTestStore(t)

	seedAuth(t, store, "203.0.113.7", "root", "root", time.Now().UTC())

	generator, err := NewGenerator(store)
	require.NoError(t, err)

	out, err := generator.IPReport(context.Background(), "203.0.113.7", FormatText)
	require.NoError(t, err)

	assert.Contains(t, out, "Total Authentication Attempts: 1")
	assert.NotContains(t, out, "GEOLOCATION INFORMATION")
	assert.NotContains(t, out, "THREAT INTELLIGENCE")
}

func TestIPReportHTMLEscapesCredentials(t *testing.T) {
	store := newTestStore(t)

	seedAuth(t, store, "203.0.113.7", "root", `<script>alert(1)</script>`, time.Now().UTC())

	generator, err := NewGenerator(store)
	require.NoError(t, err)

	out, err := generator.IPReport(context.Background(), "203.0.113.7", FormatHTML)
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestPasswordReportMarkdown(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	seedAuth(t, store, "203.0.113.7", "root", "123456", base)
	seedAuth(t, store, "203.0.113.7", "admin", "123456", base.Add(time.Minute))
	seedAuth(t, store, "198.51.100.9", "root", "123456", base.Add(2*time.Minute))
	seedAuth(t, store, "198.51.100.9", "root", "different", base)

	generator, err := NewGenerator(store)
	require.NoError(t, err)

	out, err := generator.PasswordReport(context.Background(), "123456", FormatMarkdown)
	require.NoError(t, err)

	assert.Contains(t, out, "# SSH Honeypot Password Report")
	assert.Contains(t, out, "**Password:** `123456`")
	assert.Contains(t, out, "| Total Attempts | **3** |")
	assert.Contains(t, out, "| Unique IP Addresses | 2 |")
	assert.Contains(t, out, "| Unique Usernames | 2 |")
	assert.Contains(t, out, "| 1 | `root` | 2 |")
	assert.Contains(t, out, "`203.0.113.7`")
	assert.NotContains(t, out, "different")
}

func TestPasswordReportNoData(t *testing.T) {
	store := newTestStore(t)

	generator, err := NewGenerator(store)
	require.NoError(t, err)

	out, err := generator.PasswordReport(context.Background(), "hunter2", FormatText)
	require.NoError(t, err)
	assert.Equal(t, "No data found for password: hunter2\n", out)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "text", want: FormatText},
		{input: "markdown", want: FormatMarkdown},
		{input: "html", want: FormatHTML},
		{input: "HTML", want: FormatHTML},
		{input: "pdf", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountByOrdersByCountThenName(t *testing.T) {
	auths := []recorder.Auth{
		{Username: "guest"},
		{Username: "root"},
		{Username: "admin"},
		{Username: "root"},
		{Username: "admin"},
	}

	counts := countBy(auths, func(a recorder.Auth) (string, bool) {
		return a.Username, true
	})

	require.Len(t, counts, 3)
	assert.Equal(t, Counted{Name: "admin", Count: 2}, counts[0])
	assert.Equal(t, Counted{Name: "root", Count: 2}, counts[1])
	assert.Equal(t, Counted{Name: "guest", Count: 1}, counts[2])
}

func TestIPReportRecentIsCapped(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < recentN+5; i++ {
		seedAuth(t, store, "203.0.113.7", "root", "pw", base.Add(time.Duration(i)*time.Second))
	}

	generator, err := NewGenerator(store)
	require.NoError(t, err)

	out, err := generator.IPReport(context.Background(), "203.0.113.7", FormatText)
	require.NoError(t, err)

	assert.Equal(t, recentN, strings.Count(out, "| root | pw"))
}
