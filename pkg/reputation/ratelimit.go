package reputation

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitInfo carries the rate limit headers AbuseIPDB returns on 429
// responses. Zero fields mean the header was absent or unparseable.
type RateLimitInfo struct {
	Limit             int
	Remaining         int
	ResetTimestamp    int64
	RetryAfterSeconds int
}

// RateLimitError is returned when the AbuseIPDB daily quota is exhausted.
type RateLimitError struct {
	Info RateLimitInfo
}

func (e *RateLimitError) Error() string {
	if e.Info.RetryAfterSeconds > 0 {
		return fmt.Sprintf("abuseipdb rate limit exceeded, retry after %ds", e.Info.RetryAfterSeconds)
	}
	return "abuseipdb rate limit exceeded"
}

// ResetTime converts the reset timestamp into a time.Time, or the zero
// value when the header was missing.
func (i RateLimitInfo) ResetTime() time.Time {
	if i.ResetTimestamp == 0 {
		return time.Time{}
	}
	return time.Unix(i.ResetTimestamp, 0)
}

// parseRateLimitHeaders extracts the rate limit fields from a response.
// Missing or malformed headers are left at zero rather than failing; the
// caller is already on an error path.
func parseRateLimitHeaders(h http.Header) RateLimitInfo {
	var info RateLimitInfo

	if v := h.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			info.Limit = n
		}
	}
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			info.Remaining = n
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			info.ResetTimestamp = n
		}
	}
	if v := h.Get("Retry-After"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			info.RetryAfterSeconds = n
		}
	}

	return info
}
