// Package reputation looks up attacker IPs against AbuseIPDB with a
// three-tier cache: process memory, the recorder database, then HTTPS.
// Lookup failures are never written to either cache tier.
package reputation

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/logger"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
)

const (
	// DefaultBaseURL is the production AbuseIPDB endpoint.
	DefaultBaseURL = "https://api.abuseipdb.com"

	// maxAgeInDays is the report window requested from the API.
	maxAgeInDays = 90

	// requestTimeout bounds a single API round trip.
	requestTimeout = 10 * time.Second
)

// CheckResult is the subset of the AbuseIPDB check response the honeypot
// keeps. Field names follow the API's JSON.
type CheckResult struct {
	IPAddress            string   `json:"ipAddress"`
	IsPublic             bool     `json:"isPublic"`
	IPVersion            int      `json:"ipVersion"`
	IsWhitelisted        bool     `json:"isWhitelisted"`
	AbuseConfidenceScore int      `json:"abuseConfidenceScore"`
	CountryCode          string   `json:"countryCode"`
	UsageType            string   `json:"usageType"`
	ISP                  string   `json:"isp"`
	Domain               string   `json:"domain"`
	Hostnames            []string `json:"hostnames"`
	IsTor                bool     `json:"isTor"`
	TotalReports         int      `json:"totalReports"`
	NumDistinctUsers     int      `json:"numDistinctUsers"`
	LastReportedAt       string   `json:"lastReportedAt"`
}

type checkResponse struct {
	Data CheckResult `json:"data"`
}

// Client queries AbuseIPDB with memory and database caching.
type Client struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	memory   *gocache.Cache
	recorder *recorder.Recorder
	cacheTTL time.Duration
}

// NewClient creates a reputation client. baseURL may be empty to use the
// production endpoint; tests point it at a local server. cacheTTL governs
// both cache tiers; zero or negative falls back to the default.
func NewClient(apiKey string, rec *recorder.Recorder, baseURL string, cacheTTL time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cacheTTL <= 0 {
		cacheTTL = recorder.DefaultCacheTTL
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: requestTimeout, Transport: transport},
		memory:   gocache.New(cacheTTL, time.Hour),
		recorder: rec,
		cacheTTL: cacheTTL,
	}
}

// CheckIP resolves the reputation of ip. Tiers are consulted in order:
// process memory, recorder database, live API. Successful API responses
// refresh both cache tiers. A *RateLimitError is returned when the quota
// is exhausted.
func (c *Client) CheckIP(ctx context.Context, ip string) (*CheckResult, error) {
	if cached, ok := c.memory.Get(ip); ok {
		result := cached.(CheckResult)
		return &result, nil
	}

	if c.recorder != nil {
		row, err := c.recorder.GetAbuseIPCheck(ctx, ip, c.cacheTTL)
		if err != nil {
			logger.Warn("Abuse cache lookup failed, falling through to API", "error", err, "ip", ip)
		} else if row != nil {
			result := resultFromRow(row)
			c.memory.Set(ip, result, gocache.DefaultExpiration)
			return &result, nil
		}
	}

	result, raw, err := c.fetch(ctx, ip)
	if err != nil {
		return nil, err
	}

	c.memory.Set(ip, *result, gocache.DefaultExpiration)
	if c.recorder != nil {
		if err := c.recorder.RecordAbuseIPCheck(ctx, rowFromResult(result, raw)); err != nil {
			logger.Warn("Failed to persist abuse check", "error", err, "ip", ip)
		}
	}

	return result, nil
}

// fetch performs the live API call. It returns the parsed result together
// with the raw response body, which is persisted alongside the parsed
// fields so later analysis can recover anything the struct drops.
func (c *Client) fetch(ctx context.Context, ip string) (*CheckResult, []byte, error) {
	endpoint := fmt.Sprintf("%s/api/v2/check?ipAddress=%s&maxAgeInDays=%d",
		c.baseURL, url.QueryEscape(ip), maxAgeInDays)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build abuseipdb request: %w", err)
	}
	req.Header.Set("Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("abuseipdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		info := parseRateLimitHeaders(resp.Header)
		logger.Warn("AbuseIPDB rate limit hit",
			"limit", info.Limit, "remaining", info.Remaining, "retry_after_s", info.RetryAfterSeconds)
		return nil, nil, &RateLimitError{Info: info}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("abuseipdb returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read abuseipdb response: %w", err)
	}

	var parsed checkResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, fmt.Errorf("decode abuseipdb response: %w", err)
	}

	return &parsed.Data, raw, nil
}

// Report submits an abuse report for ip. categories follows the AbuseIPDB
// category numbering (e.g. 18 brute force, 22 SSH).
func (c *Client) Report(ctx context.Context, ip string, categories []int, comment string) error {
	cats := make([]string, len(categories))
	for i, cat := range categories {
		cats[i] = fmt.Sprintf("%d", cat)
	}

	form := url.Values{}
	form.Set("ip", ip)
	form.Set("categories", strings.Join(cats, ","))
	form.Set("comment", comment)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v2/report", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build abuseipdb report: %w", err)
	}
	req.Header.Set("Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("abuseipdb report failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Info: parseRateLimitHeaders(resp.Header)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("abuseipdb report returned status %d", resp.StatusCode)
	}
	return nil
}

// resultFromRow converts a database cache row back into an API result.
func resultFromRow(row *recorder.AbuseIPCheck) CheckResult {
	return CheckResult{
		IPAddress:            row.IP,
		IsWhitelisted:        row.IsWhitelisted,
		AbuseConfidenceScore: row.AbuseConfidenceScore,
		CountryCode:          row.CountryCode,
		UsageType:            row.UsageType,
		ISP:                  row.ISP,
		Domain:               row.Domain,
		IsTor:                row.IsTor,
		TotalReports:         row.TotalReports,
		LastReportedAt:       row.LastReportedAt,
	}
}

// rowFromResult converts an API result into a database cache row.
func rowFromResult(result *CheckResult, raw []byte) recorder.AbuseIPCheck {
	return recorder.AbuseIPCheck{
		IP:                   result.IPAddress,
		AbuseConfidenceScore: result.AbuseConfidenceScore,
		CountryCode:          result.CountryCode,
		UsageType:            result.UsageType,
		ISP:                  result.ISP,
		Domain:               result.Domain,
		TotalReports:         result.TotalReports,
		IsTor:                result.IsTor,
		IsWhitelisted:        result.IsWhitelisted,
		LastReportedAt:       result.LastReportedAt,
		ResponseData:         raw,
		Timestamp:            time.Now(),
	}
}
