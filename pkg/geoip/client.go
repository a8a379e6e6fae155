// Package geoip resolves attacker IPs to a coarse location using the free
// ip-api.com endpoint. The lookup flow mirrors pkg/reputation: process
// memory, recorder database, then the network. ip-api's free tier is plain
// HTTP only.
package geoip

import (
	"context"
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
	// DefaultBaseURL is the free ip-api.com endpoint.
	DefaultBaseURL = "http://ip-api.com"

	// requestTimeout bounds a single lookup round trip.
	requestTimeout = 10 * time.Second
)

// Location is the ip-api.com JSON response. Field names follow the API.
type Location struct {
	Status      string  `json:"status"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
	Query       string  `json:"query"`
}

// Client performs cached geolocation lookups.
type Client struct {
	baseURL  string
	http     *http.Client
	memory   *gocache.Cache
	recorder *recorder.Recorder
	cacheTTL time.Duration
}

// NewClient creates a geolocation client. baseURL may be empty to use the
// production endpoint; tests point it at a local server. cacheTTL governs
// both cache tiers; zero or negative falls back to the default.
func NewClient(rec *recorder.Recorder, baseURL string, cacheTTL time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cacheTTL <= 0 {
		cacheTTL = recorder.DefaultCacheTTL
	}

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: requestTimeout},
		memory:   gocache.New(cacheTTL, time.Hour),
		recorder: rec,
		cacheTTL: cacheTTL,
	}
}

// Lookup resolves the location of ip through the cache tiers. Failed
// lookups (including status != "success") are never cached.
func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	if cached, ok := c.memory.Get(ip); ok {
		loc := cached.(Location)
		return &loc, nil
	}

	if c.recorder != nil {
		row, err := c.recorder.GetIPApiCheck(ctx, ip, c.cacheTTL)
		if err != nil {
			logger.Warn("Geolocation cache lookup failed, falling through to API", "error", err, "ip", ip)
		} else if row != nil {
			loc := locationFromRow(row)
			c.memory.Set(ip, loc, gocache.DefaultExpiration)
			return &loc, nil
		}
	}

	loc, raw, err := c.fetch(ctx, ip)
	if err != nil {
		return nil, err
	}
	if loc.Status != "success" {
		return nil, fmt.Errorf("ip-api lookup for %s returned status %q", ip, loc.Status)
	}

	c.memory.Set(ip, *loc, gocache.DefaultExpiration)
	if c.recorder != nil {
		if err := c.recorder.RecordIPApiCheck(ctx, rowFromLocation(loc, raw)); err != nil {
			logger.Warn("Failed to persist geolocation check", "error", err, "ip", ip)
		}
	}

	return loc, nil
}

// fetch performs the live lookup, returning the parsed location and the
// raw response body for persistence.
func (c *Client) fetch(ctx context.Context, ip string) (*Location, []byte, error) {
	endpoint := c.baseURL + "/json/" + url.PathEscape(ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build ip-api request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("ip-api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("ip-api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read ip-api response: %w", err)
	}

	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, nil, fmt.Errorf("decode ip-api response: %w", err)
	}
	return &loc, raw, nil
}

func locationFromRow(row *recorder.IPApiCheck) Location {
	return Location{
		Status:      row.Status,
		Country:     row.Country,
		CountryCode: row.CountryCode,
		Region:      row.Region,
		RegionName:  row.RegionName,
		City:        row.City,
		Zip:         row.Zip,
		Lat:         row.Lat,
		Lon:         row.Lon,
		Timezone:    row.Timezone,
		ISP:         row.ISP,
		Org:         row.Org,
		AS:          row.AS,
		Query:       row.IP,
	}
}

func rowFromLocation(loc *Location, raw []byte) recorder.IPApiCheck {
	return recorder.IPApiCheck{
		IP:           loc.Query,
		Status:       loc.Status,
		Country:      loc.Country,
		CountryCode:  loc.CountryCode,
		Region:       loc.Region,
		RegionName:   loc.RegionName,
		City:         loc.City,
		Zip:          loc.Zip,
		Lat:          loc.Lat,
		Lon:          loc.Lon,
		Timezone:     loc.Timezone,
		ISP:          loc.ISP,
		Org:          loc.Org,
		AS:           loc.AS,
		ResponseData: raw,
		Timestamp:    time.Now(),
	}
}
