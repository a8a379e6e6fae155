// Package report generates attacker activity reports from recorded data.
//
// Reports aggregate authentication attempts with cached enrichment data
// (AbuseIPDB reputation, ip-api.com geolocation) and render them as plain
// text, Markdown or a standalone HTML page.
package report

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Format selects the report output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat converts a user-supplied format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported report format %q (want text, markdown or html)", s)
}

const (
	timestampLayout = "2006-01-02 15:04:05 UTC"
	topN            = 10
	recentN         = 20
)

// Generator renders reports from a recorder store.
type Generator struct {
	store *recorder.Store
	text  *texttemplate.Template
	html  *htmltemplate.Template
}

// NewGenerator parses the report templates and returns a ready Generator.
func NewGenerator(store *recorder.Store) (*Generator, error) {
	funcs := map[string]any{
		"inc": func(i int) int { return i + 1 },
	}
	text, err := texttemplate.New("").Funcs(funcs).
		ParseFS(templateFS, "templates/*.text.tmpl", "templates/*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report templates: %w", err)
	}
	html, err := htmltemplate.New("").Funcs(funcs).
		ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report templates: %w", err)
	}
	return &Generator{store: store, text: text, html: html}, nil
}

// IPReport renders a report covering every authentication attempt recorded
// from one IP address, including cached enrichment data when present.
func (g *Generator) IPReport(ctx context.Context, ip string, format Format) (string, error) {
	auths, err := g.store.ListAuthsByIP(ctx, ip)
	if err != nil {
		return "", fmt.Errorf("failed to load authentication attempts: %w", err)
	}
	if len(auths) == 0 {
		return fmt.Sprintf("No data found for IP address: %s\n", ip), nil
	}

	abuse, err := g.store.FindAbuseIPCheck(ctx, ip)
	if err != nil {
		return "", fmt.Errorf("failed to load reputation data: %w", err)
	}
	geo, err := g.store.FindIPApiCheck(ctx, ip)
	if err != nil {
		return "", fmt.Errorf("failed to load geolocation data: %w", err)
	}

	return g.render("ip", format, buildIPReport(ip, auths, abuse, geo))
}

// PasswordReport renders a report covering every attempt that tried one
// specific password, across all attacking IPs.
func (g *Generator) PasswordReport(ctx context.Context, password string, format Format) (string, error) {
	auths, err := g.store.ListAuthsByPassword(ctx, password)
	if err != nil {
		return "", fmt.Errorf("failed to load authentication attempts: %w", err)
	}
	if len(auths) == 0 {
		return fmt.Sprintf("No data found for password: %s\n", password), nil
	}

	return g.render("password", format, buildPasswordReport(password, auths))
}

func (g *Generator) render(kind string, format Format, data any) (string, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatHTML:
		err = g.html.ExecuteTemplate(&buf, kind+".html.tmpl", data)
	case FormatMarkdown:
		err = g.text.ExecuteTemplate(&buf, kind+".md.tmpl", data)
	default:
		err = g.text.ExecuteTemplate(&buf, kind+".text.tmpl", data)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// Counted is one value with its occurrence count, for top-N tables.
type Counted struct {
	Name  string
	Count int
}

type attemptRow struct {
	Time       string
	Username   string
	Credential string
}

type ipReportData struct {
	IP          string
	GeneratedAt string

	HasGeo      bool
	Country     string
	CountryCode string
	Region      string
	City        string
	Coordinates string
	Timezone    string
	ISP         string
	Org         string
	AS          string

	HasAbuse       bool
	AbuseScore     int
	AbuseCheckedAt string
	IsTor          bool
	TotalReports   int

	TotalAttempts   int
	UniqueUsernames int
	UniquePasswords int
	FirstSeen       string
	LastSeen        string

	TopUsernames []Counted
	TopPasswords []Counted
	Recent       []attemptRow
}

type passwordReportData struct {
	Password    string
	GeneratedAt string

	TotalAttempts   int
	UniqueIPs       int
	UniqueUsernames int
	FirstSeen       string
	LastSeen        string

	TopUsernames []Counted
	TopIPs       []Counted
	AllUsernames []Counted
	AllIPs       []Counted
}

// buildIPReport aggregates auths (newest first) into the view model.
func buildIPReport(ip string, auths []recorder.Auth, abuse *recorder.AbuseIPCheck, geo *recorder.IPApiCheck) *ipReportData {
	usernames := countBy(auths, func(a recorder.Auth) (string, bool) {
		return a.Username, true
	})
	passwords := countBy(auths, func(a recorder.Auth) (string, bool) {
		return a.Password, a.Method == recorder.AuthMethodPassword
	})

	recent := make([]attemptRow, 0, recentN)
	for _, a := range auths[:min(len(auths), recentN)] {
		credential := a.Password
		if a.Method != recorder.AuthMethodPassword {
			credential = "<no password>"
		}
		recent = append(recent, attemptRow{
			Time:       a.Timestamp.UTC().Format(timestampLayout),
			Username:   a.Username,
			Credential: credential,
		})
	}

	data := &ipReportData{
		IP:          ip,
		GeneratedAt: time.Now().UTC().Format(timestampLayout),

		TotalAttempts:   len(auths),
		UniqueUsernames: len(usernames),
		UniquePasswords: len(passwords),
		FirstSeen:       auths[len(auths)-1].Timestamp.UTC().Format(timestampLayout),
		LastSeen:        auths[0].Timestamp.UTC().Format(timestampLayout),

		TopUsernames: top(usernames, topN),
		TopPasswords: top(passwords, topN),
		Recent:       recent,
	}

	if geo != nil {
		data.HasGeo = true
		data.Country = geo.Country
		data.CountryCode = geo.CountryCode
		data.Region = geo.RegionName
		data.City = geo.City
		data.Coordinates = fmt.Sprintf("%.4f, %.4f", geo.Lat, geo.Lon)
		data.Timezone = geo.Timezone
		data.ISP = geo.ISP
		data.Org = geo.Org
		data.AS = geo.AS
	}

	if abuse != nil {
		data.HasAbuse = true
		data.AbuseScore = abuse.AbuseConfidenceScore
		data.AbuseCheckedAt = abuse.Timestamp.UTC().Format(timestampLayout)
		data.IsTor = abuse.IsTor
		data.TotalReports = abuse.TotalReports
	}

	return data
}

func buildPasswordReport(password string, auths []recorder.Auth) *passwordReportData {
	usernames := countBy(auths, func(a recorder.Auth) (string, bool) {
		return a.Username, true
	})
	ips := countBy(auths, func(a recorder.Auth) (string, bool) {
		return a.IP, true
	})

	return &passwordReportData{
		Password:    password,
		GeneratedAt: time.Now().UTC().Format(timestampLayout),

		TotalAttempts:   len(auths),
		UniqueIPs:       len(ips),
		UniqueUsernames: len(usernames),
		FirstSeen:       auths[len(auths)-1].Timestamp.UTC().Format(timestampLayout),
		LastSeen:        auths[0].Timestamp.UTC().Format(timestampLayout),

		TopUsernames: top(usernames, topN),
		TopIPs:       top(ips, topN),
		AllUsernames: usernames,
		AllIPs:       ips,
	}
}

// countBy tallies auths by key, sorted by count descending then name.
func countBy(auths []recorder.Auth, key func(recorder.Auth) (string, bool)) []Counted {
	counts := make(map[string]int)
	for _, a := range auths {
		if k, ok := key(a); ok {
			counts[k]++
		}
	}
	out := make([]Counted, 0, len(counts))
	for name, count := range counts {
		out = append(out, Counted{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func top(items []Counted, n int) []Counted {
	if len(items) > n {
		return items[:n]
	}
	return items
}
