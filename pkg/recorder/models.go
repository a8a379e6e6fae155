package recorder

import (
	"time"
)

// AuthMethod identifies how a client tried to authenticate.
type AuthMethod string

const (
	AuthMethodPassword            AuthMethod = "password"
	AuthMethodPublicKey           AuthMethod = "publickey"
	AuthMethodKeyboardInteractive AuthMethod = "keyboard-interactive"
)

// Auth is one recorded authentication attempt. The Successful column is
// always true for accepted-by-policy attempts, even when reject_all_auth
// later refuses the connection: the row records what the honeypot told
// the client, not what actually happened.
type Auth struct {
	ID            string     `gorm:"primaryKey;size:36"`
	IP            string     `gorm:"index;size:45"`
	Username      string     `gorm:"index"`
	Password      string     // empty for public key attempts
	PublicKey     string     // authorized_keys format, empty for password attempts
	Method        AuthMethod `gorm:"size:24"`
	ClientVersion string
	Successful    bool
	Timestamp     time.Time `gorm:"index"`
}

// Command is one shell line executed in a session.
type Command struct {
	ID        uint   `gorm:"primaryKey"`
	AuthID    string `gorm:"index;size:36"`
	Command   string
	Timestamp time.Time
}

// Session is the lifetime summary of a finished session.
type Session struct {
	ID            uint   `gorm:"primaryKey"`
	AuthID        string `gorm:"index;size:36"`
	DurationMs    int64
	ClientVersion string
	Timestamp     time.Time
}

// Connect is a bare TCP connection, recorded before any authentication.
type Connect struct {
	ID        uint   `gorm:"primaryKey"`
	IP        string `gorm:"index;size:45"`
	Timestamp time.Time
}

// UploadedFile is a file captured through the SFTP subsystem, stored with
// the analysis results computed at close time.
type UploadedFile struct {
	ID             uint   `gorm:"primaryKey"`
	AuthID         string `gorm:"index;size:36"`
	Path           string
	SHA256         string `gorm:"size:64;index"`
	ClaimedMIME    string // from the file extension
	DetectedMIME   string // from magic bytes
	FormatMismatch bool
	Entropy        float64
	Size           int64
	Data           []byte `gorm:"type:blob"`
	Timestamp      time.Time
}

// AbuseIPCheck caches one AbuseIPDB lookup, upserted per IP.
type AbuseIPCheck struct {
	IP                   string `gorm:"primaryKey;size:45"`
	AbuseConfidenceScore int
	CountryCode          string `gorm:"size:2"`
	UsageType            string
	ISP                  string
	Domain               string
	TotalReports         int
	IsTor                bool
	IsWhitelisted        bool
	LastReportedAt       string
	ResponseData         []byte    `gorm:"type:blob"` // raw API response
	Timestamp            time.Time `gorm:"index"`
}

// IPApiCheck caches one ip-api.com geolocation lookup, upserted per IP.
type IPApiCheck struct {
	IP          string `gorm:"primaryKey;size:45"`
	Status      string
	Country     string
	CountryCode string `gorm:"size:2"`
	Region      string
	RegionName  string
	City        string
	Zip         string
	Lat         float64
	Lon         float64
	Timezone    string
	ISP          string
	Org          string
	AS           string
	ResponseData []byte    `gorm:"type:blob"` // raw API response
	Timestamp    time.Time `gorm:"index"`
}

// AllModels returns every model for AutoMigrate.
func AllModels() []any {
	return []any{
		&Auth{},
		&Command{},
		&Session{},
		&Connect{},
		&UploadedFile{},
		&AbuseIPCheck{},
		&IPApiCheck{},
	}
}
