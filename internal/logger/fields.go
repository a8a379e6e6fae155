package logger

// Standard field keys used across the honeypot so log output stays
// grep-able. Prefer these constants over ad-hoc strings.
const (
	KeySessionID = "session_id"
	KeyClientIP  = "client_ip"
	KeyUsername  = "username"
	KeyAuthID    = "auth_id"
	KeyError     = "error"
	KeyDuration  = "duration_ms"
	KeyPath      = "path"
	KeyCommand   = "command"
)
