package logger

import "strings"

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var allowedStatus = map[string]struct{}{
	"ok": {}, "fail": {}, "skip": {}, "retry": {}, "rate_limited": {}, "cancelled": {},
	"not_found": {}, "unavailable": {}, "invalid": {}, "duplicate": {},
}

var allowedOutcome = map[string]struct{}{
	"ok": {}, "fail": {}, "cancelled": {}, "rate_limited": {},
}

var allowedCache = map[string]struct{}{
	"hit": {}, "miss": {}, "refresh": {},
}

func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case "", "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return strings.ToUpper(level)
}

func normalizeEnum(set map[string]struct{}, v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", false
	}
	_, ok := set[v]
	return v, ok
}

func normalizeStatus(s string) (string, bool)  { return normalizeEnum(allowedStatus, s) }
func normalizeOutcome(s string) (string, bool) { return normalizeEnum(allowedOutcome, s) }
func normalizeCache(s string) (string, bool)   { return normalizeEnum(allowedCache, s) }

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"trace_id",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"action",
	"state",
	"next_state",
	"city",
	"favorite_id",
	"category",
	"http_code",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"count",
	"cb_key",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"driver",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
}
