package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyKind       = "kind"
	KeyCategory   = "category"
	KeyStatus     = "status"
	KeyRetryAfter = "retry_after_s"
	KeyErrorID    = "error_id"
	KeyRequestID  = "request_id"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyAttempt    = "attempt"
	KeyDelayMS    = "delay_ms"
	KeyFailure    = "failure"
	KeyCause      = "cause"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Kind(k string) slog.Attr           { return slog.String(KeyKind, k) }
func Category(c string) slog.Attr       { return slog.String(KeyCategory, c) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func RetryAfter(secs float64) slog.Attr { return slog.Float64(KeyRetryAfter, secs) }
func ErrorID(id string) slog.Attr       { return slog.String(KeyErrorID, id) }
func RequestID(id string) slog.Attr     { return slog.String(KeyRequestID, id) }
func Method(m string) slog.Attr         { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Attempt(n int) slog.Attr           { return slog.Int(KeyAttempt, n) }
func DelayMS(ms float64) slog.Attr      { return slog.Float64(KeyDelayMS, ms) }

// Failure logs err through its slog.LogValuer when it has one.
func Failure(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyFailure, "")
	}
	if v, ok := err.(slog.LogValuer); ok {
		return slog.Any(KeyFailure, v)
	}
	return slog.String(KeyFailure, err.Error())
}

func Cause(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyCause, "")
	}
	return slog.String(KeyCause, err.Error())
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
