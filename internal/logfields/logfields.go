package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyUnit       = "unit"
	KeyType       = "type"
	KeyPriority   = "priority"
	KeyEntries    = "entries"
	KeyPath       = "path"
	KeyFrom       = "from"
	KeyTo         = "to"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCategory   = "category"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Unit(label string) slog.Attr     { return slog.String(KeyUnit, label) }
func Type(t string) slog.Attr         { return slog.String(KeyType, t) }
func Priority(p int) slog.Attr        { return slog.Int(KeyPriority, p) }
func Entries(n int) slog.Attr         { return slog.Int(KeyEntries, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func From(p string) slog.Attr         { return slog.String(KeyFrom, p) }
func To(p string) slog.Attr           { return slog.String(KeyTo, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
