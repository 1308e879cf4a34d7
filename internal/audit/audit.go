// Package audit records structured authentication and administration
// outcomes in an append-only JSON log with retention pruning. Emitting is
// best-effort: a sink failure never blocks or alters the operation that
// produced the event.
package audit

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"otpgate/internal/fsutil"
)

// Actions recorded in the audit log.
const (
	ActionLogin      = "login"
	ActionVerifyTOTP = "verify-totp"
	ActionGetUsers   = "get-user"
	ActionCreateUser = "create-user"
	ActionUpdateUser = "update-user"
	ActionDeleteUser = "delete-user"
	ActionResetUser  = "reset-user"
)

// Event statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// RetentionDays is how long audit entries are kept before pruning.
const RetentionDays = 30

const logFilePermissions = 0o600

// Event is one audit log entry.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Email     string         `json:"email"`
	Status    string         `json:"status"`
	Reason    string         `json:"reason"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Sink receives audit events. Implementations must not block the caller
// on failure.
type Sink interface {
	Emit(e Event)
}

// NoOpSink discards every event. Useful in tests.
type NoOpSink struct{}

// Emit implements Sink.
func (NoOpSink) Emit(Event) {}

// FileLog is a Sink backed by a single JSON array document. Entries older
// than the retention window are dropped on every append and every read.
type FileLog struct {
	path      string
	retention time.Duration

	mu sync.Mutex
}

// NewFileLog creates a file-backed audit log under dataDir/logs/logs.json.
func NewFileLog(dataDir string) *FileLog {
	return &FileLog{
		path:      filepath.Join(dataDir, "logs", "logs.json"),
		retention: RetentionDays * 24 * time.Hour,
	}
}

// Emit appends the event, pruning expired entries first. Failures are
// logged and swallowed.
func (l *FileLog) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	events := l.prune(l.read())
	events = append(events, e)

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		slog.Warn("audit log marshal failed", "action", e.Action, "error", err)
		return
	}

	if err := fsutil.EnsureDir(filepath.Dir(l.path)); err != nil {
		slog.Warn("audit log directory failed", "error", err)
		return
	}
	if err := fsutil.AtomicWriteFile(l.path, data, logFilePermissions); err != nil {
		slog.Warn("audit log write failed", "action", e.Action, "error", err)
	}
}

// Events returns the retained entries, oldest first. Expired entries are
// dropped from the result; the file itself is rewritten on next append.
func (l *FileLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.prune(l.read())
}

// read loads the log array from disk. A missing or unreadable file yields
// an empty log — the audit trail is non-critical by contract.
func (l *FileLog) read() []Event {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		slog.Warn("audit log unparseable, starting fresh", "path", l.path, "error", err)
		return nil
	}
	return events
}

// prune drops entries older than the retention window.
func (l *FileLog) prune(events []Event) []Event {
	cutoff := time.Now().UTC().Add(-l.retention)

	kept := events[:0]
	for _, e := range events {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}
