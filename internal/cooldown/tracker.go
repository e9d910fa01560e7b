package cooldown

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const stateFileName = "pepsi_options_email_cooldown.json"

type record struct {
	LastEmailSent time.Time `json:"last_email_sent"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Tracker answers whether the cooldown window since the last sent email has
// passed, persisting that state in a single JSON file so it survives
// restarts. A missing, unreadable, or corrupt file counts as never sent: the
// gate may only ever delay emails, not lose them to bad state.
type Tracker struct {
	dir    string
	window time.Duration

	mu sync.Mutex
}

func NewTracker(dir string, window time.Duration) *Tracker {
	return &Tracker{dir: dir, window: window}
}

// CanSend reports whether an email may go out at now. The second return is
// the operator-facing reason when blocked, empty otherwise.
func (t *Tracker) CanSend(now time.Time) (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.readLastSent()
	if !ok {
		return true, ""
	}

	elapsed := now.Sub(last)
	if elapsed < t.window {
		remaining := t.window - elapsed
		return false, fmt.Sprintf("Cooldown period active. %.1f minutes remaining.", remaining.Minutes())
	}
	return true, ""
}

// RecordSent durably stores now as the last send time. The record lands via
// temp file + rename so a reader never observes a torn file.
func (t *Tracker) RecordSent(now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	rec := record{
		LastEmailSent: now.UTC(),
		UpdatedAt:     now.UTC(),
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cooldown state: %w", err)
	}

	tmp, err := os.CreateTemp(t.dir, stateFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, t.path()); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (t *Tracker) path() string {
	return filepath.Join(t.dir, stateFileName)
}

// readLastSent returns the recorded send time; ok is false when the state
// file is absent, corrupt, or holds no timestamp. Callers hold t.mu.
func (t *Tracker) readLastSent() (time.Time, bool) {
	raw, err := os.ReadFile(t.path())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("cooldown state unreadable, treating as never sent",
				"path", t.path(), "error", err)
		}
		return time.Time{}, false
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Warn("cooldown state corrupt, treating as never sent",
			"path", t.path(), "error", err)
		return time.Time{}, false
	}
	if rec.LastEmailSent.IsZero() {
		return time.Time{}, false
	}
	return rec.LastEmailSent, true
}
