package cooldown

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTracker_NeverSentAllows(t *testing.T) {
	t.Parallel()

	tr := NewTracker(t.TempDir(), time.Hour)

	ok, reason := tr.CanSend(time.Now().UTC())
	if !ok {
		t.Fatalf("expected CanSend true with no state file, got false (%q)", reason)
	}
	if reason != "" {
		t.Fatalf("expected empty reason, got %q", reason)
	}
}

func TestTracker_BlocksInsideWindow(t *testing.T) {
	t.Parallel()

	tr := NewTracker(t.TempDir(), time.Hour)
	sentAt := time.Date(2024, time.January, 11, 17, 30, 0, 0, time.UTC)

	if err := tr.RecordSent(sentAt); err != nil {
		t.Fatalf("RecordSent() error: %v", err)
	}

	ok, reason := tr.CanSend(sentAt.Add(30 * time.Minute))
	if ok {
		t.Fatalf("expected CanSend false 30m after a send")
	}
	if !strings.Contains(reason, "Cooldown period active") {
		t.Fatalf("expected cooldown reason, got %q", reason)
	}
	if !strings.Contains(reason, "30.0 minutes remaining") {
		t.Fatalf("expected remaining minutes in reason, got %q", reason)
	}

	// One second short of the window is still blocked.
	if ok, _ := tr.CanSend(sentAt.Add(time.Hour - time.Second)); ok {
		t.Fatalf("expected CanSend false just inside the window")
	}
}

func TestTracker_AllowsAtAndAfterWindow(t *testing.T) {
	t.Parallel()

	tr := NewTracker(t.TempDir(), time.Hour)
	sentAt := time.Date(2024, time.January, 11, 17, 30, 0, 0, time.UTC)

	if err := tr.RecordSent(sentAt); err != nil {
		t.Fatalf("RecordSent() error: %v", err)
	}

	if ok, reason := tr.CanSend(sentAt.Add(time.Hour)); !ok {
		t.Fatalf("expected CanSend true exactly at the window edge, got false (%q)", reason)
	}
	if ok, _ := tr.CanSend(sentAt.Add(2 * time.Hour)); !ok {
		t.Fatalf("expected CanSend true after the window")
	}
}

func TestTracker_StateSurvivesRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sentAt := time.Now().UTC()

	first := NewTracker(dir, time.Hour)
	if err := first.RecordSent(sentAt); err != nil {
		t.Fatalf("RecordSent() error: %v", err)
	}

	// A fresh Tracker over the same directory models a process restart.
	second := NewTracker(dir, time.Hour)
	if ok, _ := second.CanSend(sentAt.Add(10 * time.Minute)); ok {
		t.Fatalf("expected cooldown to survive a restart")
	}
}

func TestTracker_CorruptStateMeansNeverSent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
	}{
		{"not json", "definitely {not} json"},
		{"empty object", "{}"},
		{"wrong types", `{"last_email_sent": 12345}`},
		{"empty file", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, stateFileName)
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("seed state file: %v", err)
			}

			tr := NewTracker(dir, time.Hour)
			ok, reason := tr.CanSend(time.Now().UTC())
			if !ok {
				t.Fatalf("expected CanSend true for %s state, got false (%q)", tc.name, reason)
			}
		})
	}
}

func TestTracker_RecordSentFileFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tr := NewTracker(dir, time.Hour)
	sentAt := time.Date(2024, time.January, 11, 17, 30, 0, 0, time.UTC)

	if err := tr.RecordSent(sentAt); err != nil {
		t.Fatalf("RecordSent() error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}

	var got struct {
		LastEmailSent time.Time `json:"last_email_sent"`
		UpdatedAt     time.Time `json:"updated_at"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("state file is not valid json: %v body=%q", err, raw)
	}
	if !got.LastEmailSent.Equal(sentAt) {
		t.Fatalf("expected last_email_sent %v, got %v", sentAt, got.LastEmailSent)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("expected updated_at to be set")
	}

	// The rename must not leave temp files behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read state dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != stateFileName {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only %q in state dir, got %v", stateFileName, names)
	}
}

func TestTracker_RecordSentCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "state")
	tr := NewTracker(dir, time.Hour)

	if err := tr.RecordSent(time.Now().UTC()); err != nil {
		t.Fatalf("RecordSent() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, stateFileName)); err != nil {
		t.Fatalf("expected state file in created directory: %v", err)
	}
}

func TestTracker_RecordSentOverwritesPrevious(t *testing.T) {
	t.Parallel()

	tr := NewTracker(t.TempDir(), time.Hour)
	first := time.Date(2024, time.January, 11, 10, 0, 0, 0, time.UTC)
	second := first.Add(3 * time.Hour)

	if err := tr.RecordSent(first); err != nil {
		t.Fatalf("first RecordSent() error: %v", err)
	}
	if err := tr.RecordSent(second); err != nil {
		t.Fatalf("second RecordSent() error: %v", err)
	}

	// 30 minutes after the second send is inside its window even though the
	// first send is long past.
	if ok, _ := tr.CanSend(second.Add(30 * time.Minute)); ok {
		t.Fatalf("expected cooldown measured from the most recent send")
	}
}

func TestTracker_ConcurrentUse(t *testing.T) {
	t.Parallel()

	tr := NewTracker(t.TempDir(), time.Hour)
	sentAt := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tr.RecordSent(sentAt)
			_, _ = tr.CanSend(sentAt.Add(time.Minute))
		}()
	}
	wg.Wait()

	if ok, _ := tr.CanSend(sentAt.Add(time.Minute)); ok {
		t.Fatalf("expected CanSend false after concurrent records")
	}
}
