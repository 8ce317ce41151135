package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest("echo hello", Estimate(5*time.Minute), "say hello")

	if req.ID == "" {
		t.Error("expected generated request ID")
	}
	if req.Command != "echo hello" {
		t.Errorf("Command = %q, want %q", req.Command, "echo hello")
	}
	if req.Comment != "say hello" {
		t.Errorf("Comment = %q, want %q", req.Comment, "say hello")
	}
	if req.Estimate.Duration() != 5*time.Minute {
		t.Errorf("Estimate = %v, want 5m", req.Estimate.Duration())
	}
	if req.State != StatePending {
		t.Errorf("State = %v, want %v", req.State, StatePending)
	}
	if req.AddedAt.IsZero() {
		t.Error("expected AddedAt to be set")
	}
	if !req.NextDue.IsZero() {
		t.Error("expected new request to be unscheduled")
	}
}

func TestRequest_SaveAndLoad(t *testing.T) {
	req := NewRequest("echo hello", Estimate(10*time.Minute), "round trip")
	req.dir = filepath.Join(t.TempDir(), req.ID)
	req.NextDue = time.Now().Add(time.Hour).UTC()
	req.LastScheduledAt = time.Now().UTC()
	req.Attempts = []Attempt{
		{
			Started:    time.Now().Add(-time.Minute).UTC(),
			Finished:   time.Now().UTC(),
			Duration:   time.Minute,
			ReturnCode: 75,
			Stdout:     "partial output\n",
			Stderr:     "device busy\n",
		},
	}
	req.State = StateTempfail

	if err := req.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := LoadRequest(req.dir)
	if err != nil {
		t.Fatalf("LoadRequest() failed: %v", err)
	}

	if loaded.ID != req.ID {
		t.Errorf("ID = %q, want %q", loaded.ID, req.ID)
	}
	if loaded.Command != req.Command {
		t.Errorf("Command = %q, want %q", loaded.Command, req.Command)
	}
	if loaded.Comment != req.Comment {
		t.Errorf("Comment = %q, want %q", loaded.Comment, req.Comment)
	}
	if loaded.Estimate != req.Estimate {
		t.Errorf("Estimate = %v, want %v", loaded.Estimate, req.Estimate)
	}
	if loaded.State != StateTempfail {
		t.Errorf("State = %v, want %v", loaded.State, StateTempfail)
	}
	if !loaded.AddedAt.Equal(req.AddedAt) {
		t.Errorf("AddedAt = %v, want %v", loaded.AddedAt, req.AddedAt)
	}
	if !loaded.NextDue.Equal(req.NextDue) {
		t.Errorf("NextDue = %v, want %v", loaded.NextDue, req.NextDue)
	}
	if loaded.Dir() != req.dir {
		t.Errorf("Dir() = %q, want %q", loaded.Dir(), req.dir)
	}

	if len(loaded.Attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(loaded.Attempts))
	}
	attempt := loaded.Attempts[0]
	if attempt.ReturnCode != 75 {
		t.Errorf("ReturnCode = %d, want 75", attempt.ReturnCode)
	}
	if attempt.Duration != time.Minute {
		t.Errorf("Duration = %v, want 1m", attempt.Duration)
	}
	if attempt.Stdout != "partial output\n" {
		t.Errorf("Stdout = %q", attempt.Stdout)
	}
	if attempt.Stderr != "device busy\n" {
		t.Errorf("Stderr = %q", attempt.Stderr)
	}
}

func TestRequest_SaveLeavesNoTempFiles(t *testing.T) {
	req := NewRequest("true", Estimate(time.Minute), "")
	req.dir = filepath.Join(t.TempDir(), req.ID)

	if err := req.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	entries, err := os.ReadDir(req.dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != requestFile {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("spool directory contains %v, want only %s", names, requestFile)
	}
}

func TestRequest_SaveWithoutDirectory(t *testing.T) {
	req := NewRequest("true", Estimate(time.Minute), "")
	if err := req.Save(); err == nil {
		t.Error("expected error saving request without spool directory")
	}
}

func TestLoadRequest_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadRequest(filepath.Join(t.TempDir(), "nope"))
		if err == nil {
			t.Error("expected error for missing request")
		}
	})

	t.Run("missing id", func(t *testing.T) {
		dir := t.TempDir()
		data := []byte("command: echo hello\nstate: pending\n")
		if err := os.WriteFile(filepath.Join(dir, requestFile), data, 0o644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
		_, err := LoadRequest(dir)
		if err == nil {
			t.Fatal("expected error for request without id")
		}
		if !strings.Contains(err.Error(), "no id") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("corrupt yaml", func(t *testing.T) {
		dir := t.TempDir()
		data := []byte("id: [unclosed\n")
		if err := os.WriteFile(filepath.Join(dir, requestFile), data, 0o644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
		if _, err := LoadRequest(dir); err == nil {
			t.Error("expected error for corrupt request file")
		}
	})
}

func TestRequest_UpdateDue(t *testing.T) {
	t.Run("assigning a due date", func(t *testing.T) {
		req := NewRequest("true", Estimate(time.Minute), "")
		due := time.Now().Add(time.Hour)

		if !req.UpdateDue(due) {
			t.Error("expected UpdateDue to report a change")
		}
		if !req.NextDue.Equal(due) {
			t.Errorf("NextDue = %v, want %v", req.NextDue, due)
		}
		if req.State != StatePending {
			t.Errorf("State = %v, want %v for future due date", req.State, StatePending)
		}
	})

	t.Run("past due date promotes to due", func(t *testing.T) {
		req := NewRequest("true", Estimate(time.Minute), "")
		if !req.UpdateDue(time.Now().Add(-time.Minute)) {
			t.Error("expected UpdateDue to report a change")
		}
		if req.State != StateDue {
			t.Errorf("State = %v, want %v", req.State, StateDue)
		}
	})

	t.Run("same due date reports no change", func(t *testing.T) {
		req := NewRequest("true", Estimate(time.Minute), "")
		due := time.Now().Add(time.Hour).UTC()
		req.NextDue = due
		if req.UpdateDue(due) {
			t.Error("expected no change for identical due date")
		}
	})

	t.Run("zero clears the schedule", func(t *testing.T) {
		req := NewRequest("true", Estimate(time.Minute), "")
		req.NextDue = time.Now().Add(time.Hour).UTC()
		if !req.UpdateDue(time.Time{}) {
			t.Error("expected UpdateDue to report a change")
		}
		if !req.NextDue.IsZero() {
			t.Errorf("NextDue = %v, want zero", req.NextDue)
		}
	})
}

func TestRequest_UpdateState(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		state    State
		due      time.Time
		attempts int
		max      int
		want     State
	}{
		{"unscheduled pending stays", StatePending, time.Time{}, 0, 48, StatePending},
		{"pending before due stays", StatePending, future, 0, 48, StatePending},
		{"pending past due promotes", StatePending, past, 0, 48, StateDue},
		{"postpone past due promotes", StatePostpone, past, 1, 48, StateDue},
		{"tempfail past due promotes", StateTempfail, past, 1, 48, StateDue},
		{"running is untouched", StateRunning, past, 1, 48, StateRunning},
		{"success is untouched", StateSuccess, past, 1, 48, StateSuccess},
		{"over attempt cap closes", StateTempfail, past, 3, 2, StateRetryLimit},
		{"at attempt cap still runs", StateTempfail, past, 2, 2, StateDue},
		{"zero cap disables limit", StateTempfail, past, 100, 0, StateDue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{
				State:    tt.state,
				NextDue:  tt.due,
				Attempts: make([]Attempt, tt.attempts),
			}
			if got := req.UpdateState(now, tt.max); got != tt.want {
				t.Errorf("UpdateState() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequest_Run(t *testing.T) {
	newRunnable := func(t *testing.T, command string) *Request {
		t.Helper()
		req := NewRequest(command, Estimate(time.Minute), "")
		req.dir = filepath.Join(t.TempDir(), req.ID)
		if err := os.MkdirAll(req.dir, 0o755); err != nil {
			t.Fatalf("MkdirAll() failed: %v", err)
		}
		return req
	}

	t.Run("successful command", func(t *testing.T) {
		req := newRunnable(t, "echo hello")
		attempt := req.Run(context.Background())

		if attempt.ReturnCode != 0 {
			t.Errorf("ReturnCode = %d, want 0", attempt.ReturnCode)
		}
		if attempt.Stdout != "hello\n" {
			t.Errorf("Stdout = %q, want %q", attempt.Stdout, "hello\n")
		}
		if req.State != StateSuccess {
			t.Errorf("State = %v, want %v", req.State, StateSuccess)
		}
		if len(req.Attempts) != 1 {
			t.Errorf("expected 1 recorded attempt, got %d", len(req.Attempts))
		}
		if attempt.Finished.Before(attempt.Started) {
			t.Error("Finished is before Started")
		}
	})

	t.Run("failing command", func(t *testing.T) {
		req := newRunnable(t, "echo oops >&2; exit 3")
		attempt := req.Run(context.Background())

		if attempt.ReturnCode != 3 {
			t.Errorf("ReturnCode = %d, want 3", attempt.ReturnCode)
		}
		if attempt.Stderr != "oops\n" {
			t.Errorf("Stderr = %q, want %q", attempt.Stderr, "oops\n")
		}
		if req.State != StateError {
			t.Errorf("State = %v, want %v", req.State, StateError)
		}
	})

	t.Run("postpone exit code", func(t *testing.T) {
		req := newRunnable(t, "exit 69")
		req.Run(context.Background())
		if req.State != StatePostpone {
			t.Errorf("State = %v, want %v", req.State, StatePostpone)
		}
	})

	t.Run("tempfail exit code", func(t *testing.T) {
		req := newRunnable(t, "exit 75")
		req.Run(context.Background())
		if req.State != StateTempfail {
			t.Errorf("State = %v, want %v", req.State, StateTempfail)
		}
	})

	t.Run("runs in the spool directory", func(t *testing.T) {
		req := newRunnable(t, "pwd")
		attempt := req.Run(context.Background())
		if strings.TrimSpace(attempt.Stdout) != req.dir {
			t.Errorf("Stdout = %q, want spool directory %q", attempt.Stdout, req.dir)
		}
	})

	t.Run("context timeout kills the command", func(t *testing.T) {
		req := newRunnable(t, "sleep 5")
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		attempt := req.Run(ctx)
		elapsed := time.Since(start)

		if elapsed > 2*time.Second {
			t.Errorf("Run() took %v, want prompt termination", elapsed)
		}
		if attempt.ReturnCode == 0 {
			t.Error("expected non-zero return code for killed command")
		}
		if req.State != StateError {
			t.Errorf("State = %v, want %v", req.State, StateError)
		}
	})

	t.Run("unrunnable command records software error", func(t *testing.T) {
		req := NewRequest("true", Estimate(time.Minute), "")
		req.dir = filepath.Join(t.TempDir(), "does-not-exist")

		attempt := req.Run(context.Background())
		if attempt.ReturnCode != exitSoftware {
			t.Errorf("ReturnCode = %d, want %d", attempt.ReturnCode, exitSoftware)
		}
		if attempt.Stderr == "" {
			t.Error("expected error description in Stderr")
		}
		if req.State != StateError {
			t.Errorf("State = %v, want %v", req.State, StateError)
		}
	})
}

func TestRequest_LastAttempt(t *testing.T) {
	req := NewRequest("true", Estimate(time.Minute), "")
	if req.LastAttempt() != nil {
		t.Error("expected nil LastAttempt for fresh request")
	}

	req.Attempts = []Attempt{{ReturnCode: 75}, {ReturnCode: 0}}
	last := req.LastAttempt()
	if last == nil {
		t.Fatal("expected LastAttempt after runs")
	}
	if last.ReturnCode != 0 {
		t.Errorf("ReturnCode = %d, want most recent attempt", last.ReturnCode)
	}
}
