package maintenance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// requestFile is the name of the serialized request inside its spool
// directory.
const requestFile = "request.yaml"

// Request is a single maintenance activity waiting in the spool.
//
// A request wraps a shell command together with scheduling state. It is
// persisted as request.yaml inside its own spool subdirectory and moves
// through the State lifecycle as the manager schedules and executes it.
type Request struct {
	// ID uniquely identifies the request and names its spool directory.
	ID string `yaml:"id"`

	// Comment describes the request for operators.
	Comment string `yaml:"comment,omitempty"`

	// Command is the shell command executed when the request is due.
	Command string `yaml:"command"`

	// Estimate is the expected execution duration.
	Estimate Estimate `yaml:"estimate"`

	// State is the current lifecycle position.
	State State `yaml:"state"`

	// AddedAt is when the request entered the spool.
	AddedAt time.Time `yaml:"added_at"`

	// NextDue is when the request becomes runnable. Zero means the
	// request has not been scheduled yet.
	NextDue time.Time `yaml:"next_due,omitempty"`

	// LastScheduledAt is when the due date was last assigned.
	LastScheduledAt time.Time `yaml:"last_scheduled_at,omitempty"`

	// Attempts records every execution of the command, oldest first.
	Attempts []Attempt `yaml:"attempts,omitempty"`

	// dir is the spool subdirectory holding request.yaml. Set by the
	// manager on Add and by LoadRequest.
	dir string
}

// Attempt records the outcome of one command execution.
type Attempt struct {
	Started    time.Time     `yaml:"started"`
	Finished   time.Time     `yaml:"finished,omitempty"`
	Duration   time.Duration `yaml:"duration,omitempty"`
	ReturnCode int           `yaml:"returncode"`
	Stdout     string        `yaml:"stdout,omitempty"`
	Stderr     string        `yaml:"stderr,omitempty"`
}

// NewRequest creates a pending request for the given shell command.
func NewRequest(command string, estimate Estimate, comment string) *Request {
	return &Request{
		ID:       uuid.NewString(),
		Comment:  comment,
		Command:  command,
		Estimate: estimate,
		State:    StatePending,
		AddedAt:  time.Now().UTC(),
	}
}

// LoadRequest reads a request from its spool directory.
func LoadRequest(dir string) (*Request, error) {
	data, err := os.ReadFile(filepath.Join(dir, requestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}

	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request in %s: %w", dir, err)
	}
	if req.ID == "" {
		return nil, fmt.Errorf("request in %s has no id", dir)
	}

	req.dir = dir

	// Normalize persisted times so due comparisons are stable
	if !req.AddedAt.IsZero() {
		req.AddedAt = req.AddedAt.UTC()
	}
	if !req.NextDue.IsZero() {
		req.NextDue = req.NextDue.UTC()
	}
	if !req.LastScheduledAt.IsZero() {
		req.LastScheduledAt = req.LastScheduledAt.UTC()
	}

	return &req, nil
}

// Dir returns the spool directory holding this request.
func (r *Request) Dir() string {
	return r.dir
}

// Filename returns the full path of the serialized request.
func (r *Request) Filename() string {
	return filepath.Join(r.dir, requestFile)
}

// LastAttempt returns the most recent execution attempt, or nil if the
// request has never run.
func (r *Request) LastAttempt() *Attempt {
	if len(r.Attempts) == 0 {
		return nil
	}
	return &r.Attempts[len(r.Attempts)-1]
}

// Save writes the request atomically into its spool directory.
func (r *Request) Save() error {
	if r.dir == "" {
		return fmt.Errorf("request %s has no spool directory", r.ID)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create request directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to serialize request %s: %w", r.ID, err)
	}

	tmp, err := os.CreateTemp(r.dir, ".request-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write request %s: %w", r.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync request %s: %w", r.ID, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod request %s: %w", r.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close request %s: %w", r.ID, err)
	}

	if err := os.Rename(tmpName, r.Filename()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save request %s: %w", r.ID, err)
	}

	return nil
}

// UpdateDue sets the due date and re-evaluates time-dependent state.
// It returns true if the due date actually changed. A zero due time
// clears the schedule.
func (r *Request) UpdateDue(due time.Time) bool {
	old := r.NextDue
	if due.IsZero() {
		r.NextDue = time.Time{}
	} else {
		r.NextDue = due.UTC()
	}
	r.UpdateState(time.Now().UTC(), 0)
	return !r.NextDue.Equal(old)
}

// UpdateState evaluates time-dependent state transitions: scheduled
// requests whose due date has passed become due, and requests with more
// than maxAttempts recorded attempts are closed with the retrylimit
// outcome. A maxAttempts of zero disables the attempt cap. The
// resulting state is returned.
func (r *Request) UpdateState(now time.Time, maxAttempts int) State {
	switch r.State {
	case StatePending, StatePostpone, StateTempfail:
		if !r.NextDue.IsZero() && !now.Before(r.NextDue) {
			r.State = StateDue
		}
	}
	if maxAttempts > 0 && len(r.Attempts) > maxAttempts {
		r.State = StateRetryLimit
	}
	return r.State
}

// Run executes the request command once and records the attempt. The
// command runs under /bin/sh in the request's spool directory so it can
// leave scratch files next to request.yaml. The request state is set
// from the exit code; Run does not persist the request.
func (r *Request) Run(ctx context.Context) *Attempt {
	attempt := Attempt{Started: time.Now().UTC()}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", r.Command)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	attempt.Finished = time.Now().UTC()
	attempt.Duration = attempt.Finished.Sub(attempt.Started)
	attempt.Stdout = stdout.String()
	attempt.Stderr = stderr.String()

	if err == nil {
		attempt.ReturnCode = 0
	} else {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			attempt.ReturnCode = exitErr.ExitCode()
		} else {
			// Command never ran (bad directory, missing shell)
			attempt.ReturnCode = exitSoftware
			attempt.Stderr = err.Error()
		}
	}

	r.Attempts = append(r.Attempts, attempt)
	r.State = EvaluateExit(attempt.ReturnCode)

	return &r.Attempts[len(r.Attempts)-1]
}
