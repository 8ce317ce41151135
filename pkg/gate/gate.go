package gate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ArtifactExt is the extension appended to artifact base names. An
// artifact named "webgateway" counts as present once "webgateway.pem"
// exists in the gated directory.
const ArtifactExt = ".pem"

// DefaultInterval is the pause between existence checks.
const DefaultInterval = time.Second

// State reflects where a gate is in its lifecycle.
type State int

const (
	// StateWaiting means at least one artifact is still missing.
	StateWaiting State = iota

	// StateSatisfied means every artifact was present at the last check.
	StateSatisfied
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateSatisfied:
		return "satisfied"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config configures a Gate.
type Config struct {
	// Dir is the directory the artifacts appear in.
	Dir string

	// Artifacts lists the expected artifact base names. Names must not
	// be empty or contain path separators. Duplicates are collapsed.
	Artifacts []string

	// Interval is the pause between checks.
	// Default: DefaultInterval
	Interval time.Duration

	// Timeout bounds the total wait. Zero means wait indefinitely.
	Timeout time.Duration

	// Watch wakes the poll early when something changes in Dir. Polling
	// stays the source of truth; a lost event only delays the next
	// check by one interval.
	Watch bool
}

// Gate blocks until every expected artifact exists in a directory.
type Gate struct {
	dir       string
	artifacts []string
	interval  time.Duration
	timeout   time.Duration
	watch     bool
	logger    *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates a gate for the given directory and artifact names.
//
// A nil logger falls back to slog.Default().
func New(cfg *Config, logger *slog.Logger) (*Gate, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir cannot be empty")
	}
	if len(cfg.Artifacts) == 0 {
		return nil, fmt.Errorf("at least one artifact is required")
	}

	seen := make(map[string]bool, len(cfg.Artifacts))
	artifacts := make([]string, 0, len(cfg.Artifacts))
	for _, name := range cfg.Artifacts {
		if name == "" {
			return nil, fmt.Errorf("artifact name cannot be empty")
		}
		if strings.ContainsAny(name, `/\`) {
			return nil, fmt.Errorf("artifact name %q cannot contain path separators", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		artifacts = append(artifacts, name)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Gate{
		dir:       cfg.Dir,
		artifacts: artifacts,
		interval:  interval,
		timeout:   cfg.Timeout,
		watch:     cfg.Watch,
		logger:    logger,
		state:     StateWaiting,
	}, nil
}

// Dir returns the gated directory.
func (g *Gate) Dir() string {
	return g.dir
}

// Artifacts returns the expected artifact base names.
func (g *Gate) Artifacts() []string {
	out := make([]string, len(g.artifacts))
	copy(out, g.artifacts)
	return out
}

// State returns the gate's current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Missing returns the artifact base names not currently present.
func (g *Gate) Missing() []string {
	return g.missing()
}

// Wait blocks until every artifact exists, the context is cancelled, or
// the configured timeout elapses.
//
// When all artifacts are already present Wait returns immediately
// without sleeping. On timeout Wait returns a *PreconditionTimeoutError
// naming the artifacts still missing. On cancellation Wait returns the
// context's error.
func (g *Gate) Wait(ctx context.Context) error {
	start := time.Now()

	missing := g.missing()
	if len(missing) == 0 {
		g.setState(StateSatisfied)
		return nil
	}

	g.logger.Info("waiting for certificate artifacts",
		slog.String("dir", g.dir),
		slog.Any("missing", missing),
	)

	// A nil channel blocks forever, which is the indefinite default.
	var timeoutCh <-chan time.Time
	if g.timeout > 0 {
		deadline := time.NewTimer(g.timeout)
		defer deadline.Stop()
		timeoutCh = deadline.C
	}

	var wake <-chan struct{}
	if g.watch {
		w, err := newDirWatcher(g.dir, g.logger)
		if err != nil {
			g.logger.Warn("directory watch unavailable, polling only",
				slog.String("dir", g.dir),
				slog.String("error", err.Error()),
			)
		} else {
			defer w.Close()
			wake = w.Events()
		}
	}

	for {
		timer := time.NewTimer(g.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timeoutCh:
			timer.Stop()
			missing = g.missing()
			waited := time.Since(start)
			g.logger.Warn("gave up waiting for certificate artifacts",
				slog.String("dir", g.dir),
				slog.Any("missing", missing),
				slog.Duration("waited", waited),
			)
			return &PreconditionTimeoutError{
				Dir:     g.dir,
				Missing: missing,
				Waited:  waited,
			}
		case <-wake:
			timer.Stop()
		case <-timer.C:
		}

		missing = g.missing()
		if len(missing) == 0 {
			g.setState(StateSatisfied)
			g.logger.Info("certificate artifacts present",
				slog.String("dir", g.dir),
				slog.Int("artifacts", len(g.artifacts)),
				slog.Duration("waited", time.Since(start)),
			)
			return nil
		}

		g.logger.Debug("certificate artifacts still missing",
			slog.String("dir", g.dir),
			slog.Any("missing", missing),
		)
	}
}

func (g *Gate) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *Gate) missing() []string {
	var missing []string
	for _, name := range g.artifacts {
		if _, err := os.Stat(filepath.Join(g.dir, name+ArtifactExt)); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}
