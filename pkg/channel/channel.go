// Package channel keeps a local clone of the git repository that hosts
// the upstream module tree and reports when module definitions change.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"caldera-hq/basalt/pkg/config"
	"caldera-hq/basalt/pkg/telemetry/logging"
)

// Channel manages the local clone of the configured module repository.
// All operations are safe for concurrent use.
type Channel struct {
	config *config.ChannelConfig
	auth   AuthProvider
	logger *slog.Logger

	mu    sync.RWMutex
	repo  *gogit.Repository
	stats Stats
}

// New validates the configuration and prepares a channel client. The
// repository is not touched until Sync or Open runs.
func New(cfg *config.ChannelConfig, logger *slog.Logger) (*Channel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("channel config cannot be nil")
	}
	if cfg.Repository == "" {
		return nil, fmt.Errorf("channel repository cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, fmt.Errorf("channel branch cannot be empty")
	}
	if cfg.LocalDir == "" {
		return nil, fmt.Errorf("channel local directory cannot be empty")
	}

	auth, err := NewAuthProvider(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("invalid channel auth: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Channel{
		config: cfg,
		auth:   auth,
		logger: logger,
	}, nil
}

// Open attaches to an existing local clone without touching the remote.
// Returns an error if the clone does not exist yet.
func (c *Channel) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.repo != nil {
		return nil
	}

	gitDir := filepath.Join(c.config.LocalDir, ".git")
	if _, err := os.Stat(gitDir); err != nil {
		return fmt.Errorf("channel not cloned at %s: %w", c.config.LocalDir, err)
	}

	repo, err := gogit.PlainOpen(c.config.LocalDir)
	if err != nil {
		return fmt.Errorf("failed to open channel clone: %w", err)
	}

	c.repo = repo
	return nil
}

// Sync brings the local clone up to date with the remote. On the first
// run it clones the configured branch; afterwards it pulls from origin.
// A sync that finds the clone already current reports HadChanges false.
func (c *Channel) Sync(ctx context.Context) (*SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()

	cloned, err := c.ensureLocked(ctx)
	if err != nil {
		c.stats.Failures++
		return nil, err
	}

	result := &SyncResult{Cloned: cloned}

	if cloned {
		head, err := c.headLocked()
		if err != nil {
			c.stats.Failures++
			return nil, err
		}
		result.ToSHA = head.SHA
		result.HadChanges = true
	} else if err := c.pullLocked(ctx, result); err != nil {
		c.stats.Failures++
		return nil, err
	}

	result.Duration = time.Since(start)

	c.stats.Syncs++
	c.stats.LastSyncTime = time.Now()
	c.stats.LastSyncDur = result.Duration
	c.stats.LastCommitSHA = result.ToSHA

	return result, nil
}

// ensureLocked opens the existing clone or creates it. Returns true
// when a fresh clone was made. Callers must hold c.mu.
func (c *Channel) ensureLocked(ctx context.Context) (bool, error) {
	if c.repo != nil {
		return false, nil
	}

	gitDir := filepath.Join(c.config.LocalDir, ".git")
	if _, err := os.Stat(gitDir); err == nil {
		repo, err := gogit.PlainOpen(c.config.LocalDir)
		if err != nil {
			return false, fmt.Errorf("failed to open channel clone: %w", err)
		}
		c.repo = repo
		return false, nil
	}

	if err := os.MkdirAll(c.config.LocalDir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create channel directory: %w", err)
	}

	method, err := c.auth.Method()
	if err != nil {
		return false, fmt.Errorf("failed to get auth: %w", err)
	}

	opts := &gogit.CloneOptions{
		URL:           c.config.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(c.config.Branch),
		SingleBranch:  c.config.Clone.SingleBranch,
		Depth:         c.config.Clone.Depth,
		Auth:          method,
	}

	cloneCtx := ctx
	if c.config.Clone.Timeout > 0 {
		var cancel context.CancelFunc
		cloneCtx, cancel = context.WithTimeout(ctx, c.config.Clone.Timeout)
		defer cancel()
	}

	c.logger.Info("cloning channel",
		"repository", logging.RedactURL(c.config.Repository),
		"branch", c.config.Branch,
		"dir", c.config.LocalDir)

	repo, err := gogit.PlainCloneContext(cloneCtx, c.config.LocalDir, false, opts)
	if err != nil {
		return false, fmt.Errorf("failed to clone channel: %w", err)
	}

	c.repo = repo
	return true, nil
}

// pullLocked fetches from origin and fills in the sync result. Callers
// must hold c.mu with the repository initialized.
func (c *Channel) pullLocked(ctx context.Context, result *SyncResult) error {
	ref, err := c.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	result.FromSHA = ref.Hash().String()

	worktree, err := c.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	method, err := c.auth.Method()
	if err != nil {
		return fmt.Errorf("failed to get auth: %w", err)
	}

	opts := &gogit.PullOptions{
		RemoteName: "origin",
		Auth:       method,
	}

	pullCtx := ctx
	if c.config.Clone.Timeout > 0 {
		var cancel context.CancelFunc
		pullCtx, cancel = context.WithTimeout(ctx, c.config.Clone.Timeout)
		defer cancel()
	}

	err = worktree.PullContext(pullCtx, opts)
	if err != nil && err != gogit.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to pull channel: %w", err)
	}

	newRef, err := c.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD after pull: %w", err)
	}
	result.ToSHA = newRef.Hash().String()
	result.HadChanges = result.FromSHA != result.ToSHA

	if result.HadChanges {
		files, err := c.changedFilesLocked(result.FromSHA, result.ToSHA)
		if err != nil {
			return fmt.Errorf("failed to get changed files: %w", err)
		}
		result.ChangedFiles = files

		c.logger.Info("channel advanced",
			"from", ShortSHA(result.FromSHA),
			"to", ShortSHA(result.ToSHA),
			"changed_files", len(files))
	} else {
		c.logger.Debug("channel up to date", "sha", ShortSHA(result.ToSHA))
	}

	return nil
}

// changedFilesLocked diffs the trees of two commits and returns the
// paths that were added, modified or deleted, relative to the
// repository root. Callers must hold c.mu.
func (c *Channel) changedFilesLocked(fromSHA, toSHA string) ([]string, error) {
	fromCommit, err := c.repo.CommitObject(plumbing.NewHash(fromSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get from commit: %w", err)
	}
	toCommit, err := c.repo.CommitObject(plumbing.NewHash(toSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get to commit: %w", err)
	}

	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get from tree: %w", err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get to tree: %w", err)
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	var files []string
	for _, change := range changes {
		// Deletions only have a From side.
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		} else if change.From.Name != "" {
			files = append(files, change.From.Name)
		}
	}

	return files, nil
}

// Head returns metadata about the current HEAD commit. The repository
// URL in the result has embedded credentials removed.
func (c *Channel) Head() (*CommitInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.headLocked()
}

func (c *Channel) headLocked() (*CommitInfo, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("channel not synced, call Sync or Open first")
	}

	ref, err := c.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	commit, err := c.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	return &CommitInfo{
		SHA:        commit.Hash.String(),
		Author:     commit.Author.Name,
		Email:      commit.Author.Email,
		Timestamp:  commit.Author.When,
		Message:    strings.TrimSpace(commit.Message),
		Branch:     c.config.Branch,
		Repository: logging.RedactURL(c.config.Repository),
	}, nil
}

// ModulesDir returns the local path of the module tree: the clone
// directory joined with the configured subpath.
func (c *Channel) ModulesDir() string {
	if c.config.Path == "" {
		return c.config.LocalDir
	}
	return filepath.Join(c.config.LocalDir, c.config.Path)
}

// LocalDir returns the clone directory.
func (c *Channel) LocalDir() string {
	return c.config.LocalDir
}

// ListModuleFiles walks the module tree and returns all module
// definition files (.yaml, .yml), sorted. Hidden files and directories
// are skipped.
func (c *Channel) ListModuleFiles() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := c.ModulesDir()
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("module tree does not exist: %w", err)
	}

	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		ext := filepath.Ext(path)
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk module tree: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// Stats returns a copy of the sync counters.
func (c *Channel) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// ShortSHA abbreviates a commit SHA for log output.
func ShortSHA(sha string) string {
	if len(sha) <= 8 {
		return sha
	}
	return sha[:8]
}
