package channel

import (
	"time"
)

// CommitInfo describes the channel HEAD commit.
type CommitInfo struct {
	SHA        string    `json:"sha"`
	Author     string    `json:"author"`
	Email      string    `json:"email"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
	Branch     string    `json:"branch"`
	Repository string    `json:"repository"`
}

// SyncResult reports the outcome of one synchronization. Cloned is true
// when the sync created the local clone; in that case FromSHA is empty
// and the whole tree counts as changed.
type SyncResult struct {
	FromSHA      string        `json:"from_sha,omitempty"`
	ToSHA        string        `json:"to_sha"`
	HadChanges   bool          `json:"had_changes"`
	Cloned       bool          `json:"cloned"`
	ChangedFiles []string      `json:"changed_files,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Stats aggregates channel sync counters for diagnostics.
type Stats struct {
	Syncs         int64
	Failures      int64
	LastSyncTime  time.Time
	LastSyncDur   time.Duration
	LastCommitSHA string
}
