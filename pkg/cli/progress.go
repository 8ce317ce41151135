package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// WaitReporter prints periodic status lines while a long wait runs, so
// an operator tailing a service journal can see what a blocked command
// is still waiting on.
type WaitReporter struct {
	writer   io.Writer
	interval time.Duration
	pending  func() []string

	mu      sync.Mutex
	started time.Time
	stop    chan struct{}
	done    chan struct{}
}

// NewWaitReporter creates a reporter that writes to w every interval.
// If w is nil, it defaults to os.Stdout. pending returns the names
// still outstanding; a nil func reports elapsed time only.
func NewWaitReporter(w io.Writer, interval time.Duration, pending func() []string) *WaitReporter {
	if w == nil {
		w = os.Stdout
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &WaitReporter{
		writer:   w,
		interval: interval,
		pending:  pending,
	}
}

// Start begins periodic reporting. Start on a running reporter is a
// no-op; Stop releases the ticker goroutine.
func (r *WaitReporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		return
	}
	r.started = time.Now()
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.run(r.stop, r.done)
}

// Stop ends reporting. No status line is written after Stop returns.
func (r *WaitReporter) Stop() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (r *WaitReporter) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *WaitReporter) report() {
	elapsed := time.Since(r.started).Round(time.Second)

	var names []string
	if r.pending != nil {
		names = r.pending()
	}
	if len(names) == 0 {
		fmt.Fprintf(r.writer, "Still waiting (%s)\n", elapsed)
		return
	}
	fmt.Fprintf(r.writer, "Still waiting (%s): missing %s\n", elapsed, strings.Join(names, ", "))
}
