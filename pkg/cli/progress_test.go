package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestWaitReporterReportsPending(t *testing.T) {
	buf := &bytes.Buffer{}
	reporter := NewWaitReporter(buf, 10*time.Millisecond, func() []string {
		return []string{"web.pem", "db.pem"}
	})

	reporter.Start()
	time.Sleep(100 * time.Millisecond)
	reporter.Stop()

	output := buf.String()
	if !strings.Contains(output, "Still waiting") {
		t.Errorf("output missing status line:\n%s", output)
	}
	if !strings.Contains(output, "missing web.pem, db.pem") {
		t.Errorf("output missing pending names:\n%s", output)
	}
}

func TestWaitReporterNoPendingFunc(t *testing.T) {
	buf := &bytes.Buffer{}
	reporter := NewWaitReporter(buf, 10*time.Millisecond, nil)

	reporter.Start()
	time.Sleep(100 * time.Millisecond)
	reporter.Stop()

	output := buf.String()
	if !strings.Contains(output, "Still waiting") {
		t.Errorf("output missing status line:\n%s", output)
	}
	if strings.Contains(output, "missing") {
		t.Errorf("output should not name missing items:\n%s", output)
	}
}

func TestWaitReporterStopBeforeFirstTick(t *testing.T) {
	buf := &bytes.Buffer{}
	reporter := NewWaitReporter(buf, time.Hour, func() []string {
		return []string{"never.pem"}
	})

	reporter.Start()
	reporter.Stop()

	if buf.Len() != 0 {
		t.Errorf("expected no output before first tick, got:\n%s", buf.String())
	}
}

func TestWaitReporterStopIdempotent(t *testing.T) {
	reporter := NewWaitReporter(nil, time.Hour, nil)

	// Stop without Start is a no-op
	reporter.Stop()

	reporter.Start()
	reporter.Stop()
	reporter.Stop()
}

func TestWaitReporterRestart(t *testing.T) {
	buf := &bytes.Buffer{}
	reporter := NewWaitReporter(buf, 10*time.Millisecond, nil)

	reporter.Start()
	reporter.Stop()

	reporter.Start()
	time.Sleep(50 * time.Millisecond)
	reporter.Stop()

	if !strings.Contains(buf.String(), "Still waiting") {
		t.Errorf("restarted reporter produced no output:\n%s", buf.String())
	}
}
