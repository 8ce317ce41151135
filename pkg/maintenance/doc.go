// Package maintenance manages the spool of scheduled maintenance
// requests: operator-filed shell commands that run when their due date
// arrives, with retries, postponement, and archiving of outcomes.
//
// # Request Lifecycle
//
// A request moves through these states:
//
//	pending -> due -> running -> success
//	                          -> error
//	                          -> tempfail  (retried on the next cycle)
//	                          -> postpone  (rescheduled into the future)
//	                          -> retrylimit (attempt budget exhausted)
//
// Requests finished with success, error, retrylimit, or deleted are
// moved from SpoolDir/requests/ to SpoolDir/archive/ and summarized in
// the archive index.
//
// # Exit Code Protocol
//
// Commands report their outcome through the exit code:
//
//   - 0: success
//   - 69: postpone, the machine is not ready; reschedule
//   - 75: transient failure; retry at the next opportunity
//   - anything else: permanent failure
//
// # Basic Usage
//
//	manager, err := maintenance.NewManager(&maintenance.Config{
//	    SpoolDir:    "/var/spool/basalt/maintenance",
//	    MaxAttempts: 48,
//	}, index, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Close()
//
//	// File a request
//	req := maintenance.NewRequest("systemctl restart nginx", estimate, "nginx security update")
//	if _, err := manager.Add(req); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Run one maintenance cycle
//	result, err := manager.RunCycle(ctx)
//
// # Scheduling
//
// The Scheduler drives RunCycle on a cron schedule:
//
//	scheduler := maintenance.NewScheduler(manager, "*/10 * * * *")
//	if err := scheduler.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer scheduler.Stop()
//
// # Spool Layout
//
// The manager holds an exclusive flock on SpoolDir/.lock for its whole
// lifetime, so concurrent agents and CLI invocations cannot corrupt
// the spool. Each request owns one subdirectory:
//
//	SpoolDir/
//	  .lock
//	  requests/<id>/request.yaml    active requests
//	  archive/<id>/request.yaml     finished requests
//
// request.yaml is written atomically (temp file plus rename) and holds
// the full request including every execution attempt with captured
// stdout, stderr, and exit code.
package maintenance
