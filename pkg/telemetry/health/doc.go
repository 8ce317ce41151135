// Package health provides health check endpoints for Caldera Basalt.
//
// # Overview
//
// The health package implements liveness and readiness probes for monitoring
// and orchestration systems, along with version information endpoints.
// It provides a framework for checking the health of various agent components.
//
// # Endpoints
//
// The package provides three main endpoints:
//
//   - /health: Liveness probe - indicates if the process is running
//   - /ready: Readiness probe - indicates if the agent can serve requests
//   - /version: Build information - version, commit, build time
//
// # Usage
//
//	// Create health checker
//	checker := health.New(5 * time.Second)
//
//	// Register component checks
//	checker.RegisterCheck("journal", func(ctx context.Context) error {
//	    return journalStore.Ping(ctx)
//	})
//
//	// Mount the HTTP handlers
//	handlers := checker.CreateHandlers("25.11.2", "4be31a7", "2026-08-20")
//	http.HandleFunc("/health", handlers.LivenessHandler)
//	http.HandleFunc("/ready", handlers.ReadinessHandler)
//	http.HandleFunc("/version", handlers.VersionHandler)
//
// # Liveness vs Readiness
//
// **Liveness Probe** (/health):
//   - Indicates if the process is alive and running
//   - Always returns 200 OK while the process can answer at all
//   - Ignores component checks, so a wedged journal never restarts the agent
//   - Used by orchestrators to restart the agent
//   - Fast check (<10ms)
//
// **Readiness Probe** (/ready):
//   - Indicates if the agent can serve requests
//   - Runs all registered component checks concurrently
//   - Returns 200 OK if all components are healthy
//   - Returns 503 Service Unavailable if any component is unhealthy
//   - Used by monitoring to gate maintenance scheduling
//   - Bounded by the per-check timeout
//
// # Component Health Checks
//
// Checks the agent registers:
//   - journal: Journal store accessible (if the journal is enabled)
//   - maintenance_spool: Spool directory accessible (if maintenance is enabled)
//
// # Performance
//
// Health checks are designed to be lightweight:
//   - Liveness: <10ms
//   - Readiness: <100ms (all component checks)
//   - Version: <1ms
//
// # Example Response
//
// Liveness response (/health):
//
//	{
//	    "status": "ok",
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
//
// Readiness response (/ready):
//
//	{
//	    "status": "ready",
//	    "checks": {
//	        "journal": {"status": "ok", "duration_ms": 1.4},
//	        "maintenance_spool": {"status": "ok", "duration_ms": 0.2}
//	    },
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
//
// Degraded response (/ready):
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "journal": {"status": "unhealthy", "message": "database is locked"},
//	        "maintenance_spool": {"status": "ok", "duration_ms": 0.2}
//	    },
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
//
// Version response (/version):
//
//	{
//	    "version": "25.11.2",
//	    "commit": "4be31a7",
//	    "build_time": "2026-08-20T00:00:00Z",
//	    "go_version": "go1.25.0"
//	}
package health
