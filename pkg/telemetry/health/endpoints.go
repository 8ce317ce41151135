package health

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// VersionInfo is the payload served by the version endpoint.
type VersionInfo struct {
	// Version is the release the binary was cut from.
	Version string `json:"version"`

	// Commit is the git revision.
	Commit string `json:"commit"`

	// BuildTime is when the binary was built.
	BuildTime string `json:"build_time"`

	// GoVersion is the toolchain that built the binary.
	GoVersion string `json:"go_version"`
}

// HealthCheckHandlers bundles the probe handlers the agent mounts. The
// paths come from the agent's config; this only supplies the handlers.
type HealthCheckHandlers struct {
	LivenessHandler  http.HandlerFunc
	ReadinessHandler http.HandlerFunc
	VersionHandler   http.HandlerFunc
}

// CreateHandlers returns the probe handler set for one binary.
//
//	handlers := checker.CreateHandlers("25.11.2", "4be31a7", "2026-08-20")
//	mux.HandleFunc(cfg.LivenessPath, handlers.LivenessHandler)
//	mux.HandleFunc(cfg.ReadinessPath, handlers.ReadinessHandler)
//	mux.HandleFunc(cfg.VersionPath, handlers.VersionHandler)
func (c *Checker) CreateHandlers(version, commit, buildTime string) HealthCheckHandlers {
	return HealthCheckHandlers{
		LivenessHandler:  c.LivenessHandler(),
		ReadinessHandler: c.ReadinessHandler(),
		VersionHandler:   VersionHandler(version, commit, buildTime),
	}
}

// LivenessHandler serves the liveness probe. It answers 200 as long as
// the process serves HTTP at all; orchestrators restart the agent when
// this stops answering.
//
//	{"status": "ok", "timestamp": "2026-08-20T10:30:00Z"}
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !probeMethod(w, r) {
			return
		}

		writeJSON(w, r, http.StatusOK, c.CheckLiveness(r.Context()))
	}
}

// ReadinessHandler serves the readiness probe. It fans out to every
// registered component check and answers 503 when any component is
// unhealthy. Deploy tooling holds back maintenance activation until
// this endpoint reports ready.
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "journal": {"status": "unhealthy", "message": "database is locked"},
//	        "maintenance_spool": {"status": "ok", "duration_ms": 0.2}
//	    },
//	    "timestamp": "2026-08-20T10:30:00Z"
//	}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !probeMethod(w, r) {
			return
		}

		status := c.CheckReadiness(r.Context())

		code := http.StatusOK
		if status.Status != StatusReady {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
	}
}

// VersionHandler serves build information so fleet tooling can see
// which release each machine runs.
//
//	{
//	    "version": "25.11.2",
//	    "commit": "4be31a7",
//	    "build_time": "2026-08-20T00:00:00Z",
//	    "go_version": "go1.25.0"
//	}
func VersionHandler(version, commit, buildTime string) http.HandlerFunc {
	info := VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !probeMethod(w, r) {
			return
		}

		writeJSON(w, r, http.StatusOK, info)
	}
}

// probeMethod accepts GET and HEAD and rejects everything else. Probes
// are read-only.
func probeMethod(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// writeJSON writes the probe response, omitting the body for HEAD.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(v)
	}
}
