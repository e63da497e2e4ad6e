package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/node"
)

// registerQueue wires the Job Queue's lifecycle controls: start, stop,
// and status are GET endpoints returning a {success, result, message}
// envelope; inject is reserved for immediate, admission-bypassing
// execution and stays 501.
func registerQueue(mux *http.ServeMux, n *node.Node) {
	mux.HandleFunc("GET /queue/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "queue status",
			"result":  n.Queue.DetailedStatus(),
		})
	})

	mux.HandleFunc("GET /queue/start", func(w http.ResponseWriter, r *http.Request) {
		n.Queue.Start()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  n.Queue.DetailedStatus(),
			"message": "queue started",
		})
	})

	// Graceful by default; ?finish_running_jobs=false terminates every
	// live chain instead of letting it drain, and ?timeout_seconds=N
	// bounds the wait.
	mux.HandleFunc("GET /queue/stop", func(w http.ResponseWriter, r *http.Request) {
		finishRunningJobs := true
		if v := r.URL.Query().Get("finish_running_jobs"); v != "" {
			if parsed, err := strconv.ParseBool(v); err == nil {
				finishRunningJobs = parsed
			}
		}
		timeoutSeconds := 30
		if v := r.URL.Query().Get("timeout_seconds"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
				timeoutSeconds = parsed
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(timeoutSeconds+5)*time.Second)
		defer cancel()

		success, message := n.Queue.Stop(ctx, finishRunningJobs, time.Duration(timeoutSeconds)*time.Second)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": success,
			"result":  n.Queue.DetailedStatus(),
			"message": message,
		})
	})

	mux.HandleFunc("POST /queue/inject", func(w http.ResponseWriter, r *http.Request) {
		notImplemented(w)
	})
}
