package httpapi

import (
	"net/http"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/node"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/silo"
)

// registerTasks wires per-task status/shutdown and the reserved
// agent-level routes. Agent-wide process control and the plugin
// surface belong to external collaborators, so those routes stay
// reserved.
func registerTasks(mux *http.ServeMux, n *node.Node) {
	tasks := n.Silos.MustGet(silo.Tasks)

	mux.HandleFunc("GET /tasks/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		fields, err := tasks.HGetAll(r.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": err.Error()})
			return
		}
		if len(fields) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found."})
			return
		}

		writeJSON(w, http.StatusOK, silo.Decode(fields))
	})

	mux.HandleFunc("GET /tasks/shutdown/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		if !n.Queue.TerminateChain(id) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found."})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "terminate requested"})
	})

	mux.HandleFunc("GET /agent/shutdown", func(w http.ResponseWriter, r *http.Request) {
		notImplemented(w)
	})

	mux.HandleFunc("GET /agent/reload", func(w http.ResponseWriter, r *http.Request) {
		notImplemented(w)
	})

	mux.HandleFunc("GET /agent/install_plugin", func(w http.ResponseWriter, r *http.Request) {
		notImplemented(w)
	})

	mux.HandleFunc("GET /agent/list_plugins", func(w http.ResponseWriter, r *http.Request) {
		notImplemented(w)
	})
}
