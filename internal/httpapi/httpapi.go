// Package httpapi is the agent's control surface: a thin
// net/http.ServeMux wrapping the Node, one file per route group
// (home, queue, tasks, templates). Every handler closes over the
// *node.Node passed to NewMux rather than reaching into a
// package-level global.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/metrics"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/node"
)

// NewMux builds the agent's HTTP control surface.
func NewMux(n *node.Node) *http.ServeMux {
	mux := http.NewServeMux()

	registerHome(mux)
	registerQueue(mux, n)
	registerTasks(mux, n)
	registerTemplates(mux, n)
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}

// writeJSON writes body as a JSON response with the given status code.
// Encoding failures are logged nowhere deliberately: http.ResponseWriter
// has already committed the header by the time json.Marshal could fail
// on well-formed handler output, so there is nothing actionable to do.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func notImplemented(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{
		"message": "not implemented",
	})
}
