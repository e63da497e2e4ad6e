package httpapi

import "net/http"

// registerHome wires the root routes: a liveness probe and the
// browser favicon request every reverse proxy health check trips over.
func registerHome(mux *http.ServeMux) {
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "Successfully reached a CloudHarvestAgent instance.")
	})

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
