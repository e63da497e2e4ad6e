package httpapi

import (
	"net/http"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/node"
	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/registry"
)

// registerTemplates wires the registry's read surface:
// list_templates returns "<category>/<name>" identifiers,
// describe_templates returns full descriptors, get_template looks up
// one blueprint exactly, and reload_templates rebuilds the catalog.
func registerTemplates(mux *http.ServeMux, n *node.Node) {
	mux.HandleFunc("GET /templates/list_templates/{category}", func(w http.ResponseWriter, r *http.Request) {
		listTemplates(w, r, n, r.PathValue("category"))
	})
	mux.HandleFunc("GET /templates/list_templates", func(w http.ResponseWriter, r *http.Request) {
		listTemplates(w, r, n, "*")
	})

	mux.HandleFunc("GET /templates/describe_templates/{category}", func(w http.ResponseWriter, r *http.Request) {
		describeTemplates(w, r, n, r.PathValue("category"))
	})
	mux.HandleFunc("GET /templates/describe_templates", func(w http.ResponseWriter, r *http.Request) {
		describeTemplates(w, r, n, "*")
	})

	mux.HandleFunc("GET /templates/get_template/{category}/{name}", func(w http.ResponseWriter, r *http.Request) {
		category := r.PathValue("category")
		name := r.PathValue("name")

		desc, ok := n.Registry.Find(category, name)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such template"})
			return
		}

		writeJSON(w, http.StatusOK, descriptorView(desc))
	})

	// Reload re-registers the built-in catalog. An external plugin
	// loader would hook in here; without one, the built-ins are the
	// whole catalog.
	mux.HandleFunc("GET /templates/reload_templates", func(w http.ResponseWriter, r *http.Request) {
		registry.RegisterDefaults(n.Registry)

		names := make([]string, 0)
		for _, d := range n.Registry.All() {
			names = append(names, d.Category+"/"+d.Name)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  names,
			"message": "templates reloaded",
		})
	})
}

func listTemplates(w http.ResponseWriter, r *http.Request, n *node.Node, pattern string) {
	descriptors, err := n.Registry.FindByCategory(pattern)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		names = append(names, d.Category+"/"+d.Name)
	}
	writeJSON(w, http.StatusOK, names)
}

func describeTemplates(w http.ResponseWriter, r *http.Request, n *node.Node, pattern string) {
	descriptors, err := n.Registry.FindByCategory(pattern)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	views := make([]map[string]any, 0, len(descriptors))
	for _, d := range descriptors {
		views = append(views, descriptorView(d))
	}
	writeJSON(w, http.StatusOK, views)
}

func descriptorView(d registry.Descriptor) map[string]any {
	return map[string]any{
		"category": d.Category,
		"name":     d.Name,
		"class":    d.Class,
		"config":   d.Config,
	}
}
