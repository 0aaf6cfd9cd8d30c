package api

import "net/http"

// SchemaHandler serves the schema id.
type SchemaHandler struct {
	deps SchemaDependencies
}

// NewSchemaHandler creates a new schema handler.
func NewSchemaHandler(deps SchemaDependencies) *SchemaHandler {
	return &SchemaHandler{deps: deps}
}

// HandleGetSchema handles GET /api/schema requests.
func (h *SchemaHandler) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{SchemaID: h.deps.SchemaID().Hex()})
}
