package handlers

import (
	"net/http"

	"github.com/turtacn/molview/pkg/types/molecule"
)

// ExamplesResponse lists the curated example molecules.
type ExamplesResponse struct {
	Examples []molecule.Example `json:"examples"`
}

// ListExamples handles GET /api/examples.
func ListExamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ExamplesResponse{Examples: molecule.Examples()})
}
