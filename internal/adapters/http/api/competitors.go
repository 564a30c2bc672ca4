package api

import (
	"context"
	"net/http"

	service "github.com/okian/ltrc/internal/app"
)

// CompetitorDependencies defines the interface for competitor lookups.
type CompetitorDependencies interface {
	Competitor(ctx context.Context, name string) (service.CompetitorView, error)
}

// CompetitorHandler handles competitor requests.
type CompetitorHandler struct {
	deps CompetitorDependencies
}

// NewCompetitorHandler creates a new competitor handler.
func NewCompetitorHandler(deps CompetitorDependencies) *CompetitorHandler {
	return &CompetitorHandler{deps: deps}
}

// HandleGetCompetitor handles GET /competitors/{name}.
func (h *CompetitorHandler) HandleGetCompetitor(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_competitor"
	name := r.PathValue("name")
	if name == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	view, err := h.deps.Competitor(r.Context(), name)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
