package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

// SourceStatusLister returns the persisted sync and failure state of sources.
type SourceStatusLister interface {
	ListSourceStatus(ctx context.Context) ([]domain.SourceStatus, error)
}

// SourcesHandler handles GET /api/v1/sources.
type SourcesHandler struct {
	store   SourceStatusLister
	sources []string
}

// NewSourcesHandler creates a SourcesHandler reporting on the given
// configured source ids.
func NewSourcesHandler(s SourceStatusLister, sources []string) *SourcesHandler {
	return &SourcesHandler{store: s, sources: sources}
}

// ListSourcesOutput is the response for GET /api/v1/sources.
type ListSourcesOutput struct {
	Body struct {
		Sources []domain.SourceStatus `json:"sources"`
	}
}

// ListSources returns one entry per configured source in configuration
// order. Sources that were never polled report zero state.
func (h *SourcesHandler) ListSources(
	ctx context.Context,
	_ *struct{},
) (*ListSourcesOutput, error) {
	rows, err := h.store.ListSourceStatus(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list sources")
	}

	byID := make(map[string]domain.SourceStatus, len(rows))
	for _, r := range rows {
		byID[r.SourceID] = r
	}

	resp := &ListSourcesOutput{}
	resp.Body.Sources = make([]domain.SourceStatus, 0, len(h.sources))
	for _, id := range h.sources {
		st, ok := byID[id]
		if !ok {
			st = domain.SourceStatus{SourceID: id}
		}
		resp.Body.Sources = append(resp.Body.Sources, st)
	}
	return resp, nil
}

// RegisterSourceRoutes registers source endpoints with the Huma API.
func RegisterSourceRoutes(api huma.API, h *SourcesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sources",
		Method:      http.MethodGet,
		Path:        "/api/v1/sources",
		Summary:     "List sources",
		Description: "Returns last attempt, failure counter and listing count per configured source.",
		Tags:        []string{"sources"},
	}, h.ListSources)
}
