package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

// StatsProvider summarizes the ledger.
type StatsProvider interface {
	GetStats(ctx context.Context) (*domain.Stats, error)
}

// StatsHandler handles GET /api/v1/stats.
type StatsHandler struct {
	store StatsProvider
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(s StatsProvider) *StatsHandler {
	return &StatsHandler{store: s}
}

// StatsOutput is the response for GET /api/v1/stats.
type StatsOutput struct {
	Body *domain.Stats
}

// GetStats returns ledger totals and the number of failing sources.
func (h *StatsHandler) GetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := h.store.GetStats(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get stats")
	}
	return &StatsOutput{Body: stats}, nil
}

// RegisterStatsRoutes registers the stats route on the Huma API.
func RegisterStatsRoutes(api huma.API, h *StatsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get stats",
		Description: "Returns total listings, sources with listings and failing sources.",
		Tags:        []string{"system"},
	}, h.GetStats)
}
