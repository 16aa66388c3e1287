package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ecoppen/amiibot/internal/engine"
)

// Scraper runs one retry-wrapped poll cycle.
type Scraper interface {
	Run(ctx context.Context) error
}

// ScrapeHandler handles manual scrape trigger requests.
type ScrapeHandler struct {
	scraper Scraper
}

// NewScrapeHandler creates a new ScrapeHandler.
func NewScrapeHandler(s Scraper) *ScrapeHandler {
	return &ScrapeHandler{scraper: s}
}

// ScrapeOutput is the response body for the scrape endpoint.
type ScrapeOutput struct {
	Body struct {
		Status string `json:"status" example:"scrape completed" doc:"Scrape status"`
	}
}

// Scrape runs a poll cycle now. It fails with 409 while another cycle runs.
func (h *ScrapeHandler) Scrape(ctx context.Context, _ *struct{}) (*ScrapeOutput, error) {
	if err := h.scraper.Run(ctx); err != nil {
		if errors.Is(err, engine.ErrCycleInProgress) {
			return nil, huma.Error409Conflict("a scrape cycle is already running")
		}
		return nil, huma.Error500InternalServerError("scrape failed: " + err.Error())
	}

	resp := &ScrapeOutput{}
	resp.Body.Status = "scrape completed"
	return resp, nil
}

// RegisterTriggerRoutes registers trigger endpoints with the Huma API.
func RegisterTriggerRoutes(api huma.API, h *ScrapeHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-scrape",
		Method:      http.MethodPost,
		Path:        "/api/v1/scrape",
		Summary:     "Trigger a scrape",
		Description: "Polls every source once, reconciles the ledger and sends notifications.",
		Tags:        []string{"scrape"},
		Errors:      []int{http.StatusConflict, http.StatusInternalServerError},
	}, h.Scrape)
}
