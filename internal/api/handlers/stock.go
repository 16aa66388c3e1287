package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ecoppen/amiibot/internal/store"
	domain "github.com/ecoppen/amiibot/pkg/types"
)

// StockQuerier browses the stock ledger.
type StockQuerier interface {
	QueryStock(ctx context.Context, q *store.StockQuery) ([]domain.StockRecord, int, error)
}

// StockHandler handles stock ledger endpoints.
type StockHandler struct {
	store StockQuerier
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(s StockQuerier) *StockHandler {
	return &StockHandler{store: s}
}

// ListStockInput is the input for browsing the ledger with optional filters.
type ListStockInput struct {
	Source  string `query:"source"   doc:"Filter by source id"`
	Stock   string `query:"stock"    doc:"Filter by stock label"`
	Title   string `query:"q"        doc:"Case-insensitive title substring"`
	Limit   int    `query:"limit"    doc:"Number of results (default 50)"   minimum:"0" maximum:"500"`
	Offset  int    `query:"offset"   doc:"Pagination offset"                minimum:"0"`
	OrderBy string `query:"order_by" doc:"Sort field"                       enum:"title,source_id,last_seen_at,"`
}

// ListStockOutput is the response for browsing the ledger.
type ListStockOutput struct {
	Body struct {
		Stock  []domain.StockRecord `json:"stock"`
		Total  int                  `json:"total"`
		Limit  int                  `json:"limit"`
		Offset int                  `json:"offset"`
	}
}

// ListStock returns current ledger rows.
func (h *StockHandler) ListStock(
	ctx context.Context,
	input *ListStockInput,
) (*ListStockOutput, error) {
	q := &store.StockQuery{
		Limit:   input.Limit,
		Offset:  input.Offset,
		OrderBy: input.OrderBy,
	}
	if input.Source != "" {
		q.SourceID = &input.Source
	}
	if input.Stock != "" {
		q.StockLabel = &input.Stock
	}
	if input.Title != "" {
		q.TitleContains = &input.Title
	}

	records, total, err := h.store.QueryStock(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("stock query failed: " + err.Error())
	}
	if records == nil {
		records = []domain.StockRecord{}
	}

	resp := &ListStockOutput{}
	resp.Body.Stock = records
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset
	return resp, nil
}

// RegisterStockRoutes registers stock endpoints with the Huma API.
func RegisterStockRoutes(api huma.API, h *StockHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-stock",
		Method:      http.MethodGet,
		Path:        "/api/v1/stock",
		Summary:     "List stock",
		Description: "Returns the listings currently believed to be offered, optionally for one source.",
		Tags:        []string{"stock"},
	}, h.ListStock)
}
