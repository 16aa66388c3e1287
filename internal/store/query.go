package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	orderByTitle    = "title"
	orderBySource   = "source_id"
	orderByLastSeen = "last_seen_at"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderByTitle:    "title ASC, id ASC",
	orderBySource:   "source_id ASC, id ASC",
	orderByLastSeen: "last_seen_at DESC, id ASC",
}

const defaultOrderBy = "source_id ASC, id ASC"

const baseStockSelect = `SELECT id, source_id, title, price, stock_label, detail_url, image_url, last_seen_at
FROM stock_records`

const countStockSelect = "SELECT COUNT(*) FROM stock_records"

// StockQuery defines optional filters for browsing the ledger.
type StockQuery struct {
	SourceID      *string
	StockLabel    *string
	TitleContains *string
	Limit         int // default 50
	Offset        int
	OrderBy       string // "title", "source_id", "last_seen_at"
}

// placeholder renders the n-th (1-based) bind parameter for a dialect.
type placeholder func(n int) string

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func questionPlaceholder(int) string { return "?" }

// toSQL builds the data and count queries plus positional parameters.
func (q *StockQuery) toSQL(ph placeholder) (dataSQL, countSQL string, args []any) {
	var conditions []string

	if q.SourceID != nil {
		args = append(args, *q.SourceID)
		conditions = append(conditions, "source_id = "+ph(len(args)))
	}

	if q.StockLabel != nil {
		args = append(args, *q.StockLabel)
		conditions = append(conditions, "stock_label = "+ph(len(args)))
	}

	if q.TitleContains != nil {
		args = append(args, "%"+strings.ToLower(*q.TitleContains)+"%")
		conditions = append(conditions, "LOWER(title) LIKE "+ph(len(args)))
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderClause := defaultOrderBy
	if col, ok := validOrderBy[q.OrderBy]; ok {
		orderClause = col
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY %s LIMIT %d OFFSET %d",
		baseStockSelect, whereClause, orderClause, limit, offset,
	)
	countSQL = countStockSelect + whereClause

	return dataSQL, countSQL, args
}
