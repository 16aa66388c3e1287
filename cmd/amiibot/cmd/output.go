package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func printSourcesTable(w io.Writer, sources []domain.SourceStatus) error {
	tw := newTabWriter(w)
	tw.writef("SOURCE\tLISTINGS\tLAST ATTEMPT\tFAILURES\tLAST FAILURE\tLAST SUCCESS\n")
	for i := range sources {
		s := &sources[i]
		tw.writef("%s\t%d\t%s\t%d\t%s\t%s\n",
			s.SourceID,
			s.Listings,
			formatTime(s.LastAttemptAt),
			s.ConsecutiveFailures,
			formatTime(s.LastFailureAt),
			formatTime(s.LastSuccessAt),
		)
	}
	return tw.finish()
}

func printStats(w io.Writer, stats *domain.Stats) error {
	tw := newTabWriter(w)
	tw.writef("Listings:\t%d\n", stats.TotalListings)
	tw.writef("Sources:\t%d\n", stats.TotalSources)
	tw.writef("Failing:\t%d\n", stats.FailingSources)
	return tw.finish()
}

func printStockTable(w io.Writer, records []domain.StockRecord) error {
	tw := newTabWriter(w)
	tw.writef("SOURCE\tTITLE\tPRICE\tSTOCK\tLAST SEEN\n")
	for i := range records {
		r := &records[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\n",
			r.SourceID,
			truncate(r.Title, 50),
			r.Price,
			r.StockLabel,
			formatTime(&r.LastSeenAt),
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
