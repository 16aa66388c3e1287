package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports every field of a Listing that failed validation.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid field values: "+strings.Join(e.Invalid, ", "))
	}
	return "listing validation failed: " + strings.Join(parts, "; ")
}

// Fields returns all failing field names.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Missing)+len(e.Invalid))
	out = append(out, e.Missing...)
	return append(out, e.Invalid...)
}

// Validate checks that every required field is present. Strings consisting
// only of whitespace count as empty.
func (l *Listing) Validate() error {
	var verr ValidationError

	required := []struct {
		name  string
		value string
	}{
		{"title", l.Title},
		{"price", l.Price},
		{"stock_label", l.StockLabel},
		{"detail_url", l.DetailURL},
		{"source_id", l.SourceID},
		{"image_url", l.ImageURL},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			verr.Missing = append(verr.Missing, f.name)
		}
	}

	if l.SeverityColor < 0 || l.SeverityColor > maxColor {
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("severity_color (%d)", l.SeverityColor))
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return &verr
	}
	return nil
}
