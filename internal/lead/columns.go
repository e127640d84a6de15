package lead

import (
	"strconv"
	"strings"
	"time"
)

// Header is the fixed 13-column ledger schema. Row 1 of every ledger.
var Header = []string{
	"Timestamp", "Title", "Year", "Make", "Model", "Price", "Source",
	"Listing URL", "Description", "Seller Phone", "Date Posted",
	"Thryv_Status", "Thryv_Lead_ID",
}

// Fallback column positions used when header lookup fails.
const (
	DefaultURLColumn    = 7  // column H
	DefaultStatusColumn = 11 // column L
	DefaultLeadIDColumn = 12 // column M
)

// ColumnIndexOf locates a column by header text, case and space
// insensitively ("Listing URL" matches "listing_url").
func ColumnIndexOf(header []string, name string) (int, bool) {
	want := canonicalHeader(name)
	for i, h := range header {
		if canonicalHeader(h) == want {
			return i, true
		}
	}
	return 0, false
}

// ColumnLetter converts a zero-based column index to its A1 letter.
func ColumnLetter(index int) string {
	letters := ""
	for index >= 0 {
		letters = string(rune('A'+index%26)) + letters
		index = index/26 - 1
	}
	return letters
}

func canonicalHeader(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// Row renders a lead as a ledger row in Header order, stamped with the
// server-assigned timestamp.
func (l Lead) Row(ts time.Time) []string {
	year := ""
	if l.Year != 0 {
		year = strconv.Itoa(l.Year)
	}
	return []string{
		ts.Format("2006-01-02 15:04:05"),
		l.Title,
		year,
		l.Make,
		l.Model,
		l.Price,
		l.Source,
		l.ListingURL,
		l.Description,
		l.SellerPhone,
		l.DatePosted,
		l.ThryvStatus,
		l.ThryvLeadID,
	}
}

// FromRow rebuilds a lead from a ledger row using the given header for
// column lookup. Short rows are treated as padded with empty cells.
func FromRow(header, row []string) Lead {
	cell := func(name string, fallback int) string {
		idx, ok := ColumnIndexOf(header, name)
		if !ok {
			idx = fallback
		}
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}
	year := 0
	if y, err := strconv.Atoi(strings.TrimSpace(cell("year", 2))); err == nil {
		year = y
	}
	return Lead{
		Title:       cell("title", 1),
		Year:        year,
		Make:        cell("make", 3),
		Model:       cell("model", 4),
		Price:       cell("price", 5),
		Source:      cell("source", 6),
		ListingURL:  cell("listing_url", DefaultURLColumn),
		Description: cell("description", 8),
		SellerPhone: cell("seller_phone", 9),
		DatePosted:  cell("date_posted", 10),
		ThryvStatus: cell("thryv_status", DefaultStatusColumn),
		ThryvLeadID: cell("thryv_lead_id", DefaultLeadIDColumn),
	}
}
