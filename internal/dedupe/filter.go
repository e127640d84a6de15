// Package dedupe filters candidate leads against the persisted ledger by
// their natural key, the listing URL.
package dedupe

import (
	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/lead"
)

// Filter returns the candidates whose listing URL does not already appear
// in the ledger values, preserving input order. The URL column is located
// by header text with a fixed fallback position. Candidates without a URL
// cannot be deduplicated and are always kept: treating a duplicate as new
// beats dropping an unseen lead.
func Filter(candidates []lead.Lead, values [][]string, logger *zap.Logger) []lead.Lead {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(candidates) == 0 {
		return nil
	}
	if len(values) == 0 {
		return candidates
	}

	urlColumn := lead.DefaultURLColumn
	if idx, ok := lead.ColumnIndexOf(values[0], "listing_url"); ok {
		urlColumn = idx
	} else {
		logger.Warn("could not locate listing URL column in header, using default position",
			zap.Int("column", urlColumn))
	}

	existing := make(map[string]struct{})
	for _, row := range values[1:] {
		if urlColumn < len(row) && row[urlColumn] != "" {
			existing[row[urlColumn]] = struct{}{}
		}
	}

	unique := make([]lead.Lead, 0, len(candidates))
	for _, c := range candidates {
		switch {
		case c.ListingURL == "":
			logger.Warn("lead missing URL, cannot check for duplicate, including",
				zap.String("title", c.Title))
			unique = append(unique, c)
		default:
			if _, dup := existing[c.ListingURL]; dup {
				logger.Debug("skipping duplicate lead",
					zap.String("title", c.Title), zap.String("url", c.ListingURL))
				continue
			}
			unique = append(unique, c)
		}
	}

	logger.Info("filtered duplicates",
		zap.Int("candidates", len(candidates)),
		zap.Int("duplicates", len(candidates)-len(unique)))
	return unique
}
