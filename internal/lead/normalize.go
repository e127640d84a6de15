package lead

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Normalizer cleans raw scraped listings into canonical leads and applies
// the minimum-year policy. It has no side effects beyond logging.
type Normalizer struct {
	minYear int
	logger  *zap.Logger
}

// NewNormalizer builds a Normalizer. A nil logger falls back to zap.NewNop.
func NewNormalizer(minYear int, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{minYear: minYear, logger: logger}
}

// Clean normalizes price and year and drops listings confirmed to be older
// than the minimum vehicle year. Listings whose year is missing or
// unparseable are kept for manual review: only a confirmed-too-old year
// rejects, never missing data.
func (n *Normalizer) Clean(raw []RawListing) []Lead {
	leads := make([]Lead, 0, len(raw))
	for _, r := range raw {
		l := Lead{
			Title:       strings.TrimSpace(r.Title),
			Make:        strings.TrimSpace(r.Make),
			Model:       strings.TrimSpace(r.Model),
			Price:       normalizePrice(r.Price, n.logger),
			Source:      r.Source,
			ListingURL:  strings.TrimSpace(r.ListingURL),
			Description: r.Description,
			SellerPhone: strings.TrimSpace(r.SellerPhone),
			DatePosted:  r.DatePosted,
		}

		yearText := strings.TrimSpace(r.Year)
		if yearText == "" {
			n.logger.Debug("listing has no year, keeping for manual review",
				zap.String("title", l.Title))
			leads = append(leads, l)
			continue
		}
		year, err := strconv.Atoi(yearText)
		if err != nil {
			n.logger.Warn("could not parse year, keeping listing for manual review",
				zap.String("title", l.Title), zap.String("year", yearText))
			leads = append(leads, l)
			continue
		}
		if year < n.minYear {
			n.logger.Debug("skipping listing below minimum vehicle year",
				zap.String("title", l.Title),
				zap.Int("year", year), zap.Int("min_year", n.minYear))
			continue
		}
		l.Year = year
		leads = append(leads, l)
	}
	n.logger.Info("normalized listings",
		zap.Int("raw", len(raw)), zap.Int("kept", len(leads)))
	return leads
}

// normalizePrice strips currency symbols and thousands separators and
// renders the integer value. Unparseable prices pass through unchanged.
func normalizePrice(price string, logger *zap.Logger) string {
	trimmed := strings.TrimSpace(price)
	if trimmed == "" {
		return ""
	}
	stripped := strings.NewReplacer("$", "", ",", "").Replace(trimmed)
	value, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		logger.Warn("could not parse price, keeping original value",
			zap.String("price", price))
		return trimmed
	}
	return strconv.Itoa(int(value))
}
