// Package craigslist scrapes used-car listings from Craigslist search
// result pages. Both the static and the classic result markup are
// handled; Craigslist serves either depending on the region.
package craigslist

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/lead"
)

const sourceName = "Craigslist"

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// knownMakes maps lowercase make aliases to the canonical name.
var knownMakes = map[string]string{
	"toyota":     "Toyota",
	"honda":      "Honda",
	"ford":       "Ford",
	"chevrolet":  "Chevrolet",
	"chevy":      "Chevrolet",
	"nissan":     "Nissan",
	"jeep":       "Jeep",
	"subaru":     "Subaru",
	"hyundai":    "Hyundai",
	"kia":        "Kia",
	"mazda":      "Mazda",
	"volkswagen": "Volkswagen",
	"vw":         "Volkswagen",
	"bmw":        "BMW",
	"mercedes":   "Mercedes-Benz",
	"lexus":      "Lexus",
	"acura":      "Acura",
	"dodge":      "Dodge",
	"ram":        "Ram",
	"gmc":        "GMC",
	"tesla":      "Tesla",
	"audi":       "Audi",
	"volvo":      "Volvo",
	"mitsubishi": "Mitsubishi",
	"buick":      "Buick",
	"cadillac":   "Cadillac",
	"chrysler":   "Chrysler",
	"infiniti":   "Infiniti",
	"scion":      "Scion",
}

// Config controls the scraper.
type Config struct {
	// SearchURLs are the result pages to walk.
	SearchURLs []string
	// MinYear drops obviously too-old vehicles at the source. Zero
	// disables the early filter.
	MinYear int
	// UserAgent overrides the collector's user agent.
	UserAgent string
}

// Scraper pulls listings from Craigslist search pages. It implements
// lead.Scraper.
type Scraper struct {
	cfg    Config
	logger *zap.Logger
	// newCollector is swappable for tests.
	newCollector func() *colly.Collector
}

// New builds a Scraper. A nil logger falls back to zap.NewNop.
func New(cfg Config, logger *zap.Logger) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scraper{cfg: cfg, logger: logger}
	s.newCollector = func() *colly.Collector {
		return colly.NewCollector(
			colly.UserAgent(cfg.UserAgent),
			colly.AllowURLRevisit(),
		)
	}
	return s
}

// Scrape walks every configured search URL and returns the raw listings
// found. A page that fails to load is logged and skipped; the error
// return fires only when every page failed.
func (s *Scraper) Scrape(ctx context.Context) ([]lead.RawListing, error) {
	if len(s.cfg.SearchURLs) == 0 {
		return nil, fmt.Errorf("no search URLs configured")
	}

	var listings []lead.RawListing
	failures := 0
	for _, searchURL := range s.cfg.SearchURLs {
		if err := ctx.Err(); err != nil {
			return listings, err
		}
		page, err := s.scrapePage(ctx, searchURL)
		if err != nil {
			s.logger.Error("could not scrape search page",
				zap.String("url", searchURL), zap.Error(err))
			failures++
			continue
		}
		s.logger.Info("scraped search page",
			zap.String("url", searchURL), zap.Int("listings", len(page)))
		listings = append(listings, page...)
	}

	if failures == len(s.cfg.SearchURLs) {
		return nil, fmt.Errorf("all %d search pages failed", failures)
	}
	return listings, nil
}

func (s *Scraper) scrapePage(ctx context.Context, searchURL string) ([]lead.RawListing, error) {
	var listings []lead.RawListing

	c := s.newCollector()
	c.Context = ctx

	// Modern static markup.
	c.OnHTML("li.cl-static-search-result", func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText("div.title"))
		if raw, ok := s.buildListing(
			title,
			strings.TrimSpace(e.ChildText("div.price")),
			e.Request.AbsoluteURL(e.ChildAttr("a", "href")),
			"",
		); ok {
			listings = append(listings, raw)
		}
	})

	// Classic result rows.
	c.OnHTML("li.result-row", func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText("a.result-title"))
		if raw, ok := s.buildListing(
			title,
			strings.TrimSpace(e.ChildText("span.result-price")),
			e.Request.AbsoluteURL(e.ChildAttr("a.result-title", "href")),
			e.ChildAttr("time.result-date", "datetime"),
		); ok {
			listings = append(listings, raw)
		}
	})

	if err := c.Visit(searchURL); err != nil {
		return nil, err
	}
	c.Wait()
	return listings, nil
}

// buildListing assembles a raw listing from page fragments, dropping
// rows without a title and rows that fail the year floor.
func (s *Scraper) buildListing(title, price, listingURL, datePosted string) (lead.RawListing, bool) {
	if title == "" {
		return lead.RawListing{}, false
	}

	year := extractYear(title)
	if s.cfg.MinYear > 0 && year != "" {
		if y, err := strconv.Atoi(year); err == nil && y < s.cfg.MinYear {
			s.logger.Debug("skipping listing below year floor",
				zap.String("title", title), zap.String("year", year))
			return lead.RawListing{}, false
		}
	}

	makeName, model := extractMakeModel(title)
	return lead.RawListing{
		Title:      title,
		Year:       year,
		Make:       makeName,
		Model:      model,
		Price:      price,
		Source:     sourceName,
		ListingURL: listingURL,
		DatePosted: datePosted,
	}, true
}

func extractYear(title string) string {
	return yearPattern.FindString(title)
}

// extractMakeModel scans the title for a known make; the model is the
// following token. Craigslist titles are free text, so this is best
// effort and empty results are fine.
func extractMakeModel(title string) (string, string) {
	tokens := strings.Fields(title)
	for i, token := range tokens {
		cleaned := strings.ToLower(strings.Trim(token, ".,!-*"))
		canonical, ok := knownMakes[cleaned]
		if !ok {
			continue
		}
		model := ""
		if i+1 < len(tokens) {
			model = strings.Trim(tokens[i+1], ".,!-*")
		}
		return canonical, model
	}
	return "", ""
}
