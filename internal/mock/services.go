// Package mock provides in-memory stand-ins for every external service,
// so the full pipeline can run without credentials or network access.
package mock

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/lead"
)

// RemoteLedger is an in-memory sheet: a header row plus data rows.
type RemoteLedger struct {
	mu     sync.Mutex
	values [][]string
}

// NewRemoteLedger builds a ledger pre-seeded with the standard header.
func NewRemoteLedger() *RemoteLedger {
	return &RemoteLedger{values: [][]string{lead.Header}}
}

// GetAll returns a copy of all rows.
func (m *RemoteLedger) GetAll(context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.values))
	copy(out, m.values)
	return out, nil
}

// Header returns the header row.
func (m *RemoteLedger) Header(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.values) == 0 {
		return nil, nil
	}
	return m.values[0], nil
}

// Append adds rows to the table.
func (m *RemoteLedger) Append(_ context.Context, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = append(m.values, rows...)
	return nil
}

// UpdateCell writes one cell addressed by row index and column letter.
func (m *RemoteLedger) UpdateCell(_ context.Context, rowIndex int, column, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rowIndex < 1 || rowIndex > len(m.values) {
		return fmt.Errorf("row %d out of range", rowIndex)
	}
	col := int(column[0] - 'A')
	row := m.values[rowIndex-1]
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = value
	m.values[rowIndex-1] = row
	return nil
}

// Create resets the table to just the given header.
func (m *RemoteLedger) Create(_ context.Context, header []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = [][]string{header}
	return "mock-sheet", nil
}

// RefreshAuth always succeeds.
func (m *RemoteLedger) RefreshAuth(context.Context) error { return nil }

// SMSGateway records messages instead of sending them.
type SMSGateway struct {
	mu     sync.Mutex
	logger *zap.Logger
	sent   []SentMessage
}

// SentMessage is one recorded SMS.
type SentMessage struct {
	To   string
	Body string
}

// NewSMSGateway builds a recording gateway.
func NewSMSGateway(logger *zap.Logger) *SMSGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMSGateway{logger: logger}
}

// Send records the message and returns a synthetic SID.
func (m *SMSGateway) Send(_ context.Context, to, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{To: to, Body: body})
	m.logger.Info("mock sms", zap.String("to", to), zap.String("body", body))
	return fmt.Sprintf("MOCK-SM-%d", len(m.sent)), nil
}

// Sent returns the recorded messages.
func (m *SMSGateway) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// EmailRelay records emails instead of sending them.
type EmailRelay struct {
	mu     sync.Mutex
	logger *zap.Logger
	sent   []SentEmail
}

// SentEmail is one recorded email.
type SentEmail struct {
	Subject string
	Body    string
}

// NewEmailRelay builds a recording relay.
func NewEmailRelay(logger *zap.Logger) *EmailRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailRelay{logger: logger}
}

// Send records the email.
func (m *EmailRelay) Send(_ context.Context, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentEmail{Subject: subject, Body: htmlBody})
	m.logger.Info("mock email", zap.String("subject", subject))
	return nil
}

// Sent returns the recorded emails.
func (m *EmailRelay) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}

// CRMClient accepts every lead and issues synthetic ids.
type CRMClient struct {
	mu      sync.Mutex
	logger  *zap.Logger
	created int
}

// NewCRMClient builds an always-accepting CRM.
func NewCRMClient(logger *zap.Logger) *CRMClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CRMClient{logger: logger}
}

// Authenticate always succeeds.
func (m *CRMClient) Authenticate(context.Context) bool { return true }

// CreateLead accepts the lead and returns a synthetic id.
func (m *CRMClient) CreateLead(_ context.Context, l lead.Lead) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	id := fmt.Sprintf("MOCK-TH-%d", m.created)
	m.logger.Info("mock crm lead", zap.String("title", l.Title), zap.String("id", id))
	return true, id
}

// Scraper returns a fixed set of sample listings.
type Scraper struct{}

// NewScraper builds a sample-listing scraper.
func NewScraper() *Scraper { return &Scraper{} }

// Scrape returns the built-in sample listings.
func (m *Scraper) Scrape(context.Context) ([]lead.RawListing, error) {
	return SampleListings(), nil
}

// SampleListings returns realistic raw listings used by the mock scraper
// and by dry runs.
func SampleListings() []lead.RawListing {
	return []lead.RawListing{
		{
			Title:       "2020 Toyota Camry SE - Excellent Condition",
			Year:        "2020",
			Make:        "Toyota",
			Model:       "Camry",
			Price:       "$22,500",
			Source:      "Craigslist",
			ListingURL:  "https://honolulu.craigslist.org/cto/d/sample-camry/1001.html",
			Description: "One owner, dealer maintained. Call 808-555-1234.",
			SellerPhone: "808-555-1234",
			DatePosted:  "2026-08-29",
		},
		{
			Title:       "2019 Honda CR-V EX AWD",
			Year:        "2019",
			Make:        "Honda",
			Model:       "CR-V",
			Price:       "$24,000",
			Source:      "Craigslist",
			ListingURL:  "https://honolulu.craigslist.org/cto/d/sample-crv/1002.html",
			Description: "Low miles, new tires. Text (808) 555-9876.",
			DatePosted:  "2026-08-29",
		},
		{
			Title:       "2015 Honda Civic - runs great",
			Year:        "2015",
			Make:        "Honda",
			Model:       "Civic",
			Price:       "$9,000",
			Source:      "Craigslist",
			ListingURL:  "https://honolulu.craigslist.org/cto/d/sample-civic/1003.html",
			Description: "Island car, some rust.",
			DatePosted:  "2026-08-28",
		},
	}
}
