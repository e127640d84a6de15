package lead

import (
	"context"
	"time"
)

// Scraper produces raw listings from an external source.
type Scraper interface {
	Scrape(ctx context.Context) ([]RawListing, error)
}

// RemoteLedger is the sheet-style remote store: a header row plus data
// rows addressed by 1-based row index and letter columns.
type RemoteLedger interface {
	// GetAll returns the full range, header row included.
	GetAll(ctx context.Context) ([][]string, error)
	// Header returns just the first row.
	Header(ctx context.Context) ([]string, error)
	// Append inserts rows at the end of the table.
	Append(ctx context.Context, rows [][]string) error
	// UpdateCell writes a single cell addressed by row and column letter.
	UpdateCell(ctx context.Context, rowIndex int, column string, value string) error
	// Create provisions a brand-new ledger with the given header row and
	// returns its identifier.
	Create(ctx context.Context, header []string) (string, error)
	// RefreshAuth re-acquires credentials after a 401/403.
	RefreshAuth(ctx context.Context) error
}

// LocalMirror is the append-only local backup of the ledger. It mirrors
// the append path only and never sees status updates.
type LocalMirror interface {
	Append(leads []Lead) error
	ReadAll() ([]Lead, error)
}

// SMSGateway sends a single text message and returns the provider's
// message identifier.
type SMSGateway interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// EmailRelay delivers an HTML email to the operator.
type EmailRelay interface {
	Send(ctx context.Context, subject, htmlBody string) error
}

// CRMClient pushes leads into the external CRM. Both operations absorb
// their own failures: Authenticate never errors and CreateLead reports
// failure as (false, human-readable message).
type CRMClient interface {
	Authenticate(ctx context.Context) bool
	CreateLead(ctx context.Context, l Lead) (bool, string)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
