// Package lead defines the domain model for the lead ingestion pipeline:
// the canonical lead record, the fixed ledger schema, and the interfaces
// the orchestrator composes.
package lead

// RawListing is a listing as the scraper found it. Price and year are kept
// as raw text because classified markup is unreliable; normalization
// happens downstream.
type RawListing struct {
	Title       string `json:"title"`
	ListingURL  string `json:"listing_url"`
	Price       string `json:"price"`
	Year        string `json:"year"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Description string `json:"description"`
	SellerPhone string `json:"seller_phone"`
	DatePosted  string `json:"date_posted"`
	Source      string `json:"source"`
}

// Lead is a normalized listing ready for persistence. Price holds the
// currency-stripped integer as text when parseable and the original text
// otherwise. Year is 0 when unknown.
type Lead struct {
	Title       string `json:"title"`
	Year        int    `json:"year"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Price       string `json:"price"`
	Source      string `json:"source"`
	ListingURL  string `json:"listing_url"`
	Description string `json:"description"`
	SellerPhone string `json:"seller_phone"`
	DatePosted  string `json:"date_posted"`
	ThryvStatus string `json:"thryv_status"`
	ThryvLeadID string `json:"thryv_lead_id"`
}

// StoredLead is a lead read back from the ledger together with the 1-based
// row it occupies. Row 1 is the header, so the first data row is 2.
type StoredLead struct {
	Lead
	RowIndex int
}

// Thryv sync outcomes written to the status column.
const (
	StatusSent        = "Sent to Thryv"
	StatusSyncFailed  = "Error: Failed to send to Thryv"
	StatusAuthFailed  = "Error (Auth Failed)"
	StatusCRMDisabled = "Skipped (Disabled)"
	StatusDryRun      = "Dry Run (Not Sent)"
)
