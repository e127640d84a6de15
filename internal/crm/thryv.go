// Package crm pushes qualified leads into the Thryv CRM. Both operations
// absorb their own failures: the pipeline records the outcome in the
// ledger instead of aborting.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/lead"
)

// Config captures the CRM account parameters.
type Config struct {
	BaseURL   string
	APIKey    string
	AccountID string
	Timeout   time.Duration
}

// Client talks to the CRM REST API. It implements lead.CRMClient.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a Client. A nil logger falls back to zap.NewNop.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Authenticate probes the account endpoint to verify credentials. It
// never returns an error; an unreachable or rejecting CRM just reports
// false and the run marks leads accordingly.
func (c *Client) Authenticate(ctx context.Context) bool {
	endpoint := fmt.Sprintf("%s/accounts/%s", c.cfg.BaseURL, c.cfg.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Error("could not build crm auth request", zap.Error(err))
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("crm auth probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("crm rejected credentials", zap.Int("status", resp.StatusCode))
		return false
	}
	c.logger.Info("crm authentication succeeded")
	return true
}

type leadPayload struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Source       string            `json:"source"`
	CustomFields map[string]string `json:"customFields"`
	Contact      *contactPayload   `json:"contact,omitempty"`
}

type contactPayload struct {
	Phone string `json:"phone"`
}

type createLeadResponse struct {
	ID     string `json:"id"`
	LeadID string `json:"lead_id"`
}

// MapLead shapes a lead into the CRM payload. The contact block is only
// attached when a phone number is present; the API rejects empty contact
// records.
func MapLead(l lead.Lead) any {
	title := fmt.Sprintf("Used Car Lead - %s %s %s", yearString(l), l.Make, l.Model)

	var desc strings.Builder
	fmt.Fprintf(&desc, "Listing: %s\n", l.Title)
	fmt.Fprintf(&desc, "Price: %s\n", l.Price)
	fmt.Fprintf(&desc, "URL: %s\n", l.ListingURL)
	if l.Description != "" {
		fmt.Fprintf(&desc, "Details: %s\n", l.Description)
	}

	payload := leadPayload{
		Title:       title,
		Description: desc.String(),
		Source:      l.Source,
		CustomFields: map[string]string{
			"year":        yearString(l),
			"make":        l.Make,
			"model":       l.Model,
			"price":       l.Price,
			"listing_url": l.ListingURL,
			"date_posted": l.DatePosted,
		},
	}
	if l.SellerPhone != "" {
		payload.Contact = &contactPayload{Phone: l.SellerPhone}
	}
	return payload
}

// CreateLead posts one lead to the CRM. On success it returns (true,
// external id); on failure (false, human-readable reason). It never
// returns an error.
func (c *Client) CreateLead(ctx context.Context, l lead.Lead) (bool, string) {
	encoded, err := json.Marshal(MapLead(l))
	if err != nil {
		return false, fmt.Sprintf("encode lead: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/leads", bytes.NewReader(encoded))
	if err != nil {
		return false, fmt.Sprintf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("crm lead creation failed", zap.Error(err))
		return false, err.Error()
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return false, fmt.Sprintf("read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		reason := fmt.Sprintf("%d - %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		c.logger.Warn("crm rejected lead",
			zap.String("title", l.Title), zap.String("reason", reason))
		return false, reason
	}

	var decoded createLeadResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return false, fmt.Sprintf("decode response: %v", err)
	}
	id := decoded.ID
	if id == "" {
		id = decoded.LeadID
	}
	c.logger.Info("created crm lead",
		zap.String("title", l.Title), zap.String("lead_id", id))
	return true, id
}

func yearString(l lead.Lead) string {
	if l.Year == 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%d", l.Year)
}
