// Package sheets implements the remote ledger over the spreadsheet REST
// API: full-range reads, row appends, and single-cell updates addressed by
// 1-based row number and letter column.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/lead"
)

// DefaultTab is the sheet tab holding the lead table.
const DefaultTab = "Leads"

// Config captures the parameters for the remote ledger client.
type Config struct {
	BaseURL string
	SheetID string
	Token   string
	Tab     string
	Timeout time.Duration
	// Refresher exchanges expired credentials for a fresh token. Left nil,
	// RefreshAuth fails and the caller falls back to the local mirror.
	Refresher func(ctx context.Context) (string, error)
}

// Client talks to the spreadsheet values API. It implements
// lead.RemoteLedger.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger

	mu      sync.Mutex
	token   string
	sheetID string
}

// New builds a Client. A nil logger falls back to zap.NewNop.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Tab == "" {
		cfg.Tab = DefaultTab
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		token:   cfg.Token,
		sheetID: cfg.SheetID,
	}
}

// SheetID returns the ledger identifier currently in use. It changes when
// Create provisions a fresh ledger.
func (c *Client) SheetID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sheetID
}

// Configured reports whether a ledger identifier is set.
func (c *Client) Configured() bool {
	return c.SheetID() != ""
}

type valuesResponse struct {
	Values [][]string `json:"values"`
}

type valuesRequest struct {
	Values [][]string `json:"values"`
}

// GetAll returns the full lead range, header row included.
func (c *Client) GetAll(ctx context.Context) ([][]string, error) {
	body, err := c.do(ctx, http.MethodGet, c.valuesURL(c.readRange(), ""), nil)
	if err != nil {
		return nil, fmt.Errorf("get ledger values: %w", err)
	}
	var resp valuesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode ledger values: %w", err)
	}
	return resp.Values, nil
}

// Header returns just the header row.
func (c *Client) Header(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, c.valuesURL(c.cfg.Tab+"!1:1", ""), nil)
	if err != nil {
		return nil, fmt.Errorf("get ledger header: %w", err)
	}
	var resp valuesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode ledger header: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return resp.Values[0], nil
}

// Append inserts rows at the end of the lead table.
func (c *Client) Append(ctx context.Context, rows [][]string) error {
	endpoint := c.valuesURL(c.readRange()+":append",
		"valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS")
	if _, err := c.do(ctx, http.MethodPost, endpoint, valuesRequest{Values: rows}); err != nil {
		return fmt.Errorf("append ledger rows: %w", err)
	}
	return nil
}

// UpdateCell writes a single cell addressed by row index and letter column.
func (c *Client) UpdateCell(ctx context.Context, rowIndex int, column, value string) error {
	cell := fmt.Sprintf("%s!%s%d", c.cfg.Tab, column, rowIndex)
	endpoint := c.valuesURL(cell, "valueInputOption=USER_ENTERED")
	if _, err := c.do(ctx, http.MethodPut, endpoint, valuesRequest{Values: [][]string{{value}}}); err != nil {
		return fmt.Errorf("update ledger cell %s: %w", cell, err)
	}
	return nil
}

type createRequest struct {
	Properties struct {
		Title string `json:"title"`
	} `json:"properties"`
}

type createResponse struct {
	SpreadsheetID string `json:"spreadsheetId"`
}

// Create provisions a brand-new ledger with the given header row, renames
// the default tab, and switches the client over to the new identifier.
func (c *Client) Create(ctx context.Context, header []string) (string, error) {
	var req createRequest
	req.Properties.Title = fmt.Sprintf("Car Finder AI Leads - %s", time.Now().Format("2006-01-02 15:04:05"))

	body, err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/spreadsheets", req)
	if err != nil {
		return "", fmt.Errorf("create ledger: %w", err)
	}
	var resp createResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	if resp.SpreadsheetID == "" {
		return "", fmt.Errorf("create ledger: empty spreadsheet id")
	}

	c.mu.Lock()
	c.sheetID = resp.SpreadsheetID
	c.mu.Unlock()

	// The fresh ledger ships with a default "Sheet1" tab; rename it before
	// touching ranges addressed by tab name.
	if err := c.renameFirstTab(ctx); err != nil {
		return "", err
	}

	headerRange := fmt.Sprintf("%s!A1", c.cfg.Tab)
	endpoint := c.valuesURL(headerRange, "valueInputOption=USER_ENTERED")
	if _, err := c.do(ctx, http.MethodPut, endpoint, valuesRequest{Values: [][]string{header}}); err != nil {
		return "", fmt.Errorf("write header row: %w", err)
	}

	c.logger.Info("created new ledger", zap.String("sheet_id", resp.SpreadsheetID))
	return resp.SpreadsheetID, nil
}

func (c *Client) renameFirstTab(ctx context.Context) error {
	payload := map[string]any{
		"requests": []map[string]any{{
			"updateSheetProperties": map[string]any{
				"properties": map[string]any{"sheetId": 0, "title": c.cfg.Tab},
				"fields":     "title",
			},
		}},
	}
	endpoint := fmt.Sprintf("%s/spreadsheets/%s:batchUpdate", c.cfg.BaseURL, c.SheetID())
	if _, err := c.do(ctx, http.MethodPost, endpoint, payload); err != nil {
		return fmt.Errorf("rename ledger tab: %w", err)
	}
	return nil
}

// RefreshAuth swaps in a fresh token via the configured refresher.
func (c *Client) RefreshAuth(ctx context.Context) error {
	if c.cfg.Refresher == nil {
		return fmt.Errorf("no credential refresher configured")
	}
	token, err := c.cfg.Refresher(ctx)
	if err != nil {
		return fmt.Errorf("refresh credentials: %w", err)
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.logger.Info("refreshed ledger credentials")
	return nil
}

func (c *Client) readRange() string {
	return c.cfg.Tab + "!A:M"
}

func (c *Client) valuesURL(valueRange, query string) string {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s",
		c.cfg.BaseURL, c.SheetID(), url.PathEscape(valueRange))
	if query != "" {
		endpoint += "?" + query
	}
	return endpoint
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &lead.RemoteError{StatusCode: resp.StatusCode, Message: truncate(string(body), 256)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
