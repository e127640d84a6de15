package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/lead"
)

// Config captures the SMS provider account parameters.
type Config struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	FromNumber string
	Timeout    time.Duration
}

// Client sends SMS through the provider's REST API. It implements
// lead.SMSGateway.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a Client. A nil logger falls back to zap.NewNop.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
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

type messageResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

// Send delivers one text message and returns the provider's message SID.
func (c *Client) Send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", c.cfg.FromNumber)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.cfg.BaseURL, c.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("read sms response: %w", err)
	}

	var decoded messageResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(raw)
		if json.Unmarshal(raw, &decoded) == nil && decoded.Message != "" {
			msg = decoded.Message
		}
		return "", &lead.RemoteError{StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode sms response: %w", err)
	}

	c.logger.Info("sms sent", zap.String("to", to), zap.String("sid", decoded.SID))
	return decoded.SID, nil
}
