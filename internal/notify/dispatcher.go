// Package notify fans a freshly stored lead out to the seller (SMS
// inquiry) and the operator (email summary plus a one-line text).
// Notification failures are reported, never fatal: a lead that could not
// be announced still moves through the pipeline.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/lead"
	"github.com/Shillz96/carfinderai/internal/messaging"
	"github.com/Shillz96/carfinderai/internal/metrics"
)

// Seller SMS outcomes recorded in the operator notification.
const (
	SellerNoPhone = "No Phone Number"
	SellerSent    = "Sent Successfully"
	SellerFailed  = "Failed to Send"
	SellerDryRun  = "Would Send (Dry Run)"

	sellerSMSOff = "Disabled"

	channelSMS   = "sms"
	channelEmail = "email"

	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

var operatorEmailTmpl = template.Must(template.New("operator").Parse(`<html>
<body>
<h2>New Car Lead Found</h2>
<table border="1" cellpadding="5" cellspacing="0">
<tr><td><b>Title</b></td><td>{{.Lead.Title}}</td></tr>
<tr><td><b>Year</b></td><td>{{if .Lead.Year}}{{.Lead.Year}}{{else}}Unknown{{end}}</td></tr>
<tr><td><b>Make</b></td><td>{{.Lead.Make}}</td></tr>
<tr><td><b>Model</b></td><td>{{.Lead.Model}}</td></tr>
<tr><td><b>Price</b></td><td>{{.Lead.Price}}</td></tr>
<tr><td><b>Source</b></td><td>{{.Lead.Source}}</td></tr>
<tr><td><b>Listing URL</b></td><td><a href="{{.Lead.ListingURL}}">{{.Lead.ListingURL}}</a></td></tr>
<tr><td><b>Description</b></td><td>{{.Lead.Description}}</td></tr>
<tr><td><b>Seller Phone</b></td><td>{{.Lead.SellerPhone}}</td></tr>
<tr><td><b>Date Posted</b></td><td>{{.Lead.DatePosted}}</td></tr>
<tr><td><b>Seller SMS</b></td><td>{{.SellerSMS}}</td></tr>
</table>
</body>
</html>`))

// Config controls which operator channels fire.
type Config struct {
	SMSEnabled     bool
	EmailEnabled   bool
	OperatorNumber string
	DryRun         bool
}

// Dispatcher sends all per-lead notifications.
type Dispatcher struct {
	cfg     Config
	sms     lead.SMSGateway
	email   lead.EmailRelay
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDispatcher builds a Dispatcher. Nil gateways disable their channel.
func NewDispatcher(cfg Config, sms lead.SMSGateway, email lead.EmailRelay,
	m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{cfg: cfg, sms: sms, email: email, metrics: m, logger: logger}
}

// NotifySeller texts the inquiry to the seller when the lead carries a
// phone number. It returns the outcome string recorded in the operator
// email.
func (d *Dispatcher) NotifySeller(ctx context.Context, l lead.Lead) string {
	phone := messaging.NormalizePhone(l.SellerPhone)
	if phone == "" {
		var found bool
		phone, found = messaging.ExtractPhone(l.Description)
		if !found {
			d.logger.Info("lead has no usable seller phone", zap.String("title", l.Title))
			d.metrics.NotificationObserved(channelSMS, outcomeSkipped)
			return SellerNoPhone
		}
	}

	if d.cfg.DryRun {
		d.logger.Info("dry run, would text seller",
			zap.String("to", phone), zap.String("title", l.Title))
		return SellerDryRun
	}
	if d.sms == nil {
		d.metrics.NotificationObserved(channelSMS, outcomeSkipped)
		return sellerSMSOff
	}

	sid, err := d.sms.Send(ctx, phone, messaging.InquiryMessage(l))
	if err != nil {
		d.logger.Error("could not text seller",
			zap.String("to", phone), zap.Error(err))
		d.metrics.NotificationObserved(channelSMS, outcomeFailed)
		return SellerFailed
	}
	d.logger.Info("texted seller",
		zap.String("to", phone), zap.String("sid", sid))
	d.metrics.NotificationObserved(channelSMS, outcomeSent)
	return SellerSent
}

// NotifyOperator emails the full lead summary and texts a one-liner to
// the operator. The two channels fail independently; the returns report
// per-channel success so the caller can tell whether anyone was told
// about the lead. In dry-run mode the returns reflect which channels
// would have been attempted.
func (d *Dispatcher) NotifyOperator(ctx context.Context, l lead.Lead, sellerSMS string) (emailOK, smsOK bool) {
	emailActive := d.cfg.EmailEnabled && d.email != nil
	smsActive := d.cfg.SMSEnabled && d.sms != nil && d.cfg.OperatorNumber != ""

	if d.cfg.DryRun {
		d.logger.Info("dry run, would notify operator",
			zap.String("title", l.Title),
			zap.Bool("email", emailActive), zap.Bool("sms", smsActive))
		return emailActive, smsActive
	}

	if emailActive {
		subject := fmt.Sprintf("New Car Lead: %s %s %s", yearLabel(l), l.Make, l.Model)
		body, err := renderOperatorEmail(l, sellerSMS)
		if err != nil {
			d.logger.Error("could not render operator email", zap.Error(err))
		} else if err := d.email.Send(ctx, subject, body); err != nil {
			d.logger.Error("could not email operator", zap.Error(err))
			d.metrics.NotificationObserved(channelEmail, outcomeFailed)
		} else {
			d.metrics.NotificationObserved(channelEmail, outcomeSent)
			emailOK = true
		}
	}

	if smsActive {
		summary := fmt.Sprintf("New lead: %s %s %s, %s. %s",
			yearLabel(l), l.Make, l.Model, priceLabel(l), l.ListingURL)
		if _, err := d.sms.Send(ctx, d.cfg.OperatorNumber, summary); err != nil {
			d.logger.Error("could not text operator", zap.Error(err))
			d.metrics.NotificationObserved(channelSMS, outcomeFailed)
		} else {
			d.metrics.NotificationObserved(channelSMS, outcomeSent)
			smsOK = true
		}
	}
	return emailOK, smsOK
}

func renderOperatorEmail(l lead.Lead, sellerSMS string) (string, error) {
	var buf bytes.Buffer
	err := operatorEmailTmpl.Execute(&buf, struct {
		Lead      lead.Lead
		SellerSMS string
	}{Lead: l, SellerSMS: sellerSMS})
	if err != nil {
		return "", fmt.Errorf("render operator email: %w", err)
	}
	return buf.String(), nil
}

func yearLabel(l lead.Lead) string {
	if l.Year == 0 {
		return "?"
	}
	return fmt.Sprintf("%d", l.Year)
}

func priceLabel(l lead.Lead) string {
	if l.Price == "" {
		return "price unknown"
	}
	return "$" + l.Price
}
