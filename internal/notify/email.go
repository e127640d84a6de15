package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// MailConfig captures the SMTP relay parameters.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// MailRelay delivers HTML email over authenticated SMTP with mandatory
// STARTTLS. It implements lead.EmailRelay.
type MailRelay struct {
	cfg    MailConfig
	logger *zap.Logger
}

// NewMailRelay builds a MailRelay.
func NewMailRelay(cfg MailConfig, logger *zap.Logger) *MailRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailRelay{cfg: cfg, logger: logger}
}

// Send delivers one HTML email to the configured operator address.
func (r *MailRelay) Send(ctx context.Context, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(r.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(r.cfg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(r.cfg.Host,
		mail.WithPort(r.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(r.cfg.Username),
		mail.WithPassword(r.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("build smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	r.logger.Info("email sent", zap.String("subject", subject), zap.String("to", r.cfg.To))
	return nil
}
