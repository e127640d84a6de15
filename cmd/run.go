package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/agent"
	"github.com/Shillz96/carfinderai/internal/clock/system"
	"github.com/Shillz96/carfinderai/internal/config"
	"github.com/Shillz96/carfinderai/internal/crm"
	"github.com/Shillz96/carfinderai/internal/lead"
	"github.com/Shillz96/carfinderai/internal/ledger"
	"github.com/Shillz96/carfinderai/internal/ledger/localfile"
	"github.com/Shillz96/carfinderai/internal/ledger/sheets"
	"github.com/Shillz96/carfinderai/internal/logging"
	"github.com/Shillz96/carfinderai/internal/messaging"
	"github.com/Shillz96/carfinderai/internal/metrics"
	"github.com/Shillz96/carfinderai/internal/mock"
	"github.com/Shillz96/carfinderai/internal/netcheck"
	"github.com/Shillz96/carfinderai/internal/notify"
	"github.com/Shillz96/carfinderai/internal/scraper/craigslist"
)

var (
	useMocks bool
	dryRun   bool
)

// newRunCmd creates the 'run' subcommand executing one pipeline pass.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scrape-and-notify pass",
		Long: `Scrapes the configured search pages once, stores new leads in the
ledger, sends notifications, and syncs qualified leads to the CRM.
With --mock every external service is replaced by an in-memory fake;
with --dry-run sample listings flow through the pipeline without
touching any external system.`,

		RunE: runCommand,
	}
	cmd.Flags().BoolVar(&useMocks, "mock", false, "replace external services with in-memory fakes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "walk sample listings without side effects")
	return cmd
}

func runCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	a, m := buildAgent(cfg, logger)

	report, err := a.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	m.LogSummary(logger)
	logger.Info("run complete",
		zap.Int("scraped", report.Scraped),
		zap.Int("cleaned", report.Cleaned),
		zap.Int("new", report.New),
		zap.Int("processed", report.Processed),
		zap.Int("synced", report.Synced),
		zap.Int("failures", report.Failures),
		zap.Int("notify_failures", report.NotifyFailures),
		zap.Bool("dry_run", report.DryRun))
	return nil
}

// buildAgent wires the pipeline from configuration. Mock and dry-run
// modes swap the external edges for in-memory services.
func buildAgent(cfg config.Config, logger *zap.Logger) (*agent.Agent, *metrics.Metrics) {
	m := metrics.New()
	clock := system.New()

	var (
		remote     lead.RemoteLedger
		scraper    lead.Scraper
		sms        lead.SMSGateway
		relay      lead.EmailRelay
		crmClient  lead.CRMClient
		online     func() bool
		crmEnabled = cfg.CRM.Enabled
	)

	switch {
	case dryRun:
		scraper = mock.NewScraper()
		online = func() bool { return true }
	case useMocks:
		remote = mock.NewRemoteLedger()
		scraper = mock.NewScraper()
		sms = mock.NewSMSGateway(logger)
		relay = mock.NewEmailRelay(logger)
		crmClient = mock.NewCRMClient(logger)
		crmEnabled = true
		online = func() bool { return true }
	default:
		remote = sheets.New(sheets.Config{
			BaseURL:   cfg.Ledger.BaseURL,
			SheetID:   cfg.Ledger.SheetID,
			Token:     cfg.Ledger.APIToken,
			Timeout:   cfg.LedgerTimeout(),
			Refresher: config.TokenRefresher(cfgFile),
		}, logger)
		scraper = craigslist.New(craigslist.Config{
			SearchURLs: cfg.Scraper.URLs,
			MinYear:    cfg.Scraper.MinVehicleYear,
			UserAgent:  cfg.Scraper.UserAgent,
		}, logger)
		sms = messaging.New(messaging.Config{
			BaseURL:    cfg.SMS.BaseURL,
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			FromNumber: cfg.SMS.FromNumber,
			Timeout:    time.Duration(cfg.SMS.TimeoutSeconds) * time.Second,
		}, logger)
		relay = notify.NewMailRelay(notify.MailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			To:       cfg.Operator.Email,
		}, logger)
		if crmEnabled {
			crmClient = crm.New(crm.Config{
				BaseURL:   cfg.CRM.BaseURL,
				APIKey:    cfg.CRM.APIKey,
				AccountID: cfg.CRM.AccountID,
				Timeout:   time.Duration(cfg.CRM.TimeoutSeconds) * time.Second,
			}, logger)
		}
		online = netcheck.New(logger).Online
	}

	store := ledger.NewDurable(ledger.Params{
		Remote:  remote,
		Mirror:  localfile.New(cfg.Ledger.LocalPath, clock, logger),
		Online:  online,
		Clock:   clock,
		Logger:  logger,
		Retry:   ledger.NewRetryPolicy(cfg.Ledger.RetryAttempts, cfg.RetryDelay(), logger),
		Metrics: m,
	})
	store.Init(context.Background())

	dispatcher := notify.NewDispatcher(notify.Config{
		SMSEnabled:     cfg.Operator.Phone != "",
		EmailEnabled:   cfg.Operator.Email != "",
		OperatorNumber: cfg.Operator.Phone,
		DryRun:         dryRun,
	}, sms, relay, m, logger)

	return agent.New(agent.Params{
		Scraper:    scraper,
		Normalizer: lead.NewNormalizer(cfg.Scraper.MinVehicleYear, logger),
		Store:      store,
		Notifier:   dispatcher,
		CRM:        crmClient,
		CRMEnabled: crmEnabled,
		DryRun:     dryRun,
		Metrics:    m,
		Logger:     logger,
	}), m
}
