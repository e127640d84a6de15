// Package agent orchestrates one full pipeline run: scrape, clean,
// deduplicate, persist, notify, and sync to the CRM.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/lead"
	"github.com/Shillz96/carfinderai/internal/metrics"
)

// Store is the slice of the durable ledger the agent needs.
type Store interface {
	Append(ctx context.Context, leads []lead.Lead) bool
	GetAll(ctx context.Context) []lead.StoredLead
	UpdateStatus(ctx context.Context, rowIndex int, status, externalID string) bool
	FilterNew(ctx context.Context, candidates []lead.Lead) []lead.Lead
}

// Notifier fans a lead out to the seller and the operator. NotifyOperator
// reports per-channel success; the operator counts as notified when at
// least one channel went through.
type Notifier interface {
	NotifySeller(ctx context.Context, l lead.Lead) string
	NotifyOperator(ctx context.Context, l lead.Lead, sellerSMS string) (emailOK, smsOK bool)
}

// Normalizer cleans raw listings into leads.
type Normalizer interface {
	Clean(listings []lead.RawListing) []lead.Lead
}

// Params wires the agent's collaborators.
type Params struct {
	Scraper    lead.Scraper
	Normalizer Normalizer
	Store      Store
	Notifier   Notifier
	CRM        lead.CRMClient
	CRMEnabled bool
	DryRun     bool
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// Agent runs the lead pipeline end to end.
type Agent struct {
	p Params
}

// Report summarizes one run. NotifyFailures counts leads the operator
// never heard about: both channels failed or none was configured.
type Report struct {
	Scraped        int
	Cleaned        int
	New            int
	Appended       bool
	Processed      int
	Synced         int
	Failures       int
	NotifyFailures int
	DryRun         bool
}

// New builds an Agent.
func New(p Params) *Agent {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &Agent{p: p}
}

// Run executes one pipeline pass. It returns an error only when the run
// could not produce leads at all; per-lead failures are absorbed, logged,
// and counted in the report.
func (a *Agent) Run(ctx context.Context) (Report, error) {
	report := Report{DryRun: a.p.DryRun}

	listings, err := a.p.Scraper.Scrape(ctx)
	if err != nil {
		return report, fmt.Errorf("scrape listings: %w", err)
	}
	report.Scraped = len(listings)
	a.p.Metrics.LeadsScraped(len(listings))

	cleaned := a.p.Normalizer.Clean(listings)
	report.Cleaned = len(cleaned)
	a.p.Metrics.LeadsKept(len(cleaned))
	if len(cleaned) == 0 {
		a.p.Logger.Info("no leads survived cleaning, nothing to do")
		return report, nil
	}

	if a.p.DryRun {
		a.dryRun(ctx, cleaned, &report)
		return report, nil
	}

	fresh := a.p.Store.FilterNew(ctx, cleaned)
	report.New = len(fresh)
	a.p.Metrics.DuplicatesSkipped(len(cleaned) - len(fresh))
	if len(fresh) == 0 {
		a.p.Logger.Info("every scraped lead is already stored")
		return report, nil
	}

	if !a.p.Store.Append(ctx, fresh) {
		// Leads that were never persisted must not be notified or synced;
		// the next run will pick them up again.
		a.p.Logger.Error("could not persist new leads, skipping processing")
		return report, nil
	}
	report.Appended = true
	a.p.Metrics.LeadsAppended(len(fresh))

	crmReady := a.crmReady(ctx)
	for _, stored := range a.pendingLeads(ctx, fresh) {
		a.processLead(ctx, stored, crmReady, &report)
	}

	a.p.Logger.Info("pipeline run finished",
		zap.Int("scraped", report.Scraped),
		zap.Int("new", report.New),
		zap.Int("processed", report.Processed),
		zap.Int("synced", report.Synced),
		zap.Int("failures", report.Failures),
		zap.Int("notify_failures", report.NotifyFailures))
	return report, nil
}

// pendingLeads reads back the stored rows for the freshly appended leads,
// matched by listing URL, keeping only rows that have no sync status yet.
func (a *Agent) pendingLeads(ctx context.Context, fresh []lead.Lead) []lead.StoredLead {
	byURL := make(map[string]struct{}, len(fresh))
	for _, l := range fresh {
		if l.ListingURL != "" {
			byURL[l.ListingURL] = struct{}{}
		}
	}

	var pending []lead.StoredLead
	for _, stored := range a.p.Store.GetAll(ctx) {
		if stored.ThryvStatus != "" {
			continue
		}
		if _, ok := byURL[stored.ListingURL]; ok {
			pending = append(pending, stored)
		}
	}
	return pending
}

// processLead handles one lead: notifications, CRM sync, status write.
// A panic in any collaborator is contained to this lead.
func (a *Agent) processLead(ctx context.Context, stored lead.StoredLead, crmReady bool, report *Report) {
	defer func() {
		if r := recover(); r != nil {
			a.p.Logger.Error("lead processing panicked",
				zap.String("title", stored.Title), zap.Any("panic", r))
			report.Failures++
		}
	}()

	sellerSMS := a.p.Notifier.NotifySeller(ctx, stored.Lead)
	emailOK, smsOK := a.p.Notifier.NotifyOperator(ctx, stored.Lead, sellerSMS)
	if !emailOK && !smsOK {
		a.p.Logger.Warn("operator was not notified on any channel",
			zap.String("title", stored.Title))
		report.NotifyFailures++
	}

	status, externalID := a.syncToCRM(ctx, stored.Lead, crmReady)
	if !a.p.Store.UpdateStatus(ctx, stored.RowIndex, status, externalID) {
		report.Failures++
	}
	report.Processed++
	if status == lead.StatusSent {
		report.Synced++
	}
}

func (a *Agent) crmReady(ctx context.Context) bool {
	if !a.p.CRMEnabled || a.p.CRM == nil {
		return false
	}
	return a.p.CRM.Authenticate(ctx)
}

func (a *Agent) syncToCRM(ctx context.Context, l lead.Lead, crmReady bool) (string, string) {
	switch {
	case !a.p.CRMEnabled || a.p.CRM == nil:
		return lead.StatusCRMDisabled, ""
	case !crmReady:
		a.p.Metrics.CRMSyncObserved("auth_failed")
		return lead.StatusAuthFailed, ""
	}

	ok, result := a.p.CRM.CreateLead(ctx, l)
	if !ok {
		a.p.Logger.Warn("crm rejected lead",
			zap.String("title", l.Title), zap.String("reason", result))
		a.p.Metrics.CRMSyncObserved("failed")
		return lead.StatusSyncFailed, ""
	}
	a.p.Metrics.CRMSyncObserved("sent")
	return lead.StatusSent, result
}

// dryRun walks the cleaned leads through the same per-lead branches as a
// live run, without touching the ledger, the seller, or the CRM. Row
// indices are synthesized so the output mirrors a real run.
func (a *Agent) dryRun(ctx context.Context, cleaned []lead.Lead, report *Report) {
	report.New = len(cleaned)
	for i, l := range cleaned {
		stored := lead.StoredLead{Lead: l, RowIndex: i + 2}
		sellerSMS := a.p.Notifier.NotifySeller(ctx, stored.Lead)
		a.p.Notifier.NotifyOperator(ctx, stored.Lead, sellerSMS)
		a.p.Logger.Info("dry run lead",
			zap.Int("row", stored.RowIndex),
			zap.String("title", stored.Title),
			zap.String("seller_sms", sellerSMS),
			zap.String("status", a.dryRunStatus()))
		report.Processed++
	}
}

// dryRunStatus takes the CRM gate's decision the way a live run would,
// minus the network auth probe. Disabled CRM still shows its real skip
// status in the rehearsal output.
func (a *Agent) dryRunStatus() string {
	if !a.p.CRMEnabled || a.p.CRM == nil {
		return lead.StatusCRMDisabled
	}
	return lead.StatusDryRun
}
