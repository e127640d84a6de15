package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shillz96/carfinderai/internal/lead"
	"github.com/Shillz96/carfinderai/internal/ledger"
	"github.com/Shillz96/carfinderai/internal/mock"
	"github.com/Shillz96/carfinderai/internal/notify"
)

type fakeScraper struct {
	listings []lead.RawListing
	err      error
}

func (f *fakeScraper) Scrape(context.Context) ([]lead.RawListing, error) {
	return f.listings, f.err
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// recordingNotifier counts fan-out calls and answers with scripted
// channel outcomes.
type recordingNotifier struct {
	sellerCalls   int
	operatorCalls int
	emailOK       bool
	smsOK         bool
}

func (r *recordingNotifier) NotifySeller(context.Context, lead.Lead) string {
	r.sellerCalls++
	return notify.SellerNoPhone
}

func (r *recordingNotifier) NotifyOperator(context.Context, lead.Lead, string) (bool, bool) {
	r.operatorCalls++
	return r.emailOK, r.smsOK
}

func sampleListings() []lead.RawListing {
	return []lead.RawListing{
		{
			Title:       "2020 Toyota Camry SE - Excellent Condition",
			Year:        "2020",
			Make:        "Toyota",
			Model:       "Camry",
			Price:       "$22,500",
			Source:      "Craigslist",
			ListingURL:  "https://example.org/camry",
			Description: "One owner. Call 808-555-1234.",
			SellerPhone: "808-555-1234",
			DatePosted:  "2026-08-29",
		},
		{
			Title:      "2015 Honda Civic - runs great",
			Year:       "2015",
			Make:       "Honda",
			Model:      "Civic",
			Price:      "$9,000",
			Source:     "Craigslist",
			ListingURL: "https://example.org/civic",
			DatePosted: "2026-08-28",
		},
	}
}

// buildPipeline wires the agent against fully in-memory services.
func buildPipeline(t *testing.T, scraper lead.Scraper, crmEnabled bool) (*Agent, *mock.RemoteLedger, *mock.SMSGateway, *mock.EmailRelay) {
	t.Helper()

	remote := mock.NewRemoteLedger()
	store := ledger.NewDurable(ledger.Params{
		Remote: remote,
		Online: func() bool { return true },
		Clock:  fixedClock{t: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)},
	})
	store.Init(context.Background())
	require.True(t, store.Available())

	sms := mock.NewSMSGateway(nil)
	relay := mock.NewEmailRelay(nil)
	dispatcher := notify.NewDispatcher(notify.Config{
		SMSEnabled:     true,
		EmailEnabled:   true,
		OperatorNumber: "+15559990000",
	}, sms, relay, nil, nil)

	var crm lead.CRMClient
	if crmEnabled {
		crm = mock.NewCRMClient(nil)
	}

	a := New(Params{
		Scraper:    scraper,
		Normalizer: lead.NewNormalizer(2018, nil),
		Store:      store,
		Notifier:   dispatcher,
		CRM:        crm,
		CRMEnabled: crmEnabled,
	})
	return a, remote, sms, relay
}

func TestRunEndToEndWithCRMDisabled(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{listings: sampleListings()}
	a, remote, sms, relay := buildPipeline(t, scraper, false)

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	// The 2015 Civic falls below the year floor.
	assert.Equal(t, 2, report.Scraped)
	assert.Equal(t, 1, report.Cleaned)
	assert.Equal(t, 1, report.New)
	assert.True(t, report.Appended)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Synced)
	assert.Equal(t, 0, report.Failures)

	// The ledger holds the lead with the disabled-CRM status.
	values, err := remote.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 2)
	row := values[1]
	assert.Equal(t, "2020 Toyota Camry SE - Excellent Condition", row[1])
	assert.Equal(t, "22500", row[5])
	assert.Equal(t, lead.StatusCRMDisabled, row[11])
	assert.Empty(t, row[12])

	// The seller got the inquiry, the operator got the summary text.
	sent := sms.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "+18085551234", sent[0].To)
	assert.Contains(t, sent[0].Body, "2020 Toyota Camry")
	assert.Equal(t, "+15559990000", sent[1].To)

	emails := relay.Sent()
	require.Len(t, emails, 1)
	assert.Equal(t, "New Car Lead: 2020 Toyota Camry", emails[0].Subject)
}

func TestRunSyncsToCRM(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{listings: sampleListings()}
	a, remote, _, _ := buildPipeline(t, scraper, true)

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)

	values, err := remote.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, lead.StatusSent, values[1][11])
	assert.Equal(t, "MOCK-TH-1", values[1][12])
}

func TestSellerSMSFailureDoesNotBlockCRMSync(t *testing.T) {
	t.Parallel()

	listings := sampleListings()[:1]
	listings[0].SellerPhone = "123"
	listings[0].Description = "email only please"
	scraper := &fakeScraper{listings: listings}
	a, remote, sms, _ := buildPipeline(t, scraper, true)

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 0, report.Failures)

	values, err := remote.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, lead.StatusSent, values[1][11])

	// The seller never got a text, only the operator summary went out.
	sent := sms.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "+15559990000", sent[0].To)
}

func TestRunSkipsAlreadyStoredLeads(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{listings: sampleListings()}
	a, _, sms, _ := buildPipeline(t, scraper, false)

	_, err := a.Run(context.Background())
	require.NoError(t, err)
	firstRun := len(sms.Sent())

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.New)
	assert.Equal(t, 0, report.Processed)
	// No new messages on the second pass.
	assert.Len(t, sms.Sent(), firstRun)
}

func TestRunScrapeFailure(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{err: errors.New("all search pages failed")}
	a, _, _, _ := buildPipeline(t, scraper, false)

	_, err := a.Run(context.Background())
	assert.Error(t, err)
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	t.Parallel()

	remote := mock.NewRemoteLedger()
	store := ledger.NewDurable(ledger.Params{
		Remote: remote,
		Online: func() bool { return true },
	})
	store.Init(context.Background())

	sms := mock.NewSMSGateway(nil)
	dispatcher := notify.NewDispatcher(notify.Config{DryRun: true}, sms, nil, nil, nil)

	a := New(Params{
		Scraper:    mock.NewScraper(),
		Normalizer: lead.NewNormalizer(2018, nil),
		Store:      store,
		Notifier:   dispatcher,
		DryRun:     true,
	})

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Processed)
	assert.False(t, report.Appended)

	// Nothing was written or sent.
	values, err := remote.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, values, 1)
	assert.Empty(t, sms.Sent())
}

func TestDryRunTakesOperatorAndCRMBranches(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{emailOK: true, smsOK: true}
	a := New(Params{
		Scraper:    &fakeScraper{listings: sampleListings()[:1]},
		Normalizer: lead.NewNormalizer(2018, nil),
		Notifier:   notifier,
		DryRun:     true,
	})

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)

	// The rehearsal walks the same per-lead fan-out as a live run.
	assert.Equal(t, 1, notifier.sellerCalls)
	assert.Equal(t, 1, notifier.operatorCalls)

	// The CRM gate resolves to its real skip decision, not a blanket
	// dry-run status.
	assert.Equal(t, lead.StatusCRMDisabled, a.dryRunStatus())

	enabled := New(Params{CRM: mock.NewCRMClient(nil), CRMEnabled: true})
	assert.Equal(t, lead.StatusDryRun, enabled.dryRunStatus())
}

func TestRunCountsOperatorNotificationFailures(t *testing.T) {
	t.Parallel()

	store := ledger.NewDurable(ledger.Params{
		Remote: mock.NewRemoteLedger(),
		Online: func() bool { return true },
		Clock:  fixedClock{t: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)},
	})
	store.Init(context.Background())

	// Both operator channels report failure.
	notifier := &recordingNotifier{}
	a := New(Params{
		Scraper:    &fakeScraper{listings: sampleListings()[:1]},
		Normalizer: lead.NewNormalizer(2018, nil),
		Store:      store,
		Notifier:   notifier,
	})

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.operatorCalls)
	assert.Equal(t, 1, report.NotifyFailures)
	// An unreachable operator never aborts the lead.
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Failures)
}
