// Package metrics exposes pipeline counters on a dedicated Prometheus
// registry. All observation methods are nil-safe so callers never have to
// guard for a disabled metrics bundle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics bundles the pipeline counters.
type Metrics struct {
	registry *prometheus.Registry

	leadsScraped      prometheus.Counter
	leadsKept         prometheus.Counter
	leadsAppended     prometheus.Counter
	duplicatesSkipped prometheus.Counter
	ledgerFallbacks   prometheus.Counter
	notifications     *prometheus.CounterVec
	crmSyncs          *prometheus.CounterVec
}

// New builds a Metrics bundle registered on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		leadsScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carfinder_leads_scraped_total",
			Help: "Raw listings pulled from sources.",
		}),
		leadsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carfinder_leads_kept_total",
			Help: "Listings surviving cleaning and the year floor.",
		}),
		leadsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carfinder_leads_appended_total",
			Help: "Leads written to the ledger.",
		}),
		duplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carfinder_duplicates_skipped_total",
			Help: "Candidates dropped because their URL was already stored.",
		}),
		ledgerFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carfinder_ledger_fallbacks_total",
			Help: "Operations served by the local mirror instead of the remote ledger.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carfinder_notifications_total",
			Help: "Notification attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		crmSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carfinder_crm_syncs_total",
			Help: "CRM lead creation attempts by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.leadsScraped,
		m.leadsKept,
		m.leadsAppended,
		m.duplicatesSkipped,
		m.ledgerFallbacks,
		m.notifications,
		m.crmSyncs,
	)
	return m
}

// Registry returns the underlying registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// LogSummary writes every gathered counter to the log. The agent is a
// one-shot process with no serving surface, so this is how a run's
// metrics leave the binary.
func (m *Metrics) LogSummary(logger *zap.Logger) {
	if m == nil || logger == nil {
		return
	}
	families, err := m.registry.Gather()
	if err != nil {
		logger.Warn("could not gather metrics", zap.Error(err))
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			fields := make([]zap.Field, 0, len(metric.GetLabel())+1)
			for _, label := range metric.GetLabel() {
				fields = append(fields, zap.String(label.GetName(), label.GetValue()))
			}
			fields = append(fields, zap.Float64("value", metric.GetCounter().GetValue()))
			logger.Info(family.GetName(), fields...)
		}
	}
}

// LeadsScraped records raw listings pulled from a source.
func (m *Metrics) LeadsScraped(n int) {
	if m == nil {
		return
	}
	m.leadsScraped.Add(float64(n))
}

// LeadsKept records listings surviving normalization.
func (m *Metrics) LeadsKept(n int) {
	if m == nil {
		return
	}
	m.leadsKept.Add(float64(n))
}

// LeadsAppended records leads persisted to the ledger.
func (m *Metrics) LeadsAppended(n int) {
	if m == nil {
		return
	}
	m.leadsAppended.Add(float64(n))
}

// DuplicatesSkipped records candidates dropped by the duplicate filter.
func (m *Metrics) DuplicatesSkipped(n int) {
	if m == nil {
		return
	}
	m.duplicatesSkipped.Add(float64(n))
}

// LedgerFallback records one operation served by the local mirror.
func (m *Metrics) LedgerFallback() {
	if m == nil {
		return
	}
	m.ledgerFallbacks.Inc()
}

// NotificationObserved records one notification attempt.
func (m *Metrics) NotificationObserved(channel, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

// CRMSyncObserved records one CRM push attempt.
func (m *Metrics) CRMSyncObserved(outcome string) {
	if m == nil {
		return
	}
	m.crmSyncs.WithLabelValues(outcome).Inc()
}
