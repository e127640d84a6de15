// Package ledger provides the durable lead store: a remote sheet-style
// ledger fronted by an availability state machine, with a local JSON
// mirror absorbing writes whenever the remote side is unreachable.
package ledger

import (
	"context"

	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/clock/system"
	"github.com/Shillz96/carfinderai/internal/dedupe"
	"github.com/Shillz96/carfinderai/internal/lead"
	"github.com/Shillz96/carfinderai/internal/metrics"
)

// State describes whether the remote ledger can be used.
type State int

const (
	// StateUninitialized means Init has not run yet.
	StateUninitialized State = iota
	// StateProbing means Init is in flight.
	StateProbing
	// StateUnavailable means there is no network connectivity. Only the
	// local mirror works.
	StateUnavailable
	// StateAvailable means the remote ledger answered and credentials are
	// valid.
	StateAvailable
	// StateDegraded means the service is reachable but credentials were
	// rejected and could not be refreshed.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateProbing:
		return "probing"
	case StateUnavailable:
		return "unavailable"
	case StateAvailable:
		return "available"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Params configures a Durable store.
type Params struct {
	Remote lead.RemoteLedger
	Mirror lead.LocalMirror
	// Online reports network connectivity. Nil means always online.
	Online  func() bool
	Clock   lead.Clock
	Logger  *zap.Logger
	Retry   RetryPolicy
	Metrics *metrics.Metrics
}

// Durable is the ledger façade the rest of the pipeline talks to. Every
// read and write degrades to the local mirror when the remote ledger is
// not Available; only status updates are remote-only.
type Durable struct {
	remote  lead.RemoteLedger
	mirror  lead.LocalMirror
	online  func() bool
	clock   lead.Clock
	logger  *zap.Logger
	retry   RetryPolicy
	metrics *metrics.Metrics

	state State
}

// NewDurable builds a Durable store in the Uninitialized state.
func NewDurable(p Params) *Durable {
	if p.Online == nil {
		p.Online = func() bool { return true }
	}
	if p.Clock == nil {
		p.Clock = system.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Retry.MaxAttempts == 0 {
		p.Retry = NewRetryPolicy(0, 0, p.Logger)
	}
	return &Durable{
		remote:  p.Remote,
		mirror:  p.Mirror,
		online:  p.Online,
		clock:   p.Clock,
		logger:  p.Logger,
		retry:   p.Retry,
		metrics: p.Metrics,
	}
}

// State returns the current availability state.
func (d *Durable) State() State {
	return d.state
}

// Available reports whether remote operations will be attempted.
func (d *Durable) Available() bool {
	return d.state == StateAvailable
}

// Init probes connectivity and the remote ledger, provisioning a fresh
// ledger when none exists. It never returns an error: an unusable remote
// side leaves the store in Unavailable or Degraded and the pipeline
// continues on the local mirror.
func (d *Durable) Init(ctx context.Context) {
	d.state = StateProbing
	if !d.online() {
		d.logger.Warn("no network connectivity, running in local-only mode")
		d.state = StateUnavailable
		return
	}
	if d.remote == nil {
		d.logger.Warn("no remote ledger configured, running in local-only mode")
		d.state = StateUnavailable
		return
	}

	_, err := d.remote.Header(ctx)
	switch {
	case err == nil:
		d.state = StateAvailable
		d.logger.Info("remote ledger is available")

	case lead.IsNotFound(err):
		// No ledger behind the configured identifier. Provision one.
		id, cerr := d.remote.Create(ctx, lead.Header)
		if cerr != nil {
			d.logger.Error("could not provision a new ledger", zap.Error(cerr))
			d.state = StateDegraded
			return
		}
		d.logger.Info("provisioned new ledger", zap.String("sheet_id", id))
		d.state = StateAvailable

	case lead.IsAuthError(err):
		d.logger.Warn("ledger credentials rejected, attempting refresh", zap.Error(err))
		if d.refreshOnce(ctx) {
			d.state = StateAvailable
			return
		}
		d.state = StateDegraded

	default:
		// Transient service trouble at startup. Stay optimistic; every
		// operation falls back to the mirror on its own failure anyway.
		d.logger.Warn("remote ledger probe failed, continuing", zap.Error(err))
		d.state = StateAvailable
	}
}

// Refresh re-checks connectivity and credentials, possibly moving the
// store back to Available. It reports whether the remote side is usable.
func (d *Durable) Refresh(ctx context.Context) bool {
	if d.remote == nil {
		return false
	}
	if !d.online() {
		d.state = StateUnavailable
		return false
	}
	if !d.refreshOnce(ctx) {
		d.state = StateDegraded
		return false
	}
	d.state = StateAvailable
	return true
}

func (d *Durable) refreshOnce(ctx context.Context) bool {
	if err := d.remote.RefreshAuth(ctx); err != nil {
		d.logger.Error("credential refresh failed", zap.Error(err))
		return false
	}
	if _, err := d.remote.Header(ctx); err != nil && lead.IsAuthError(err) {
		d.logger.Error("credentials still rejected after refresh", zap.Error(err))
		return false
	}
	return true
}

// Append persists leads: always to the local mirror first, then to the
// remote ledger when Available. It returns true when the leads are safe
// somewhere, including local-only saves; false only when a remote write
// was attempted and genuinely failed.
func (d *Durable) Append(ctx context.Context, leads []lead.Lead) bool {
	if len(leads) == 0 {
		d.logger.Warn("no leads to append")
		return false
	}

	if d.mirror != nil {
		if err := d.mirror.Append(leads); err != nil {
			d.logger.Error("could not save leads to local mirror", zap.Error(err))
		}
	}

	if !d.Available() {
		d.logger.Warn("remote ledger not available, leads saved locally only",
			zap.Int("count", len(leads)), zap.String("state", d.state.String()))
		d.metrics.LedgerFallback()
		return true
	}

	rows := make([][]string, 0, len(leads))
	now := d.clock.Now()
	for _, l := range leads {
		rows = append(rows, l.Row(now))
	}

	appendRows := func() error {
		return d.retry.Do(ctx, func() error {
			return d.remote.Append(ctx, rows)
		})
	}
	err := appendRows()
	if err != nil && lead.IsAuthError(err) && d.Refresh(ctx) {
		err = appendRows()
	}
	if err != nil {
		d.logger.Error("could not append leads to remote ledger", zap.Error(err))
		return false
	}
	d.logger.Info("appended leads to remote ledger", zap.Int("count", len(leads)))
	return true
}

// GetAll returns every stored lead with its 1-based ledger row index.
// Any remote failure, and an empty remote result, fall back to the local
// mirror.
func (d *Durable) GetAll(ctx context.Context) []lead.StoredLead {
	if !d.Available() {
		return d.fromMirror()
	}

	var values [][]string
	fetch := func() error {
		return d.retry.Do(ctx, func() error {
			var err error
			values, err = d.remote.GetAll(ctx)
			return err
		})
	}
	err := fetch()
	if err != nil && lead.IsAuthError(err) && d.Refresh(ctx) {
		err = fetch()
	}
	if err != nil {
		d.logger.Error("could not read remote ledger, falling back to local mirror", zap.Error(err))
		return d.fromMirror()
	}
	if len(values) == 0 {
		d.logger.Warn("remote ledger is empty, falling back to local mirror")
		return d.fromMirror()
	}

	header := values[0]
	stored := make([]lead.StoredLead, 0, len(values)-1)
	for i, row := range values[1:] {
		stored = append(stored, lead.StoredLead{
			Lead:     lead.FromRow(header, row),
			RowIndex: i + 2,
		})
	}
	return stored
}

func (d *Durable) fromMirror() []lead.StoredLead {
	d.metrics.LedgerFallback()
	if d.mirror == nil {
		return nil
	}
	leads, err := d.mirror.ReadAll()
	if err != nil {
		d.logger.Error("could not read local mirror", zap.Error(err))
		return nil
	}
	stored := make([]lead.StoredLead, 0, len(leads))
	for i, l := range leads {
		// Positional row indices keep the downstream loop uniform; status
		// updates are remote-only and will not fire in this state anyway.
		stored = append(stored, lead.StoredLead{Lead: l, RowIndex: i + 2})
	}
	return stored
}

// UpdateStatus writes the CRM sync status, and the external lead id when
// present, for the given ledger row. This is the one remote-only write:
// the mirror never records status transitions.
func (d *Durable) UpdateStatus(ctx context.Context, rowIndex int, status, externalID string) bool {
	if !d.Available() {
		d.logger.Warn("remote ledger not available, cannot update status",
			zap.Int("row", rowIndex), zap.String("status", status))
		return false
	}

	statusCol := lead.ColumnLetter(lead.DefaultStatusColumn)
	idCol := lead.ColumnLetter(lead.DefaultLeadIDColumn)
	if header, err := d.remote.Header(ctx); err == nil {
		if idx, ok := lead.ColumnIndexOf(header, "thryv_status"); ok {
			statusCol = lead.ColumnLetter(idx)
		}
		if idx, ok := lead.ColumnIndexOf(header, "thryv_lead_id"); ok {
			idCol = lead.ColumnLetter(idx)
		}
	} else {
		d.logger.Warn("could not read header, using default status columns", zap.Error(err))
	}

	write := func() error {
		if err := d.remote.UpdateCell(ctx, rowIndex, statusCol, status); err != nil {
			return err
		}
		if externalID != "" {
			return d.remote.UpdateCell(ctx, rowIndex, idCol, externalID)
		}
		return nil
	}
	err := write()
	if err != nil && lead.IsAuthError(err) && d.Refresh(ctx) {
		err = write()
	}
	if err != nil {
		d.logger.Error("could not update lead status",
			zap.Int("row", rowIndex), zap.String("status", status), zap.Error(err))
		return false
	}
	d.logger.Info("updated lead status",
		zap.Int("row", rowIndex), zap.String("status", status))
	return true
}

// FilterNew drops candidates whose listing URL already appears in the
// remote ledger. When the ledger cannot be read every candidate is kept:
// a duplicate lead is recoverable, a silently dropped one is not.
func (d *Durable) FilterNew(ctx context.Context, candidates []lead.Lead) []lead.Lead {
	if len(candidates) == 0 {
		return nil
	}
	if !d.Available() {
		d.logger.Warn("remote ledger not available, assuming all leads are new",
			zap.Int("count", len(candidates)))
		d.metrics.LedgerFallback()
		return candidates
	}

	var values [][]string
	fetch := func() error {
		return d.retry.Do(ctx, func() error {
			var err error
			values, err = d.remote.GetAll(ctx)
			return err
		})
	}
	err := fetch()
	if err != nil && lead.IsAuthError(err) && d.Refresh(ctx) {
		err = fetch()
	}
	if err != nil {
		d.logger.Error("could not read ledger for duplicate check, assuming all leads are new",
			zap.Error(err))
		return candidates
	}
	return dedupe.Filter(candidates, values, d.logger)
}
