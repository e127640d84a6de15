// Package localfile implements the append-only local mirror of the ledger
// as a JSON array rewritten wholesale on every append.
package localfile

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/lead"
)

// record is a mirrored lead augmented with a locally generated identifier
// and the capture timestamp.
type record struct {
	lead.Lead
	LocalID     string `json:"_local_id"`
	DateScraped string `json:"date_scraped"`
}

// Mirror persists leads to a local JSON file. It only mirrors the append
// path; status updates against the remote ledger never reach it.
type Mirror struct {
	path   string
	clock  lead.Clock
	logger *zap.Logger
	mu     sync.Mutex
}

// New builds a Mirror writing to path.
func New(path string, clock lead.Clock, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{path: path, clock: clock, logger: logger}
}

// Append reads the current mirror contents, adds the new leads with local
// identifiers, and rewrites the whole file.
func (m *Mirror) Append(leads []lead.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.readRecords()
	now := m.clock.Now().Format("2006-01-02 15:04:05")
	for _, l := range leads {
		existing = append(existing, record{
			Lead:        l,
			LocalID:     uuid.NewString(),
			DateScraped: now,
		})
	}

	encoded, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}
	if err := os.WriteFile(m.path, encoded, 0o600); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	m.logger.Info("saved leads to local mirror",
		zap.Int("count", len(leads)), zap.String("path", m.path))
	return nil
}

// ReadAll returns every mirrored lead.
func (m *Mirror) ReadAll() ([]lead.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.readRecords()
	leads := make([]lead.Lead, 0, len(records))
	for _, r := range records {
		leads = append(leads, r.Lead)
	}
	return leads, nil
}

// readRecords tolerates a missing or corrupt file: a mirror that cannot be
// read starts fresh rather than blocking ingestion.
func (m *Mirror) readRecords() []record {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("could not read local mirror", zap.Error(err))
		}
		return nil
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		m.logger.Error("local mirror is corrupt, starting fresh", zap.Error(err))
		return nil
	}
	return records
}
