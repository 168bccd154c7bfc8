// Package store persists issuance records. The in-memory store backs
// tests and dev runs; PostgreSQL is the durable implementation; the Redis
// cache decorates either with read-through lookups.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"vellum/internal/issuance/models"
	"vellum/pkg/platform/sentinel"
)

// Memory keeps issuance records in process memory, preserving insertion
// order so listings stay deterministic.
type Memory struct {
	mu      sync.RWMutex
	records map[string]models.IssuanceRecord
	order   []string
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]models.IssuanceRecord)}
}

// Save persists a record. A duplicate issuance id is a conflict; records
// are never overwritten.
func (m *Memory) Save(_ context.Context, record *models.IssuanceRecord) error {
	if record == nil {
		return fmt.Errorf("issuance record is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[record.IssuanceID]; exists {
		return fmt.Errorf("issuance %s: %w", record.IssuanceID, sentinel.ErrConflict)
	}
	m.records[record.IssuanceID] = *record
	m.order = append(m.order, record.IssuanceID)
	return nil
}

func (m *Memory) FindByID(_ context.Context, issuanceID string) (*models.IssuanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[issuanceID]
	if !ok {
		return nil, fmt.Errorf("issuance %s: %w", issuanceID, sentinel.ErrNotFound)
	}
	return &record, nil
}

// List returns up to limit records skipping offset, newest first, plus the
// total record count.
func (m *Memory) List(_ context.Context, limit, offset int) ([]*models.IssuanceRecord, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := len(m.order)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= total {
		return []*models.IssuanceRecord{}, total, nil
	}

	out := make([]*models.IssuanceRecord, 0, limit)
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		record := m.records[m.order[i]]
		out = append(out, &record)
	}
	return out, total, nil
}

// Search matches the query case-insensitively against recipient name,
// email, and program, newest first.
func (m *Memory) Search(_ context.Context, query string) ([]*models.IssuanceRecord, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.IssuanceRecord
	for i := len(m.order) - 1; i >= 0; i-- {
		record := m.records[m.order[i]]
		if strings.Contains(strings.ToLower(record.Recipient.Name), q) ||
			strings.Contains(strings.ToLower(record.Recipient.Email), q) ||
			strings.Contains(strings.ToLower(record.Recipient.Program), q) {
			out = append(out, &record)
		}
	}
	return out, nil
}

func (m *Memory) Stats(_ context.Context) (models.IssuanceStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := models.IssuanceStats{
		TotalCertificates: len(m.order),
		ByProgram:         make(map[string]int),
	}
	for _, record := range m.records {
		stats.ByProgram[record.Recipient.Program]++
	}
	return stats, nil
}
