// Package service orchestrates bulk certificate issuance: it validates
// decoded input rows, drives the render/store/persist/notify pipeline per
// recipient with per-recipient failure isolation, and assembles the
// aggregate batch report.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vellum/internal/audit"
	"vellum/internal/issuance/models"
	"vellum/internal/notify"
	"vellum/internal/platform/metrics"
	"vellum/internal/render"
	dErrors "vellum/pkg/domain-errors"
	"vellum/pkg/platform/sentinel"
)

// RecordStore persists and queries issuance records. Uniqueness of the
// issuance id is enforced here; a duplicate save surfaces as a conflict.
type RecordStore interface {
	Save(ctx context.Context, record *models.IssuanceRecord) error
	FindByID(ctx context.Context, issuanceID string) (*models.IssuanceRecord, error)
	List(ctx context.Context, limit, offset int) ([]*models.IssuanceRecord, int, error)
	Search(ctx context.Context, query string) ([]*models.IssuanceRecord, error)
	Stats(ctx context.Context) (models.IssuanceStats, error)
}

// Renderer produces the certificate artifact bytes for one recipient.
type Renderer interface {
	Render(cert render.Certificate) ([]byte, error)
	ContentType() string
}

// ArtifactStore uploads rendered bytes under the issuance id and returns
// the durable retrieval URL. Re-uploading the same id overwrites.
type ArtifactStore interface {
	Upload(ctx context.Context, issuanceID string, data []byte, contentType string) (string, error)
}

// Notifier delivers the issuance message to the recipient's address.
type Notifier interface {
	Send(ctx context.Context, n notify.Notification) error
}

// AuditPublisher records issuance lifecycle events. Emission never blocks
// and never fails the pipeline.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service drives the issuance pipeline and the record query surface.
type Service struct {
	records   RecordStore
	renderer  Renderer
	artifacts ArtifactStore
	notifier  Notifier

	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	concurrency    int
	now            func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithConcurrency bounds how many recipients are processed in parallel.
// 1 keeps the pipeline strictly sequential in input order.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides the issuance timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs the issuance service around its four collaborators.
func New(records RecordStore, renderer Renderer, artifacts ArtifactStore, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		records:     records,
		renderer:    renderer,
		artifacts:   artifacts,
		notifier:    notifier,
		logger:      slog.Default(),
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns one issuance record by id.
func (s *Service) Get(ctx context.Context, issuanceID string) (*models.IssuanceRecord, error) {
	issuanceID = strings.TrimSpace(issuanceID)
	if issuanceID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "issuance id is required")
	}

	record, err := s.records.FindByID(ctx, issuanceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}
	return record, nil
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// List returns a newest-first page of issuance records plus the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.IssuanceRecord, int, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := s.records.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list certificates")
	}
	return records, total, nil
}

// Search returns records whose name, email, or program contains the query.
func (s *Service) Search(ctx context.Context, query string) ([]*models.IssuanceRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "search query is required")
	}

	records, err := s.records.Search(ctx, query)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search certificates")
	}
	return records, nil
}

// Stats summarizes issued certificates for the admin surface.
func (s *Service) Stats(ctx context.Context) (models.IssuanceStats, error) {
	stats, err := s.records.Stats(ctx)
	if err != nil {
		return models.IssuanceStats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuance stats")
	}
	return stats, nil
}
