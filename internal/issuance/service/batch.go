package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vellum/internal/audit"
	"vellum/internal/issuance/models"
	"vellum/internal/notify"
	"vellum/internal/render"
	"vellum/internal/tabular"
	dErrors "vellum/pkg/domain-errors"
	"vellum/pkg/platform/sentinel"
	"vellum/pkg/requestcontext"
)

var tracer = otel.Tracer("vellum/issuance")

// outcome is one valid recipient's terminal pipeline state. Exactly one
// field is set, so every recipient lands in the report exactly once.
type outcome struct {
	issued *models.IssuedCertificate
	failed *models.FailedRecipient
}

// ProcessBatch runs the issuance pipeline over decoded input rows and
// returns the aggregate report. Failures are recipient-scoped: one bad
// row or one failed pipeline pass never aborts the batch, so the report
// is always complete and every input row is accounted for.
//
// Recipients are processed in input order. With concurrency above 1 the
// passes run in parallel under a bounded group, but each recipient writes
// only its own result slot, so the succeeded and failed lists keep input
// order regardless.
func (s *Service) ProcessBatch(ctx context.Context, rows []tabular.Row) *models.BatchReport {
	batchID := uuid.NewString()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "issuance.batch", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.Int("batch.total_rows", len(rows)),
	))
	defer span.End()

	s.emitAudit(ctx, audit.Event{
		Action:  audit.ActionBatchReceived,
		BatchID: batchID,
		Reason:  fmt.Sprintf("%d rows", len(rows)),
	})

	report := &models.BatchReport{
		BatchID:     batchID,
		TotalRows:   len(rows),
		InvalidRows: []models.RowError{},
		Succeeded:   []models.IssuedCertificate{},
		Failed:      []models.FailedRecipient{},
	}

	recipients := make([]models.Recipient, 0, len(rows))
	for _, row := range rows {
		recipient, err := models.ValidateRow(row)
		if err != nil {
			report.InvalidRows = append(report.InvalidRows, models.RowError{
				Row:    row,
				Reason: dErrors.Message(err),
			})
			continue
		}
		recipients = append(recipients, recipient)
	}
	report.ValidRows = len(recipients)
	s.metrics.AddRowsRejected(len(report.InvalidRows))

	outcomes := make([]outcome, len(recipients))
	if s.concurrency > 1 {
		var g errgroup.Group
		g.SetLimit(s.concurrency)
		for i, recipient := range recipients {
			g.Go(func() error {
				outcomes[i] = s.issueOne(ctx, batchID, recipient)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, recipient := range recipients {
			outcomes[i] = s.issueOne(ctx, batchID, recipient)
		}
	}

	for _, o := range outcomes {
		switch {
		case o.issued != nil:
			report.Succeeded = append(report.Succeeded, *o.issued)
		case o.failed != nil:
			report.Failed = append(report.Failed, *o.failed)
		}
	}

	s.metrics.IncBatchesProcessed()
	s.metrics.ObserveBatchDuration(time.Since(start))
	span.SetAttributes(
		attribute.Int("batch.issued", report.IssuedCount()),
		attribute.Int("batch.failed", report.FailedCount()),
		attribute.Int("batch.invalid_rows", len(report.InvalidRows)),
	)

	s.logger.InfoContext(ctx, "batch processed",
		"batch_id", batchID,
		"total_rows", report.TotalRows,
		"valid_rows", report.ValidRows,
		"issued", report.IssuedCount(),
		"failed", report.FailedCount(),
		"invalid_rows", len(report.InvalidRows),
		"duration", time.Since(start),
	)
	s.emitAudit(ctx, audit.Event{
		Action:  audit.ActionBatchCompleted,
		BatchID: batchID,
		Reason:  fmt.Sprintf("issued %d, failed %d of %d valid rows", report.IssuedCount(), report.FailedCount(), report.ValidRows),
	})

	return report
}

// issueOne runs the render, store, persist, notify sequence for one
// recipient. The issuance id and timestamp are fixed before any side
// effect; a failure at any gate terminates only this pass.
func (s *Service) issueOne(ctx context.Context, batchID string, recipient models.Recipient) outcome {
	issuanceID := uuid.NewString()
	issuedAt := s.now().UTC()

	ctx, span := tracer.Start(ctx, "issuance.recipient", trace.WithAttributes(
		attribute.String("issuance.id", issuanceID),
		attribute.String("issuance.program", recipient.Program),
	))
	defer span.End()

	renderStart := time.Now()
	data, err := s.renderer.Render(render.Certificate{
		IssuanceID: issuanceID,
		Name:       recipient.Name,
		Program:    recipient.Program,
		IssuedAt:   issuedAt,
	})
	s.metrics.ObserveRenderDuration(time.Since(renderStart))
	if err != nil {
		return s.failRecipient(ctx, batchID, issuanceID, recipient, models.StageRender, "certificate rendering failed", err)
	}

	artifactURL, err := s.artifacts.Upload(ctx, issuanceID, data, s.renderer.ContentType())
	if err != nil {
		// No record is persisted and no notification goes out for an
		// unreachable artifact.
		return s.failRecipient(ctx, batchID, issuanceID, recipient, models.StageStore, storeReason(err), err)
	}

	record := &models.IssuanceRecord{
		IssuanceID:  issuanceID,
		Recipient:   recipient,
		IssuedAt:    issuedAt,
		ArtifactURL: artifactURL,
		ContentType: s.renderer.ContentType(),
	}
	if err := s.records.Save(ctx, record); err != nil {
		// The uploaded artifact stays in place: orphaned, not corrupting.
		return s.failRecipient(ctx, batchID, issuanceID, recipient, models.StagePersist, persistReason(err), err)
	}

	s.metrics.IncCertificatesIssued()
	s.emitAudit(ctx, audit.Event{
		Action:     audit.ActionCertificateIssued,
		BatchID:    batchID,
		IssuanceID: issuanceID,
		Recipient:  recipient.Email,
	})

	// Issuance is complete once persisted. A failed notification is
	// logged and counted but never demotes the recipient.
	if err := s.notifier.Send(ctx, notify.Notification{
		Email:      recipient.Email,
		Name:       recipient.Name,
		Program:    recipient.Program,
		IssuanceID: issuanceID,
	}); err != nil {
		s.metrics.IncNotificationsFailed()
		s.logger.WarnContext(ctx, "notification failed after issuance",
			"batch_id", batchID,
			"issuance_id", issuanceID,
			"recipient", recipient.Email,
			"error", err,
		)
	}

	return outcome{issued: &models.IssuedCertificate{
		Recipient:   recipient,
		IssuanceID:  issuanceID,
		ArtifactURL: artifactURL,
	}}
}

func (s *Service) failRecipient(ctx context.Context, batchID, issuanceID string, recipient models.Recipient, stage models.Stage, reason string, err error) outcome {
	s.metrics.IncCertificatesFailed(string(stage))
	s.logger.ErrorContext(ctx, "issuance pass failed",
		"batch_id", batchID,
		"issuance_id", issuanceID,
		"recipient", recipient.Email,
		"stage", stage,
		"error", err,
	)
	s.emitAudit(ctx, audit.Event{
		Action:     audit.ActionCertificateFailed,
		BatchID:    batchID,
		IssuanceID: issuanceID,
		Recipient:  recipient.Email,
		Stage:      string(stage),
		Reason:     reason,
	})
	return outcome{failed: &models.FailedRecipient{
		Recipient: recipient,
		Stage:     stage,
		Reason:    reason,
	}}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.Actor = requestcontext.Operator(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	s.auditPublisher.Emit(ctx, event)
}

// storeReason maps an upload failure to the operator-facing reason. The
// cause classes come from the artifact store's sentinel wrapping.
func storeReason(err error) string {
	switch {
	case errors.Is(err, sentinel.ErrAccessDenied):
		return "object storage rejected the upload: access denied"
	case errors.Is(err, sentinel.ErrUnreachable):
		return "object storage unreachable"
	default:
		return "artifact upload failed"
	}
}

func persistReason(err error) string {
	if errors.Is(err, sentinel.ErrConflict) {
		return "issuance id already recorded"
	}
	return "failed to persist issuance record"
}
