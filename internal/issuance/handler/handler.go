// Package handler wires the certificate issuance endpoints: bulk
// submission and the record query surface. Bulk issuance, listing,
// search, and stats are operator endpoints behind bearer auth; the
// single-certificate lookup is public so notification deep links resolve
// without credentials, forever.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vellum/internal/issuance/models"
	"vellum/internal/platform/middleware"
	"vellum/internal/tabular"
	dErrors "vellum/pkg/domain-errors"
	"vellum/pkg/platform/httputil"
)

// maxUploadSize bounds the in-memory portion of a multipart submission.
const maxUploadSize = 32 << 20

// Timeouts per route class. A bulk batch renders and uploads one artifact
// per recipient, so it gets far more room than the query endpoints.
const (
	queryTimeout = 30 * time.Second
	bulkTimeout  = 10 * time.Minute
)

// Service defines the issuance operations the handlers delegate to.
type Service interface {
	ProcessBatch(ctx context.Context, rows []tabular.Row) *models.BatchReport
	Get(ctx context.Context, issuanceID string) (*models.IssuanceRecord, error)
	List(ctx context.Context, limit, offset int) ([]*models.IssuanceRecord, int, error)
	Search(ctx context.Context, query string) ([]*models.IssuanceRecord, error)
	Stats(ctx context.Context) (models.IssuanceStats, error)
}

// Handler exposes the issuance service over HTTP.
type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

// New constructs the issuance handler.
func New(service Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts the issuance routes. Static segments win over the id
// parameter in chi's routing, so /search and /stats never shadow a lookup.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1/certificates", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.With(middleware.Timeout(bulkTimeout)).Post("/bulk", h.handleBulkIssue)
			r.With(middleware.Timeout(queryTimeout)).Get("/", h.handleList)
			r.With(middleware.Timeout(queryTimeout)).Get("/search", h.handleSearch)
			r.With(middleware.Timeout(queryTimeout)).Get("/stats", h.handleStats)
		})
		r.With(middleware.Timeout(queryTimeout)).Get("/{id}", h.handleGetCertificate)
	})
}

// handleBulkIssue accepts a multipart spreadsheet upload under field
// "file" and runs the issuance pipeline over its rows. Undecodable input
// fails the whole submission with zero rows processed.
func (h *Handler) handleBulkIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.logger.WarnContext(ctx, "invalid bulk issuance submission",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected multipart form upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing upload field \"file\""))
		return
	}
	defer file.Close()

	rows, err := tabular.Decode(file, header.Filename)
	if err != nil {
		h.logger.WarnContext(ctx, "undecodable bulk issuance upload",
			"request_id", requestID,
			"filename", header.Filename,
			"error", err,
		)
		if errors.Is(err, tabular.ErrBadFormat) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read upload"))
		return
	}

	report := h.service.ProcessBatch(ctx, rows)

	h.logger.InfoContext(ctx, "bulk issuance submission processed",
		"request_id", requestID,
		"batch_id", report.BatchID,
		"filename", header.Filename,
		"total_rows", report.TotalRows,
		"issued", report.IssuedCount(),
		"failed", report.FailedCount(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromReport(report))
}

// handleGetCertificate serves the public certificate lookup.
func (h *Handler) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) && !dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "certificate lookup failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecordPublic(record))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")
	records, total, err := h.service.List(ctx, limit, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "certificate list failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecordPage(records, total))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.service.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "certificate search failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "issuance stats failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromStats(stats))
}

// queryInt reads an integer query parameter, zero when absent or junk.
// The service applies its own pagination bounds.
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}
