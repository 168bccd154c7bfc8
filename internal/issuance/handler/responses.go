package handler

import (
	"time"

	"vellum/internal/issuance/models"
)

// BatchReportResponse is the aggregate outcome of one bulk submission.
// Every input row appears in exactly one of Succeeded, Failed, or
// InvalidRows.
type BatchReportResponse struct {
	BatchID     string                     `json:"batch_id"`
	TotalRows   int                        `json:"total_rows"`
	ValidRows   int                        `json:"valid_rows"`
	IssuedCount int                        `json:"issued_count"`
	FailedCount int                        `json:"failed_count"`
	Succeeded   []models.IssuedCertificate `json:"succeeded"`
	Failed      []models.FailedRecipient   `json:"failed"`
	InvalidRows []models.RowError          `json:"invalid_rows"`
}

// FromReport converts a batch report into its response form.
func FromReport(report *models.BatchReport) *BatchReportResponse {
	return &BatchReportResponse{
		BatchID:     report.BatchID,
		TotalRows:   report.TotalRows,
		ValidRows:   report.ValidRows,
		IssuedCount: report.IssuedCount(),
		FailedCount: report.FailedCount(),
		Succeeded:   report.Succeeded,
		Failed:      report.Failed,
		InvalidRows: report.InvalidRows,
	}
}

// CertificateResponse is the public view of an issued certificate. The
// lookup endpoint is unauthenticated, so it carries no recipient email.
type CertificateResponse struct {
	IssuanceID  string    `json:"issuance_id"`
	Name        string    `json:"name"`
	Program     string    `json:"program"`
	IssuedAt    time.Time `json:"issued_at"`
	ArtifactURL string    `json:"artifact_url"`
	ContentType string    `json:"artifact_content_type"`
}

// FromRecordPublic builds the public view of one issuance record.
func FromRecordPublic(record *models.IssuanceRecord) *CertificateResponse {
	return &CertificateResponse{
		IssuanceID:  record.IssuanceID,
		Name:        record.Recipient.Name,
		Program:     record.Recipient.Program,
		IssuedAt:    record.IssuedAt,
		ArtifactURL: record.ArtifactURL,
		ContentType: record.ContentType,
	}
}

// AdminCertificateResponse is the operator view of an issuance record,
// served only behind auth. It includes the recipient email.
type AdminCertificateResponse struct {
	IssuanceID  string    `json:"issuance_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Program     string    `json:"program"`
	IssuedAt    time.Time `json:"issued_at"`
	ArtifactURL string    `json:"artifact_url"`
}

func fromRecordAdmin(record *models.IssuanceRecord) AdminCertificateResponse {
	return AdminCertificateResponse{
		IssuanceID:  record.IssuanceID,
		Name:        record.Recipient.Name,
		Email:       record.Recipient.Email,
		Program:     record.Recipient.Program,
		IssuedAt:    record.IssuedAt,
		ArtifactURL: record.ArtifactURL,
	}
}

// CertificateListResponse is one page of the operator listing. Total is
// the full count across all pages.
type CertificateListResponse struct {
	Certificates []AdminCertificateResponse `json:"certificates"`
	Total        int                        `json:"total"`
}

// FromRecordPage builds the operator listing response.
func FromRecordPage(records []*models.IssuanceRecord, total int) *CertificateListResponse {
	out := make([]AdminCertificateResponse, 0, len(records))
	for _, record := range records {
		out = append(out, fromRecordAdmin(record))
	}
	return &CertificateListResponse{Certificates: out, Total: total}
}

// CertificateSearchResponse carries the operator search results.
type CertificateSearchResponse struct {
	Certificates []AdminCertificateResponse `json:"certificates"`
}

// FromRecords builds the operator search response.
func FromRecords(records []*models.IssuanceRecord) *CertificateSearchResponse {
	out := make([]AdminCertificateResponse, 0, len(records))
	for _, record := range records {
		out = append(out, fromRecordAdmin(record))
	}
	return &CertificateSearchResponse{Certificates: out}
}

// StatsResponse summarizes issuance volume for the admin surface.
type StatsResponse struct {
	TotalCertificates int            `json:"total_certificates"`
	ByProgram         map[string]int `json:"by_program"`
}

// FromStats converts issuance stats into their response form.
func FromStats(stats models.IssuanceStats) *StatsResponse {
	return &StatsResponse{
		TotalCertificates: stats.TotalCertificates,
		ByProgram:         stats.ByProgram,
	}
}
