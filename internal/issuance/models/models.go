// Package models defines the issuance domain: validated recipients, the
// persisted issuance record, and the per-batch report the pipeline
// produces.
package models

import (
	"time"

	"vellum/internal/tabular"
)

// Recipient is one validated input row: who a certificate is issued to.
// Name and Email are never empty after validation; Email is stored
// trimmed and lower-cased.
type Recipient struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Program string `json:"program"`
}

// IssuanceRecord is the persisted outcome of one successful issuance. It
// is created in memory at the start of a recipient's pipeline pass,
// persisted exactly once after render and upload succeed, and never
// mutated afterwards.
type IssuanceRecord struct {
	IssuanceID  string    `json:"issuance_id"`
	Recipient   Recipient `json:"recipient"`
	IssuedAt    time.Time `json:"issued_at"`
	ArtifactURL string    `json:"artifact_url"`
	ContentType string    `json:"artifact_content_type"`
}

// Stage names the pipeline step at which a recipient's pass failed.
type Stage string

const (
	StageRender  Stage = "render"
	StageStore   Stage = "store"
	StagePersist Stage = "persist"
	StageNotify  Stage = "notify"
)

// RowError is an input row rejected by validation, kept verbatim so the
// operator can fix and re-submit just the bad lines.
type RowError struct {
	Row    tabular.Row `json:"row"`
	Reason string      `json:"reason"`
}

// IssuedCertificate is one succeeded entry of a batch report.
type IssuedCertificate struct {
	Recipient   Recipient `json:"recipient"`
	IssuanceID  string    `json:"issuance_id"`
	ArtifactURL string    `json:"artifact_url"`
}

// FailedRecipient is one failed entry of a batch report. Stage and Reason
// identify where the pass stopped and why.
type FailedRecipient struct {
	Recipient Recipient `json:"recipient"`
	Stage     Stage     `json:"stage"`
	Reason    string    `json:"reason"`
}

// BatchReport aggregates one batch run. Every input row lands in exactly
// one of InvalidRows, Succeeded, or Failed; Succeeded and Failed keep the
// input order of their recipients.
type BatchReport struct {
	BatchID     string              `json:"batch_id"`
	TotalRows   int                 `json:"total_rows"`
	ValidRows   int                 `json:"valid_rows"`
	InvalidRows []RowError          `json:"invalid_rows"`
	Succeeded   []IssuedCertificate `json:"succeeded"`
	Failed      []FailedRecipient   `json:"failed"`
}

// IssuedCount is the number of certificates persisted by the batch.
func (r *BatchReport) IssuedCount() int {
	return len(r.Succeeded)
}

// FailedCount is the number of valid recipients whose pass failed.
func (r *BatchReport) FailedCount() int {
	return len(r.Failed)
}

// IssuanceStats summarizes issued certificates for the admin surface.
type IssuanceStats struct {
	TotalCertificates int            `json:"total_certificates"`
	ByProgram         map[string]int `json:"by_program"`
}
