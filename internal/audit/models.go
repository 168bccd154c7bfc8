package audit

import "time"

// Action names one auditable step of the issuance lifecycle.
type Action string

const (
	ActionBatchReceived     Action = "batch.received"
	ActionCertificateIssued Action = "certificate.issued"
	ActionCertificateFailed Action = "certificate.failed"
	ActionBatchCompleted    Action = "batch.completed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	Actor      string    `json:"actor,omitempty"`
	BatchID    string    `json:"batch_id,omitempty"`
	IssuanceID string    `json:"issuance_id,omitempty"`
	Recipient  string    `json:"recipient,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}
