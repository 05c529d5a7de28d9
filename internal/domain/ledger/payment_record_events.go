package ledger

import (
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PaymentDeclaredEvent is raised when a payment is declared and recorded pending
type PaymentDeclaredEvent struct {
	shared.BaseDomainEvent
	RecordID     uuid.UUID      `json:"record_id"`
	RecordNumber string         `json:"record_number"`
	ObligationID uuid.UUID      `json:"obligation_id"`
	PartyID      uuid.UUID      `json:"party_id"`
	GrossMinor   int64          `json:"gross_minor"`
	NetMinor     int64          `json:"net_minor"`
	Channel      PaymentChannel `json:"channel"`
}

// EventType returns the event type name
func (e *PaymentDeclaredEvent) EventType() string {
	return "PaymentDeclared"
}

// NewPaymentDeclaredEvent creates a new PaymentDeclaredEvent
func NewPaymentDeclaredEvent(pr *PaymentRecord) *PaymentDeclaredEvent {
	return &PaymentDeclaredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentDeclared", "PaymentRecord", pr.ID, pr.TenantID),
		RecordID:        pr.ID,
		RecordNumber:    pr.RecordNumber,
		ObligationID:    pr.ObligationID,
		PartyID:         pr.PartyID,
		GrossMinor:      pr.GrossMinor,
		NetMinor:        pr.NetMinor,
		Channel:         pr.Channel,
	}
}

// PaymentSettledEvent is raised when a pending payment is settled
type PaymentSettledEvent struct {
	shared.BaseDomainEvent
	RecordID     uuid.UUID      `json:"record_id"`
	RecordNumber string         `json:"record_number"`
	ObligationID uuid.UUID      `json:"obligation_id"`
	PartyID      uuid.UUID      `json:"party_id"`
	NetMinor     int64          `json:"net_minor"`
	Channel      PaymentChannel `json:"channel"`
	ExternalRef  string         `json:"external_ref,omitempty"`
	SettledAt    time.Time      `json:"settled_at"`
}

// EventType returns the event type name
func (e *PaymentSettledEvent) EventType() string {
	return "PaymentSettled"
}

// NewPaymentSettledEvent creates a new PaymentSettledEvent
func NewPaymentSettledEvent(pr *PaymentRecord) *PaymentSettledEvent {
	settledAt := time.Now()
	if pr.SettledAt != nil {
		settledAt = *pr.SettledAt
	}
	return &PaymentSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentSettled", "PaymentRecord", pr.ID, pr.TenantID),
		RecordID:        pr.ID,
		RecordNumber:    pr.RecordNumber,
		ObligationID:    pr.ObligationID,
		PartyID:         pr.PartyID,
		NetMinor:        pr.NetMinor,
		Channel:         pr.Channel,
		ExternalRef:     pr.ExternalRef,
		SettledAt:       settledAt,
	}
}

// PaymentRejectedEvent is raised when a pending payment is rejected
type PaymentRejectedEvent struct {
	shared.BaseDomainEvent
	RecordID     uuid.UUID      `json:"record_id"`
	RecordNumber string         `json:"record_number"`
	ObligationID uuid.UUID      `json:"obligation_id"`
	PartyID      uuid.UUID      `json:"party_id"`
	NetMinor     int64          `json:"net_minor"`
	Channel      PaymentChannel `json:"channel"`
	RejectReason string         `json:"reject_reason"`
	RejectedAt   time.Time      `json:"rejected_at"`
}

// EventType returns the event type name
func (e *PaymentRejectedEvent) EventType() string {
	return "PaymentRejected"
}

// NewPaymentRejectedEvent creates a new PaymentRejectedEvent
func NewPaymentRejectedEvent(pr *PaymentRecord) *PaymentRejectedEvent {
	rejectedAt := time.Now()
	if pr.RejectedAt != nil {
		rejectedAt = *pr.RejectedAt
	}
	return &PaymentRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRejected", "PaymentRecord", pr.ID, pr.TenantID),
		RecordID:        pr.ID,
		RecordNumber:    pr.RecordNumber,
		ObligationID:    pr.ObligationID,
		PartyID:         pr.PartyID,
		NetMinor:        pr.NetMinor,
		Channel:         pr.Channel,
		RejectReason:    pr.RejectReason,
		RejectedAt:      rejectedAt,
	}
}

// PaymentFlaggedEvent is raised when a pending payment is flagged for manual review
type PaymentFlaggedEvent struct {
	shared.BaseDomainEvent
	RecordID     uuid.UUID `json:"record_id"`
	RecordNumber string    `json:"record_number"`
	ObligationID uuid.UUID `json:"obligation_id"`
	ReviewNote   string    `json:"review_note"`
}

// EventType returns the event type name
func (e *PaymentFlaggedEvent) EventType() string {
	return "PaymentFlagged"
}

// NewPaymentFlaggedEvent creates a new PaymentFlaggedEvent
func NewPaymentFlaggedEvent(pr *PaymentRecord) *PaymentFlaggedEvent {
	return &PaymentFlaggedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentFlagged", "PaymentRecord", pr.ID, pr.TenantID),
		RecordID:        pr.ID,
		RecordNumber:    pr.RecordNumber,
		ObligationID:    pr.ObligationID,
		ReviewNote:      pr.ReviewNote,
	}
}
