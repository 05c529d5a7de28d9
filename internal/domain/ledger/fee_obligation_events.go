package ledger

import (
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// FeeObligationCreatedEvent is raised when a new fee obligation is created
type FeeObligationCreatedEvent struct {
	shared.BaseDomainEvent
	ObligationID     uuid.UUID  `json:"obligation_id"`
	ObligationNumber string     `json:"obligation_number"`
	PartyID          uuid.UUID  `json:"party_id"`
	PartyName        string     `json:"party_name"`
	FeeType          string     `json:"fee_type"`
	AmountDueMinor   int64      `json:"amount_due_minor"`
	Currency         string     `json:"currency"`
	DueDate          *time.Time `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *FeeObligationCreatedEvent) EventType() string {
	return "FeeObligationCreated"
}

// NewFeeObligationCreatedEvent creates a new FeeObligationCreatedEvent
func NewFeeObligationCreatedEvent(fo *FeeObligation) *FeeObligationCreatedEvent {
	return &FeeObligationCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("FeeObligationCreated", "FeeObligation", fo.ID, fo.TenantID),
		ObligationID:     fo.ID,
		ObligationNumber: fo.ObligationNumber,
		PartyID:          fo.PartyID,
		PartyName:        fo.PartyName,
		FeeType:          fo.FeeType,
		AmountDueMinor:   fo.AmountDueMinor,
		Currency:         string(fo.Currency),
		DueDate:          fo.DueDate,
	}
}

// FeeObligationCreditedEvent is raised when a settlement is credited but a
// balance remains outstanding
type FeeObligationCreditedEvent struct {
	shared.BaseDomainEvent
	ObligationID     uuid.UUID `json:"obligation_id"`
	ObligationNumber string    `json:"obligation_number"`
	PartyID          uuid.UUID `json:"party_id"`
	PartyName        string    `json:"party_name"`
	CreditMinor      int64     `json:"credit_minor"`
	AmountDueMinor   int64     `json:"amount_due_minor"`
	AmountPaidMinor  int64     `json:"amount_paid_minor"`
	BalanceMinor     int64     `json:"balance_minor"`
}

// EventType returns the event type name
func (e *FeeObligationCreditedEvent) EventType() string {
	return "FeeObligationCredited"
}

// NewFeeObligationCreditedEvent creates a new FeeObligationCreditedEvent
func NewFeeObligationCreditedEvent(fo *FeeObligation, credit valueobject.Money) *FeeObligationCreditedEvent {
	return &FeeObligationCreditedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("FeeObligationCredited", "FeeObligation", fo.ID, fo.TenantID),
		ObligationID:     fo.ID,
		ObligationNumber: fo.ObligationNumber,
		PartyID:          fo.PartyID,
		PartyName:        fo.PartyName,
		CreditMinor:      credit.MinorUnits(),
		AmountDueMinor:   fo.AmountDueMinor,
		AmountPaidMinor:  fo.AmountPaidMinor,
		BalanceMinor:     fo.BalanceMinor,
	}
}

// FeeObligationPaidEvent is raised when the obligation balance reaches zero
type FeeObligationPaidEvent struct {
	shared.BaseDomainEvent
	ObligationID     uuid.UUID `json:"obligation_id"`
	ObligationNumber string    `json:"obligation_number"`
	PartyID          uuid.UUID `json:"party_id"`
	PartyName        string    `json:"party_name"`
	AmountDueMinor   int64     `json:"amount_due_minor"`
	AmountPaidMinor  int64     `json:"amount_paid_minor"`
	PaidAt           time.Time `json:"paid_at"`
}

// EventType returns the event type name
func (e *FeeObligationPaidEvent) EventType() string {
	return "FeeObligationPaid"
}

// NewFeeObligationPaidEvent creates a new FeeObligationPaidEvent
func NewFeeObligationPaidEvent(fo *FeeObligation) *FeeObligationPaidEvent {
	paidAt := time.Now()
	if fo.PaidAt != nil {
		paidAt = *fo.PaidAt
	}
	return &FeeObligationPaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("FeeObligationPaid", "FeeObligation", fo.ID, fo.TenantID),
		ObligationID:     fo.ID,
		ObligationNumber: fo.ObligationNumber,
		PartyID:          fo.PartyID,
		PartyName:        fo.PartyName,
		AmountDueMinor:   fo.AmountDueMinor,
		AmountPaidMinor:  fo.AmountPaidMinor,
		PaidAt:           paidAt,
	}
}
