package ledger

import (
	"fmt"
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentState represents the reconciliation state of a payment record.
// A record leaves PENDING exactly once; SETTLED and REJECTED are terminal.
type PaymentState string

const (
	PaymentStatePending  PaymentState = "PENDING"  // Declared, awaiting confirmation or approval
	PaymentStateSettled  PaymentState = "SETTLED"  // Confirmed and credited to the obligation
	PaymentStateRejected PaymentState = "REJECTED" // Declined, never credited
)

// IsValid checks if the state is a valid PaymentState
func (s PaymentState) IsValid() bool {
	switch s {
	case PaymentStatePending, PaymentStateSettled, PaymentStateRejected:
		return true
	}
	return false
}

// String returns the string representation of PaymentState
func (s PaymentState) String() string {
	return string(s)
}

// IsTerminal returns true if the record has left the pending state
func (s PaymentState) IsTerminal() bool {
	return s == PaymentStateSettled || s == PaymentStateRejected
}

// PaymentChannel represents how a payment reaches the institution
type PaymentChannel string

const (
	PaymentChannelCash        PaymentChannel = "CASH"
	PaymentChannelBank        PaymentChannel = "BANK"
	PaymentChannelCheque      PaymentChannel = "CHEQUE"
	PaymentChannelMobileMoney PaymentChannel = "MOBILE_MONEY"
)

// IsValid returns true if the payment channel is valid
func (c PaymentChannel) IsValid() bool {
	switch c {
	case PaymentChannelCash, PaymentChannelBank, PaymentChannelCheque, PaymentChannelMobileMoney:
		return true
	default:
		return false
	}
}

// String returns the string representation of PaymentChannel
func (c PaymentChannel) String() string {
	return string(c)
}

// RequiresGateway returns true if declaring a payment on this channel must
// initiate an external push before the record is persisted
func (c PaymentChannel) RequiresGateway() bool {
	return c == PaymentChannelMobileMoney
}

// PaymentRecord represents one declared payment against a fee obligation.
// Gross, discount, scholarship and net amounts are all captured at
// declaration time so the reduction applied stays auditable; the net amount
// is the only amount ever credited to the obligation.
type PaymentRecord struct {
	shared.TenantAggregateRoot
	RecordNumber     string               `json:"record_number"`
	ObligationID     uuid.UUID            `json:"obligation_id"`
	ObligationNumber string               `json:"obligation_number"`
	PartyID          uuid.UUID            `json:"party_id"`
	GrossMinor       int64                `json:"gross_minor"`
	DiscountMinor    int64                `json:"discount_minor"`
	ScholarshipMinor int64                `json:"scholarship_minor"`
	NetMinor         int64                `json:"net_minor"`
	Currency         valueobject.Currency `json:"currency"`
	Channel          PaymentChannel       `json:"channel"`
	DiscountCode     string               `json:"discount_code,omitempty"`
	PayerPhone       string               `json:"payer_phone,omitempty"`    // Mobile-money payer MSISDN
	CorrelationID    string               `json:"correlation_id,omitempty"` // Gateway push handle, set at intake
	ExternalRef      string               `json:"external_ref,omitempty"`   // Gateway receipt or bank slip, set on settlement
	State            PaymentState         `json:"state"`
	RejectReason     string               `json:"reject_reason,omitempty"`
	FlaggedForReview bool                 `json:"flagged_for_review"`
	ReviewNote       string               `json:"review_note,omitempty"`
	Remark           string               `json:"remark,omitempty"`
	SettledAt        *time.Time           `json:"settled_at,omitempty"`
	RejectedAt       *time.Time           `json:"rejected_at,omitempty"`
	ResolvedBy       *uuid.UUID           `json:"resolved_by,omitempty"` // Operator who approved or rejected
}

// NewPaymentRecord creates a new pending payment record
func NewPaymentRecord(
	tenantID uuid.UUID,
	recordNumber string,
	obligation *FeeObligation,
	gross valueobject.Money,
	discount valueobject.Money,
	scholarship valueobject.Money,
	channel PaymentChannel,
	discountCode string,
	remark string,
) (*PaymentRecord, error) {
	if recordNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECORD_NUMBER", "Record number cannot be empty")
	}
	if obligation == nil {
		return nil, shared.NewDomainError("INVALID_OBLIGATION", "Obligation cannot be nil")
	}
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", fmt.Sprintf("Unknown payment channel %q", channel))
	}
	if gross.Currency() != obligation.Currency {
		return nil, shared.NewDomainError("CURRENCY_MISMATCH", fmt.Sprintf("Cannot declare %s payment against %s obligation", gross.Currency(), obligation.Currency))
	}
	if !gross.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Gross amount must be positive")
	}
	if gross.MinorUnits() > obligation.BalanceMinor {
		return nil, shared.NewDomainError("EXCEEDS_BALANCE", fmt.Sprintf("Gross amount %d exceeds outstanding balance %d", gross.MinorUnits(), obligation.BalanceMinor))
	}
	if discount.IsNegative() || scholarship.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Reductions cannot be negative")
	}

	netMinor := gross.MinorUnits() - discount.MinorUnits() - scholarship.MinorUnits()
	if netMinor <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Reductions leave nothing to collect")
	}

	pr := &PaymentRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RecordNumber:        recordNumber,
		ObligationID:        obligation.ID,
		ObligationNumber:    obligation.ObligationNumber,
		PartyID:             obligation.PartyID,
		GrossMinor:          gross.MinorUnits(),
		DiscountMinor:       discount.MinorUnits(),
		ScholarshipMinor:    scholarship.MinorUnits(),
		NetMinor:            netMinor,
		Currency:            gross.Currency(),
		Channel:             channel,
		DiscountCode:        discountCode,
		State:               PaymentStatePending,
		Remark:              remark,
	}

	pr.AddDomainEvent(NewPaymentDeclaredEvent(pr))

	return pr, nil
}

// AttachPush records the gateway correlation handle and payer phone obtained
// when the mobile-money push was initiated. Must happen before first save.
func (pr *PaymentRecord) AttachPush(correlationID, payerPhone string) error {
	if pr.Channel != PaymentChannelMobileMoney {
		return shared.NewDomainError("INVALID_CHANNEL", "Only mobile-money records carry a push correlation")
	}
	if correlationID == "" {
		return shared.NewDomainError("INVALID_CORRELATION", "Correlation ID cannot be empty")
	}
	pr.CorrelationID = correlationID
	pr.PayerPhone = payerPhone
	return nil
}

// Settle marks the record as settled with the external receipt reference.
// Returns error if the record already left the pending state.
func (pr *PaymentRecord) Settle(externalRef string, resolvedBy *uuid.UUID) error {
	if pr.State.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot settle payment record in %s state", pr.State))
	}

	now := time.Now()
	pr.State = PaymentStateSettled
	pr.ExternalRef = externalRef
	pr.SettledAt = &now
	pr.ResolvedBy = resolvedBy
	pr.FlaggedForReview = false
	pr.ReviewNote = ""
	pr.UpdatedAt = now
	pr.IncrementVersion()

	pr.AddDomainEvent(NewPaymentSettledEvent(pr))

	return nil
}

// Reject marks the record as rejected. A reason is required.
// Returns error if the record already left the pending state.
func (pr *PaymentRecord) Reject(reason string, resolvedBy *uuid.UUID) error {
	if pr.State.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject payment record in %s state", pr.State))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Reject reason is required")
	}

	now := time.Now()
	pr.State = PaymentStateRejected
	pr.RejectReason = reason
	pr.RejectedAt = &now
	pr.ResolvedBy = resolvedBy
	pr.UpdatedAt = now
	pr.IncrementVersion()

	pr.AddDomainEvent(NewPaymentRejectedEvent(pr))

	return nil
}

// FlagForReview marks a still-pending record for manual review, e.g. when a
// gateway confirmation carried an amount that does not match the declared
// net amount. The record stays pending until an operator resolves it.
func (pr *PaymentRecord) FlagForReview(note string) error {
	if pr.State.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot flag payment record in %s state", pr.State))
	}
	if note == "" {
		return shared.NewDomainError("INVALID_REASON", "Review note is required")
	}

	pr.FlaggedForReview = true
	pr.ReviewNote = note
	pr.UpdatedAt = time.Now()
	pr.IncrementVersion()

	pr.AddDomainEvent(NewPaymentFlaggedEvent(pr))

	return nil
}

// Helper methods

// GetGrossMoney returns the gross amount as Money
func (pr *PaymentRecord) GetGrossMoney() valueobject.Money {
	return valueobject.MustNewMoney(pr.GrossMinor, pr.Currency)
}

// GetNetMoney returns the net amount as Money
func (pr *PaymentRecord) GetNetMoney() valueobject.Money {
	return valueobject.MustNewMoney(pr.NetMinor, pr.Currency)
}

// IsPending returns true if the record is still pending
func (pr *PaymentRecord) IsPending() bool {
	return pr.State == PaymentStatePending
}

// IsSettled returns true if the record has been settled
func (pr *PaymentRecord) IsSettled() bool {
	return pr.State == PaymentStateSettled
}

// IsRejected returns true if the record has been rejected
func (pr *PaymentRecord) IsRejected() bool {
	return pr.State == PaymentStateRejected
}

// PendingFor returns how long the record has been pending (zero once terminal)
func (pr *PaymentRecord) PendingFor(now time.Time) time.Duration {
	if pr.State.IsTerminal() {
		return 0
	}
	return now.Sub(pr.CreatedAt)
}
