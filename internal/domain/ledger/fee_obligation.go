package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationStatus represents the payment status of a fee obligation.
// It is always a pure function of the outstanding balance.
type ObligationStatus string

const (
	ObligationStatusPending ObligationStatus = "PENDING" // No payment settled yet, balance = amount due
	ObligationStatusPartial ObligationStatus = "PARTIAL" // Partially settled, 0 < balance < amount due
	ObligationStatusPaid    ObligationStatus = "PAID"    // Fully settled, balance = 0
)

// IsValid checks if the status is a valid ObligationStatus
func (s ObligationStatus) IsValid() bool {
	switch s {
	case ObligationStatusPending, ObligationStatusPartial, ObligationStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of ObligationStatus
func (s ObligationStatus) String() string {
	return string(s)
}

// CanCredit returns true if settlements can still be credited in this status
func (s ObligationStatus) CanCredit() bool {
	return s == ObligationStatusPending || s == ObligationStatusPartial
}

// CreditEntry records one settled payment credited against the obligation.
// It is a value object within the FeeObligation aggregate, stored as JSONB.
type CreditEntry struct {
	ID              uuid.UUID `json:"id"`
	PaymentRecordID uuid.UUID `json:"payment_record_id"`
	AmountMinor     int64     `json:"amount_minor"`
	Reference       string    `json:"reference,omitempty"`
	CreditedAt      time.Time `json:"credited_at"`
}

// CreditEntries is a slice of CreditEntry that implements GORM Scanner/Valuer for JSONB storage
type CreditEntries []CreditEntry

// Value implements driver.Valuer interface for GORM to store as JSONB
func (c CreditEntries) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (c *CreditEntries) Scan(value interface{}) error {
	if value == nil {
		*c = CreditEntries{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan CreditEntries: unsupported type")
	}

	if len(bytes) == 0 {
		*c = CreditEntries{}
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// FeeObligation represents a single charge owed by a party for one fee type
// in one billing period. Obligations are never deleted; a fully settled
// obligation remains on the ledger with a zero balance.
type FeeObligation struct {
	shared.TenantAggregateRoot
	ObligationNumber string                `json:"obligation_number"`
	PartyID          uuid.UUID             `json:"party_id"`
	PartyName        string                `json:"party_name"`
	FeeType          string                `json:"fee_type"`
	ScheduleItemID   *uuid.UUID            `json:"schedule_item_id"` // Source schedule item, nil for manual charges
	AmountDueMinor   int64                 `json:"amount_due_minor"`
	AmountPaidMinor  int64                 `json:"amount_paid_minor"`
	BalanceMinor     int64                 `json:"balance_minor"`
	Currency         valueobject.Currency  `json:"currency"`
	Status           ObligationStatus      `json:"status"`
	DueDate          *time.Time            `json:"due_date"`
	CreditEntries    CreditEntries         `json:"credit_entries"`
	Remark           string                `json:"remark"`
	PaidAt           *time.Time            `json:"paid_at"` // When the balance first reached zero
}

// NewFeeObligation creates a new fee obligation for a party
func NewFeeObligation(
	tenantID uuid.UUID,
	obligationNumber string,
	partyID uuid.UUID,
	partyName string,
	feeType string,
	scheduleItemID *uuid.UUID,
	amountDue valueobject.Money,
	dueDate *time.Time,
) (*FeeObligation, error) {
	if obligationNumber == "" {
		return nil, shared.NewDomainError("INVALID_OBLIGATION_NUMBER", "Obligation number cannot be empty")
	}
	if len(obligationNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_OBLIGATION_NUMBER", "Obligation number cannot exceed 50 characters")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party ID cannot be empty")
	}
	if partyName == "" {
		return nil, shared.NewDomainError("INVALID_PARTY_NAME", "Party name cannot be empty")
	}
	if feeType == "" {
		return nil, shared.NewDomainError("INVALID_FEE_TYPE", "Fee type cannot be empty")
	}
	if !amountDue.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount due must be positive")
	}

	fo := &FeeObligation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ObligationNumber:    obligationNumber,
		PartyID:             partyID,
		PartyName:           partyName,
		FeeType:             feeType,
		ScheduleItemID:      scheduleItemID,
		AmountDueMinor:      amountDue.MinorUnits(),
		AmountPaidMinor:     0,
		BalanceMinor:        amountDue.MinorUnits(),
		Currency:            amountDue.Currency(),
		Status:              ObligationStatusPending,
		DueDate:             dueDate,
		CreditEntries:       CreditEntries{},
	}

	fo.AddDomainEvent(NewFeeObligationCreatedEvent(fo))

	return fo, nil
}

// Credit applies a settled payment amount against the obligation.
// Amount paid only ever grows; the balance is recomputed as due minus paid
// in the same step so the two can never drift apart.
// Returns error if the amount exceeds the current balance or the obligation
// is already fully paid. The amount is never clipped.
func (fo *FeeObligation) Credit(amount valueobject.Money, paymentRecordID uuid.UUID, reference string) error {
	if !fo.Status.CanCredit() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot credit obligation in %s status", fo.Status))
	}
	if amount.Currency() != fo.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH", fmt.Sprintf("Cannot credit %s amount to %s obligation", amount.Currency(), fo.Currency))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	if amount.MinorUnits() > fo.BalanceMinor {
		return shared.NewDomainError("EXCEEDS_BALANCE", fmt.Sprintf("Credit amount %d exceeds outstanding balance %d", amount.MinorUnits(), fo.BalanceMinor))
	}
	if paymentRecordID == uuid.Nil {
		return shared.NewDomainError("INVALID_PAYMENT_RECORD", "Payment record ID cannot be empty")
	}

	fo.CreditEntries = append(fo.CreditEntries, CreditEntry{
		ID:              uuid.New(),
		PaymentRecordID: paymentRecordID,
		AmountMinor:     amount.MinorUnits(),
		Reference:       reference,
		CreditedAt:      time.Now(),
	})

	fo.AmountPaidMinor += amount.MinorUnits()
	fo.BalanceMinor = fo.AmountDueMinor - fo.AmountPaidMinor

	if fo.BalanceMinor == 0 {
		now := time.Now()
		fo.Status = ObligationStatusPaid
		fo.PaidAt = &now
		fo.AddDomainEvent(NewFeeObligationPaidEvent(fo))
	} else {
		fo.Status = ObligationStatusPartial
		fo.AddDomainEvent(NewFeeObligationCreditedEvent(fo, amount))
	}

	fo.UpdatedAt = time.Now()
	fo.IncrementVersion()

	return nil
}

// SetDueDate updates the due date
func (fo *FeeObligation) SetDueDate(dueDate *time.Time) error {
	if fo.Status == ObligationStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify due date for a fully paid obligation")
	}

	fo.DueDate = dueDate
	fo.UpdatedAt = time.Now()
	fo.IncrementVersion()

	return nil
}

// SetRemark sets the remark
func (fo *FeeObligation) SetRemark(remark string) {
	fo.Remark = remark
	fo.UpdatedAt = time.Now()
	fo.IncrementVersion()
}

// Helper methods

// GetAmountDueMoney returns the amount due as Money
func (fo *FeeObligation) GetAmountDueMoney() valueobject.Money {
	return valueobject.MustNewMoney(fo.AmountDueMinor, fo.Currency)
}

// GetAmountPaidMoney returns the amount paid as Money
func (fo *FeeObligation) GetAmountPaidMoney() valueobject.Money {
	return valueobject.MustNewMoney(fo.AmountPaidMinor, fo.Currency)
}

// GetBalanceMoney returns the outstanding balance as Money
func (fo *FeeObligation) GetBalanceMoney() valueobject.Money {
	return valueobject.MustNewMoney(fo.BalanceMinor, fo.Currency)
}

// IsPending returns true if nothing has been settled against the obligation
func (fo *FeeObligation) IsPending() bool {
	return fo.Status == ObligationStatusPending
}

// IsPartial returns true if the obligation is partially settled
func (fo *FeeObligation) IsPartial() bool {
	return fo.Status == ObligationStatusPartial
}

// IsPaid returns true if the obligation is fully settled
func (fo *FeeObligation) IsPaid() bool {
	return fo.Status == ObligationStatusPaid
}

// IsOverdue returns true if the obligation is past due date and not fully paid
func (fo *FeeObligation) IsOverdue() bool {
	if fo.Status == ObligationStatusPaid {
		return false
	}
	if fo.DueDate == nil {
		return false
	}
	return time.Now().After(*fo.DueDate)
}

// DaysOverdue returns the number of days past due (0 if not overdue)
func (fo *FeeObligation) DaysOverdue() int {
	if !fo.IsOverdue() {
		return 0
	}
	return int(time.Since(*fo.DueDate).Hours() / 24)
}

// CreditCount returns the number of settlements credited
func (fo *FeeObligation) CreditCount() int {
	return len(fo.CreditEntries)
}

// PaidPercentage returns the percentage of the amount due that has been paid (0-100)
func (fo *FeeObligation) PaidPercentage() decimal.Decimal {
	if fo.AmountDueMinor == 0 {
		return decimal.NewFromInt(100)
	}
	return decimal.NewFromInt(fo.AmountPaidMinor).
		Div(decimal.NewFromInt(fo.AmountDueMinor)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
