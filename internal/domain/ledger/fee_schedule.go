package ledger

import (
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// FeeScheduleItem defines one charge an enrollment produces. Mandatory items
// materialize an obligation for every enrolled party; optional items only on
// request.
type FeeScheduleItem struct {
	shared.TenantAggregateRoot
	Name          string               `json:"name"`
	FeeType       string               `json:"fee_type"`
	AmountMinor   int64                `json:"amount_minor"`
	Currency      valueobject.Currency `json:"currency"`
	Mandatory     bool                 `json:"mandatory"`
	DueOffsetDays int                  `json:"due_offset_days"` // Days after enrollment the obligation falls due
	Active        bool                 `json:"active"`
}

// NewFeeScheduleItem creates a new fee schedule item
func NewFeeScheduleItem(
	tenantID uuid.UUID,
	name string,
	feeType string,
	amount valueobject.Money,
	mandatory bool,
	dueOffsetDays int,
) (*FeeScheduleItem, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Schedule item name cannot be empty")
	}
	if feeType == "" {
		return nil, shared.NewDomainError("INVALID_FEE_TYPE", "Fee type cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Schedule item amount must be positive")
	}
	if dueOffsetDays < 0 {
		return nil, shared.NewDomainError("INVALID_OFFSET", "Due offset cannot be negative")
	}

	return &FeeScheduleItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		FeeType:             feeType,
		AmountMinor:         amount.MinorUnits(),
		Currency:            amount.Currency(),
		Mandatory:           mandatory,
		DueOffsetDays:       dueOffsetDays,
		Active:              true,
	}, nil
}

// GetAmountMoney returns the charge amount as Money
func (si *FeeScheduleItem) GetAmountMoney() valueobject.Money {
	return valueobject.MustNewMoney(si.AmountMinor, si.Currency)
}

// Deactivate retires the schedule item; existing obligations are untouched
func (si *FeeScheduleItem) Deactivate() {
	si.Active = false
	si.UpdatedAt = time.Now()
	si.IncrementVersion()
}

// MaterializeObligation creates the fee obligation this item charges for the
// given party. The due date is enrolledAt plus the item's due offset.
func (si *FeeScheduleItem) MaterializeObligation(
	obligationNumber string,
	partyID uuid.UUID,
	partyName string,
	enrolledAt time.Time,
) (*FeeObligation, error) {
	if !si.Active {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot materialize obligation from an inactive schedule item")
	}

	dueDate := enrolledAt.AddDate(0, 0, si.DueOffsetDays)
	itemID := si.ID
	return NewFeeObligation(
		si.TenantID,
		obligationNumber,
		partyID,
		partyName,
		si.FeeType,
		&itemID,
		si.GetAmountMoney(),
		&dueDate,
	)
}
