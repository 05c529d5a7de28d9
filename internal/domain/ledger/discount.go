package ledger

import (
	"fmt"
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountKind represents how a discount code reduces the gross amount
type DiscountKind string

const (
	DiscountKindPercentage DiscountKind = "PERCENTAGE" // Value is a percentage of gross (0-100]
	DiscountKindFixed      DiscountKind = "FIXED"      // Value is a fixed minor-unit amount
)

// IsValid returns true if the discount kind is valid
func (k DiscountKind) IsValid() bool {
	return k == DiscountKindPercentage || k == DiscountKindFixed
}

// DiscountCode defines a named reduction applied at payment declaration.
// Referencing an unknown, inactive or expired code is an error at the point
// of use, never a silent zero reduction.
type DiscountCode struct {
	shared.TenantAggregateRoot
	Code       string          `json:"code"`
	Kind       DiscountKind    `json:"kind"`
	Percentage decimal.Decimal `json:"percentage"`  // For PERCENTAGE kind
	FixedMinor int64           `json:"fixed_minor"` // For FIXED kind
	Active     bool            `json:"active"`
	ValidFrom  *time.Time      `json:"valid_from"`
	ValidUntil *time.Time      `json:"valid_until"`
}

// NewPercentageDiscountCode creates a percentage discount code
func NewPercentageDiscountCode(tenantID uuid.UUID, code string, percentage decimal.Decimal, validFrom, validUntil *time.Time) (*DiscountCode, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Discount code cannot be empty")
	}
	if percentage.LessThanOrEqual(decimal.Zero) || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_PERCENTAGE", "Discount percentage must be in (0, 100]")
	}
	return &DiscountCode{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Kind:                DiscountKindPercentage,
		Percentage:          percentage,
		Active:              true,
		ValidFrom:           validFrom,
		ValidUntil:          validUntil,
	}, nil
}

// NewFixedDiscountCode creates a fixed-amount discount code
func NewFixedDiscountCode(tenantID uuid.UUID, code string, amount valueobject.Money, validFrom, validUntil *time.Time) (*DiscountCode, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Discount code cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Fixed discount amount must be positive")
	}
	return &DiscountCode{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Kind:                DiscountKindFixed,
		FixedMinor:          amount.MinorUnits(),
		Active:              true,
		ValidFrom:           validFrom,
		ValidUntil:          validUntil,
	}, nil
}

// IsUsableAt returns true if the code is active and within its validity window
func (dc *DiscountCode) IsUsableAt(at time.Time) bool {
	if !dc.Active {
		return false
	}
	if dc.ValidFrom != nil && at.Before(*dc.ValidFrom) {
		return false
	}
	if dc.ValidUntil != nil && at.After(*dc.ValidUntil) {
		return false
	}
	return true
}

// Deactivate retires the discount code
func (dc *DiscountCode) Deactivate() {
	dc.Active = false
	dc.UpdatedAt = time.Now()
	dc.IncrementVersion()
}

// ComputeDiscount returns the reduction this code yields for the given gross
// amount. Percentage reductions round half-up to whole minor units; fixed
// reductions greater than the gross are capped at the gross so the net never
// goes negative.
func (dc *DiscountCode) ComputeDiscount(gross valueobject.Money, at time.Time) (valueobject.Money, error) {
	if !dc.IsUsableAt(at) {
		return valueobject.Money{}, shared.NewDomainError("DISCOUNT_NOT_USABLE", fmt.Sprintf("Discount code %q is inactive or outside its validity window", dc.Code))
	}
	if !gross.IsPositive() {
		return valueobject.Money{}, shared.NewDomainError("INVALID_AMOUNT", "Gross amount must be positive")
	}

	switch dc.Kind {
	case DiscountKindPercentage:
		return gross.CalculatePercentage(dc.Percentage), nil
	case DiscountKindFixed:
		fixed := dc.FixedMinor
		if fixed > gross.MinorUnits() {
			fixed = gross.MinorUnits()
		}
		return valueobject.NewMoney(fixed, gross.Currency())
	default:
		return valueobject.Money{}, shared.NewDomainError("INVALID_DISCOUNT_KIND", fmt.Sprintf("Unknown discount kind %q", dc.Kind))
	}
}
