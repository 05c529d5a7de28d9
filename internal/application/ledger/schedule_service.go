package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateScheduleItemRequest carries the input for defining a fee schedule item
type CreateScheduleItemRequest struct {
	TenantID      uuid.UUID
	Name          string
	FeeType       string
	AmountMinor   int64
	Currency      valueobject.Currency
	Mandatory     bool
	DueOffsetDays int
}

// CreateDiscountCodeRequest carries the input for defining a discount code.
// Exactly one of Percentage or FixedMinor applies, selected by Kind.
type CreateDiscountCodeRequest struct {
	TenantID   uuid.UUID
	Code       string
	Kind       ledger.DiscountKind
	Percentage decimal.Decimal
	FixedMinor int64
	Currency   valueobject.Currency
	ValidFrom  *time.Time
	ValidUntil *time.Time
}

// DiscountPreview reports what a discount code would take off a gross amount
type DiscountPreview struct {
	Code          string `json:"code"`
	GrossMinor    int64  `json:"gross_minor"`
	DiscountMinor int64  `json:"discount_minor"`
	NetMinor      int64  `json:"net_minor"`
}

// ScheduleService manages fee schedule items and discount codes
type ScheduleService struct {
	scheduleRepo ledger.FeeScheduleItemRepository
	discountRepo ledger.DiscountCodeRepository
	logger       *zap.Logger
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(scheduleRepo ledger.FeeScheduleItemRepository, discountRepo ledger.DiscountCodeRepository, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		discountRepo: discountRepo,
		logger:       logger,
	}
}

// CreateScheduleItem defines a new fee schedule item
func (s *ScheduleService) CreateScheduleItem(ctx context.Context, cap Capability, req CreateScheduleItemRequest) (*ledger.FeeScheduleItem, error) {
	if err := cap.RequireManageLedger(); err != nil {
		return nil, err
	}

	amount, err := valueobject.NewMoney(req.AmountMinor, req.Currency)
	if err != nil {
		return nil, err
	}

	item, err := ledger.NewFeeScheduleItem(req.TenantID, req.Name, req.FeeType, amount, req.Mandatory, req.DueOffsetDays)
	if err != nil {
		return nil, err
	}
	item.SetCreatedBy(cap.OperatorID)

	if err := s.scheduleRepo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save schedule item: %w", err)
	}

	s.logger.Info("Schedule item created",
		zap.String("name", item.Name),
		zap.String("fee_type", item.FeeType),
		zap.Int64("amount_minor", item.AmountMinor))

	return item, nil
}

// DeactivateScheduleItem retires a schedule item from future enrollments.
// Obligations it already produced are unaffected.
func (s *ScheduleService) DeactivateScheduleItem(ctx context.Context, cap Capability, tenantID, itemID uuid.UUID) error {
	if err := cap.RequireManageLedger(); err != nil {
		return err
	}

	item, err := s.scheduleRepo.FindByIDForTenant(ctx, tenantID, itemID)
	if err != nil {
		return fmt.Errorf("failed to find schedule item: %w", err)
	}
	if item == nil {
		return fmt.Errorf("%w: schedule item %s", shared.ErrNotFound, itemID)
	}

	item.Deactivate()
	if err := s.scheduleRepo.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to save schedule item: %w", err)
	}
	return nil
}

// ListScheduleItems returns the active fee schedule for a tenant
func (s *ScheduleService) ListScheduleItems(ctx context.Context, tenantID uuid.UUID) ([]ledger.FeeScheduleItem, error) {
	items, err := s.scheduleRepo.FindActiveForTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule items: %w", err)
	}
	return items, nil
}

// CreateDiscountCode defines a new discount code
func (s *ScheduleService) CreateDiscountCode(ctx context.Context, cap Capability, req CreateDiscountCodeRequest) (*ledger.DiscountCode, error) {
	if err := cap.RequireManageLedger(); err != nil {
		return nil, err
	}

	existing, err := s.discountRepo.FindByCode(ctx, req.TenantID, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check discount code: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: discount code %q", shared.ErrAlreadyExists, req.Code)
	}

	var code *ledger.DiscountCode
	switch req.Kind {
	case ledger.DiscountKindPercentage:
		code, err = ledger.NewPercentageDiscountCode(req.TenantID, req.Code, req.Percentage, req.ValidFrom, req.ValidUntil)
	case ledger.DiscountKindFixed:
		amount, merr := valueobject.NewMoney(req.FixedMinor, req.Currency)
		if merr != nil {
			return nil, merr
		}
		code, err = ledger.NewFixedDiscountCode(req.TenantID, req.Code, amount, req.ValidFrom, req.ValidUntil)
	default:
		return nil, shared.NewDomainError("INVALID_DISCOUNT_KIND", fmt.Sprintf("Unknown discount kind %q", req.Kind))
	}
	if err != nil {
		return nil, err
	}
	code.SetCreatedBy(cap.OperatorID)

	if err := s.discountRepo.Save(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to save discount code: %w", err)
	}

	s.logger.Info("Discount code created",
		zap.String("code", code.Code),
		zap.String("kind", string(code.Kind)))

	return code, nil
}

// DeactivateDiscountCode retires a discount code. Payments that already used
// it are unaffected.
func (s *ScheduleService) DeactivateDiscountCode(ctx context.Context, cap Capability, tenantID uuid.UUID, code string) error {
	if err := cap.RequireManageLedger(); err != nil {
		return err
	}

	dc, err := s.discountRepo.FindByCode(ctx, tenantID, code)
	if err != nil {
		return fmt.Errorf("failed to find discount code: %w", err)
	}
	if dc == nil {
		return fmt.Errorf("%w: discount code %q", shared.ErrNotFound, code)
	}

	dc.Deactivate()
	if err := s.discountRepo.Save(ctx, dc); err != nil {
		return fmt.Errorf("failed to save discount code: %w", err)
	}
	return nil
}

// PreviewDiscount computes what a code would take off a gross amount without
// declaring anything. Unknown or unusable codes are errors, never zero.
func (s *ScheduleService) PreviewDiscount(ctx context.Context, tenantID uuid.UUID, code string, grossMinor int64, currency valueobject.Currency) (*DiscountPreview, error) {
	gross, err := valueobject.NewMoney(grossMinor, currency)
	if err != nil {
		return nil, err
	}

	dc, err := s.discountRepo.FindByCode(ctx, tenantID, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find discount code: %w", err)
	}
	if dc == nil {
		return nil, shared.NewDomainError("DISCOUNT_NOT_FOUND", fmt.Sprintf("Unknown discount code %q", code))
	}

	discount, err := dc.ComputeDiscount(gross, time.Now())
	if err != nil {
		return nil, err
	}

	return &DiscountPreview{
		Code:          dc.Code,
		GrossMinor:    grossMinor,
		DiscountMinor: discount.MinorUnits(),
		NetMinor:      grossMinor - discount.MinorUnits(),
	}, nil
}
