package ledger

import (
	"context"
	"testing"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newScheduleFixture() (*ScheduleService, *MockFeeScheduleItemRepository, *MockDiscountCodeRepository) {
	scheduleRepo := &MockFeeScheduleItemRepository{}
	discountRepo := &MockDiscountCodeRepository{}
	svc := NewScheduleService(scheduleRepo, discountRepo, nil)
	return svc, scheduleRepo, discountRepo
}

func TestScheduleService_CreateScheduleItem(t *testing.T) {
	t.Run("creates active item", func(t *testing.T) {
		tenantID := uuid.New()
		svc, scheduleRepo, _ := newScheduleFixture()
		scheduleRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		item, err := svc.CreateScheduleItem(context.Background(), clerkCapability(), CreateScheduleItemRequest{
			TenantID:      tenantID,
			Name:          "Boarding Fee",
			FeeType:       "BOARDING",
			AmountMinor:   450000,
			Currency:      valueobject.KES,
			Mandatory:     false,
			DueOffsetDays: 30,
		})
		require.NoError(t, err)

		assert.True(t, item.Active)
		assert.Equal(t, int64(450000), item.AmountMinor)
		assert.Equal(t, 30, item.DueOffsetDays)
	})

	t.Run("capability without ledger access is denied", func(t *testing.T) {
		svc, scheduleRepo, _ := newScheduleFixture()

		_, err := svc.CreateScheduleItem(context.Background(), Capability{OperatorID: uuid.New()}, CreateScheduleItemRequest{})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		scheduleRepo.AssertNotCalled(t, "Save")
	})
}

func TestScheduleService_CreateDiscountCode(t *testing.T) {
	t.Run("creates percentage code", func(t *testing.T) {
		tenantID := uuid.New()
		svc, _, discountRepo := newScheduleFixture()
		discountRepo.On("FindByCode", mock.Anything, tenantID, "SIBLING15").Return(nil, nil)
		discountRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		code, err := svc.CreateDiscountCode(context.Background(), clerkCapability(), CreateDiscountCodeRequest{
			TenantID:   tenantID,
			Code:       "SIBLING15",
			Kind:       ledger.DiscountKindPercentage,
			Percentage: decimal.NewFromInt(15),
		})
		require.NoError(t, err)

		assert.Equal(t, ledger.DiscountKindPercentage, code.Kind)
		assert.True(t, code.Active)
	})

	t.Run("duplicate code is rejected", func(t *testing.T) {
		tenantID := uuid.New()
		existing, err := ledger.NewPercentageDiscountCode(tenantID, "SIBLING15", decimal.NewFromInt(15), nil, nil)
		require.NoError(t, err)

		svc, _, discountRepo := newScheduleFixture()
		discountRepo.On("FindByCode", mock.Anything, tenantID, "SIBLING15").Return(existing, nil)

		_, err = svc.CreateDiscountCode(context.Background(), clerkCapability(), CreateDiscountCodeRequest{
			TenantID:   tenantID,
			Code:       "SIBLING15",
			Kind:       ledger.DiscountKindPercentage,
			Percentage: decimal.NewFromInt(10),
		})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		discountRepo.AssertNotCalled(t, "Save")
	})

	t.Run("fixed code carries its amount", func(t *testing.T) {
		tenantID := uuid.New()
		svc, _, discountRepo := newScheduleFixture()
		discountRepo.On("FindByCode", mock.Anything, tenantID, "FLAT500").Return(nil, nil)
		discountRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		code, err := svc.CreateDiscountCode(context.Background(), clerkCapability(), CreateDiscountCodeRequest{
			TenantID:   tenantID,
			Code:       "FLAT500",
			Kind:       ledger.DiscountKindFixed,
			FixedMinor: 50000,
			Currency:   valueobject.KES,
		})
		require.NoError(t, err)

		assert.Equal(t, ledger.DiscountKindFixed, code.Kind)
		assert.Equal(t, int64(50000), code.FixedMinor)
	})
}

func TestScheduleService_PreviewDiscount(t *testing.T) {
	t.Run("previews percentage discount", func(t *testing.T) {
		tenantID := uuid.New()
		code, err := ledger.NewPercentageDiscountCode(tenantID, "EARLY10", decimal.NewFromInt(10), nil, nil)
		require.NoError(t, err)

		svc, _, discountRepo := newScheduleFixture()
		discountRepo.On("FindByCode", mock.Anything, tenantID, "EARLY10").Return(code, nil)

		preview, err := svc.PreviewDiscount(context.Background(), tenantID, "EARLY10", 120000, valueobject.KES)
		require.NoError(t, err)

		assert.Equal(t, int64(12000), preview.DiscountMinor)
		assert.Equal(t, int64(108000), preview.NetMinor)
	})

	t.Run("unknown code is an error", func(t *testing.T) {
		tenantID := uuid.New()
		svc, _, discountRepo := newScheduleFixture()
		discountRepo.On("FindByCode", mock.Anything, tenantID, "NOSUCH").Return(nil, nil)

		_, err := svc.PreviewDiscount(context.Background(), tenantID, "NOSUCH", 120000, valueobject.KES)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DISCOUNT_NOT_FOUND", domainErr.Code)
	})

	t.Run("deactivated code is an error", func(t *testing.T) {
		tenantID := uuid.New()
		code, err := ledger.NewPercentageDiscountCode(tenantID, "RETIRED", decimal.NewFromInt(10), nil, nil)
		require.NoError(t, err)
		code.Deactivate()

		svc, _, discountRepo := newScheduleFixture()
		discountRepo.On("FindByCode", mock.Anything, tenantID, "RETIRED").Return(code, nil)

		_, err = svc.PreviewDiscount(context.Background(), tenantID, "RETIRED", 120000, valueobject.KES)
		require.Error(t, err)
	})
}

func TestScheduleService_DeactivateScheduleItem(t *testing.T) {
	tenantID := uuid.New()
	item := newScheduleItem(t, tenantID, "Old Levy", 10000, 0)

	svc, scheduleRepo, _ := newScheduleFixture()
	scheduleRepo.On("FindByIDForTenant", mock.Anything, tenantID, item.ID).Return(item, nil)
	scheduleRepo.On("Save", mock.Anything, item).Return(nil)

	err := svc.DeactivateScheduleItem(context.Background(), clerkCapability(), tenantID, item.ID)
	require.NoError(t, err)

	assert.False(t, item.Active)
}
