package ledger

import (
	"testing"
	"time"

	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPercentageDiscountCode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dc, err := NewPercentageDiscountCode(uuid.New(), "SIBLING10", decimal.NewFromInt(10), nil, nil)
		require.NoError(t, err)
		assert.True(t, dc.Active)
		assert.Equal(t, DiscountKindPercentage, dc.Kind)
	})

	t.Run("rejects out-of-range percentage", func(t *testing.T) {
		_, err := NewPercentageDiscountCode(uuid.New(), "BAD", decimal.NewFromInt(0), nil, nil)
		assert.Error(t, err)

		_, err = NewPercentageDiscountCode(uuid.New(), "BAD", decimal.NewFromInt(101), nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := NewPercentageDiscountCode(uuid.New(), "", decimal.NewFromInt(10), nil, nil)
		assert.Error(t, err)
	})
}

func TestNewFixedDiscountCode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dc, err := NewFixedDiscountCode(uuid.New(), "STAFF500", valueobject.MustNewMoney(50000, valueobject.KES), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, DiscountKindFixed, dc.Kind)
		assert.Equal(t, int64(50000), dc.FixedMinor)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewFixedDiscountCode(uuid.New(), "STAFF500", valueobject.MustNewMoney(0, valueobject.KES), nil, nil)
		assert.Error(t, err)
	})
}

func TestDiscountCode_IsUsableAt(t *testing.T) {
	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	t.Run("within window", func(t *testing.T) {
		dc, err := NewPercentageDiscountCode(uuid.New(), "TERM1", decimal.NewFromInt(5), &yesterday, &tomorrow)
		require.NoError(t, err)
		assert.True(t, dc.IsUsableAt(now))
	})

	t.Run("before window", func(t *testing.T) {
		dc, err := NewPercentageDiscountCode(uuid.New(), "TERM1", decimal.NewFromInt(5), &tomorrow, nil)
		require.NoError(t, err)
		assert.False(t, dc.IsUsableAt(now))
	})

	t.Run("expired", func(t *testing.T) {
		dc, err := NewPercentageDiscountCode(uuid.New(), "TERM1", decimal.NewFromInt(5), nil, &yesterday)
		require.NoError(t, err)
		assert.False(t, dc.IsUsableAt(now))
	})

	t.Run("deactivated", func(t *testing.T) {
		dc, err := NewPercentageDiscountCode(uuid.New(), "TERM1", decimal.NewFromInt(5), nil, nil)
		require.NoError(t, err)
		dc.Deactivate()
		assert.False(t, dc.IsUsableAt(now))
	})
}

func TestDiscountCode_ComputeDiscount(t *testing.T) {
	now := time.Now()
	gross := valueobject.MustNewMoney(100000, valueobject.KES)

	t.Run("percentage reduction rounds to minor units", func(t *testing.T) {
		dc, err := NewPercentageDiscountCode(uuid.New(), "SIBLING10", decimal.NewFromInt(10), nil, nil)
		require.NoError(t, err)

		reduction, err := dc.ComputeDiscount(gross, now)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), reduction.MinorUnits())
		assert.Equal(t, valueobject.KES, reduction.Currency())
	})

	t.Run("odd gross rounds half up", func(t *testing.T) {
		dc, err := NewPercentageDiscountCode(uuid.New(), "HALF", decimal.NewFromInt(50), nil, nil)
		require.NoError(t, err)

		reduction, err := dc.ComputeDiscount(valueobject.MustNewMoney(105, valueobject.KES), now)
		require.NoError(t, err)
		assert.Equal(t, int64(53), reduction.MinorUnits())
	})

	t.Run("fixed reduction", func(t *testing.T) {
		dc, err := NewFixedDiscountCode(uuid.New(), "STAFF", valueobject.MustNewMoney(25000, valueobject.KES), nil, nil)
		require.NoError(t, err)

		reduction, err := dc.ComputeDiscount(gross, now)
		require.NoError(t, err)
		assert.Equal(t, int64(25000), reduction.MinorUnits())
	})

	t.Run("fixed reduction capped at gross", func(t *testing.T) {
		dc, err := NewFixedDiscountCode(uuid.New(), "STAFF", valueobject.MustNewMoney(25000, valueobject.KES), nil, nil)
		require.NoError(t, err)

		reduction, err := dc.ComputeDiscount(valueobject.MustNewMoney(10000, valueobject.KES), now)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), reduction.MinorUnits())
	})

	t.Run("expired code is an error, not a zero reduction", func(t *testing.T) {
		yesterday := now.AddDate(0, 0, -1)
		dc, err := NewPercentageDiscountCode(uuid.New(), "OLD", decimal.NewFromInt(10), nil, &yesterday)
		require.NoError(t, err)

		_, err = dc.ComputeDiscount(gross, now)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "inactive or outside")
	})

	t.Run("rejects non-positive gross", func(t *testing.T) {
		dc, err := NewPercentageDiscountCode(uuid.New(), "SIBLING10", decimal.NewFromInt(10), nil, nil)
		require.NoError(t, err)

		_, err = dc.ComputeDiscount(valueobject.MustNewMoney(0, valueobject.KES), now)
		assert.Error(t, err)
	})
}

func TestFeeScheduleItem_MaterializeObligation(t *testing.T) {
	tenantID := uuid.New()
	item, err := NewFeeScheduleItem(tenantID, "Term 1 Tuition", "TUITION",
		valueobject.MustNewMoney(3500000, valueobject.KES), true, 14)
	require.NoError(t, err)

	t.Run("due date offset from enrollment", func(t *testing.T) {
		enrolledAt := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
		partyID := uuid.New()

		fo, err := item.MaterializeObligation("FO-20260105-00001", partyID, "Achieng Otieno", enrolledAt)
		require.NoError(t, err)

		assert.Equal(t, tenantID, fo.TenantID)
		assert.Equal(t, "TUITION", fo.FeeType)
		assert.Equal(t, int64(3500000), fo.AmountDueMinor)
		require.NotNil(t, fo.ScheduleItemID)
		assert.Equal(t, item.ID, *fo.ScheduleItemID)
		require.NotNil(t, fo.DueDate)
		assert.Equal(t, enrolledAt.AddDate(0, 0, 14), *fo.DueDate)
	})

	t.Run("inactive item cannot materialize", func(t *testing.T) {
		item.Deactivate()
		_, err := item.MaterializeObligation("FO-2", uuid.New(), "Achieng", time.Now())
		assert.Error(t, err)
	})
}

func TestNewFeeScheduleItem_Validation(t *testing.T) {
	amount := valueobject.MustNewMoney(1000, valueobject.KES)

	_, err := NewFeeScheduleItem(uuid.New(), "", "TUITION", amount, true, 0)
	assert.Error(t, err)

	_, err = NewFeeScheduleItem(uuid.New(), "Tuition", "", amount, true, 0)
	assert.Error(t, err)

	_, err = NewFeeScheduleItem(uuid.New(), "Tuition", "TUITION", valueobject.Zero(valueobject.KES), true, 0)
	assert.Error(t, err)

	_, err = NewFeeScheduleItem(uuid.New(), "Tuition", "TUITION", amount, true, -1)
	assert.Error(t, err)
}
