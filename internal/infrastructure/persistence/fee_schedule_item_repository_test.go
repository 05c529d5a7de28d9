package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupScheduleItemTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&scheduleItemModelSQLite{})
	require.NoError(t, err)

	return db
}

// scheduleItemModelSQLite mirrors FeeScheduleItemModel without the
// Postgres-specific column types.
type scheduleItemModelSQLite struct {
	ID            string `gorm:"primaryKey"`
	TenantID      string `gorm:"not null;index"`
	CreatedBy     *string
	Version       int    `gorm:"not null;default:1"`
	Name          string `gorm:"not null"`
	FeeType       string `gorm:"not null;index"`
	AmountMinor   int64  `gorm:"not null"`
	Currency      string `gorm:"not null"`
	Mandatory     bool   `gorm:"not null;default:false"`
	DueOffsetDays int    `gorm:"not null;default:0"`
	Active        bool `gorm:"not null;default:true;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (scheduleItemModelSQLite) TableName() string {
	return "fee_schedule_items"
}

func newScheduleItem(t *testing.T, tenantID uuid.UUID, name, feeType string, amountMinor int64, mandatory bool) *ledger.FeeScheduleItem {
	t.Helper()
	item, err := ledger.NewFeeScheduleItem(
		tenantID, name, feeType,
		valueobject.MustNewMoney(amountMinor, valueobject.KES),
		mandatory, 14,
	)
	require.NoError(t, err)
	return item
}

func TestGormFeeScheduleItemRepository_SaveAndFind(t *testing.T) {
	db := setupScheduleItemTestDB(t)
	repo := NewGormFeeScheduleItemRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	item := newScheduleItem(t, tenantID, "Tuition Term 1", "TUITION", 1500000, true)
	require.NoError(t, repo.Save(ctx, item))

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, item.ID, found.ID)
		assert.Equal(t, "Tuition Term 1", found.Name)
		assert.Equal(t, "TUITION", found.FeeType)
		assert.Equal(t, int64(1500000), found.AmountMinor)
		assert.Equal(t, valueobject.KES, found.Currency)
		assert.True(t, found.Mandatory)
		assert.Equal(t, 14, found.DueOffsetDays)
		assert.True(t, found.Active)
	})

	t.Run("finds by id within tenant", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, item.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, item.ID, found.ID)
	})

	t.Run("returns nil for another tenant", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, uuid.New(), item.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("returns nil for unknown id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormFeeScheduleItemRepository_FindActiveForTenant(t *testing.T) {
	db := setupScheduleItemTestDB(t)
	repo := NewGormFeeScheduleItemRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	tuition := newScheduleItem(t, tenantID, "Tuition", "TUITION", 1500000, true)
	transport := newScheduleItem(t, tenantID, "Transport", "TRANSPORT", 300000, false)
	retired := newScheduleItem(t, tenantID, "Boarding", "BOARDING", 800000, true)
	retired.Deactivate()
	other := newScheduleItem(t, uuid.New(), "Tuition", "TUITION", 1200000, true)

	for _, item := range []*ledger.FeeScheduleItem{tuition, transport, retired, other} {
		require.NoError(t, repo.Save(ctx, item))
	}

	t.Run("returns only active items for tenant sorted by name", func(t *testing.T) {
		items, err := repo.FindActiveForTenant(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Transport", items[0].Name)
		assert.Equal(t, "Tuition", items[1].Name)
	})

	t.Run("returns only mandatory active items", func(t *testing.T) {
		items, err := repo.FindMandatoryForTenant(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Tuition", items[0].Name)
	})
}

func TestGormFeeScheduleItemRepository_DeactivatePersists(t *testing.T) {
	db := setupScheduleItemTestDB(t)
	repo := NewGormFeeScheduleItemRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	item := newScheduleItem(t, tenantID, "Lab Fee", "LAB", 50000, false)
	require.NoError(t, repo.Save(ctx, item))

	item.Deactivate()
	require.NoError(t, repo.Save(ctx, item))

	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.Active)

	active, err := repo.FindActiveForTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Empty(t, active)
}
