package persistence

import (
	"context"
	"errors"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFeeScheduleItemRepository implements FeeScheduleItemRepository using GORM
type GormFeeScheduleItemRepository struct {
	db *gorm.DB
}

// NewGormFeeScheduleItemRepository creates a new GormFeeScheduleItemRepository
func NewGormFeeScheduleItemRepository(db *gorm.DB) *GormFeeScheduleItemRepository {
	return &GormFeeScheduleItemRepository{db: db}
}

// FindByID finds a schedule item by its ID
func (r *GormFeeScheduleItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.FeeScheduleItem, error) {
	var model models.FeeScheduleItemModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a schedule item by ID for a specific tenant
func (r *GormFeeScheduleItemRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FeeScheduleItem, error) {
	var model models.FeeScheduleItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveForTenant finds all active schedule items for a tenant
func (r *GormFeeScheduleItemRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]ledger.FeeScheduleItem, error) {
	var itemModels []models.FeeScheduleItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("name ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(itemModels), nil
}

// FindMandatoryForTenant finds all active mandatory schedule items
func (r *GormFeeScheduleItemRepository) FindMandatoryForTenant(ctx context.Context, tenantID uuid.UUID) ([]ledger.FeeScheduleItem, error) {
	var itemModels []models.FeeScheduleItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ? AND mandatory = ?", tenantID, true, true).
		Order("name ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(itemModels), nil
}

// Save creates or updates a schedule item
func (r *GormFeeScheduleItemRepository) Save(ctx context.Context, item *ledger.FeeScheduleItem) error {
	model := models.FeeScheduleItemModelFromDomain(item)
	return r.db.WithContext(ctx).Save(model).Error
}

func (r *GormFeeScheduleItemRepository) toDomainSlice(itemModels []models.FeeScheduleItemModel) []ledger.FeeScheduleItem {
	items := make([]ledger.FeeScheduleItem, len(itemModels))
	for i, model := range itemModels {
		items[i] = *model.ToDomain()
	}
	return items
}

// Ensure GormFeeScheduleItemRepository implements FeeScheduleItemRepository
var _ ledger.FeeScheduleItemRepository = (*GormFeeScheduleItemRepository)(nil)
