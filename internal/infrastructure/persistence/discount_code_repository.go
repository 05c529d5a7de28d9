package persistence

import (
	"context"
	"errors"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDiscountCodeRepository implements DiscountCodeRepository using GORM
type GormDiscountCodeRepository struct {
	db *gorm.DB
}

// NewGormDiscountCodeRepository creates a new GormDiscountCodeRepository
func NewGormDiscountCodeRepository(db *gorm.DB) *GormDiscountCodeRepository {
	return &GormDiscountCodeRepository{db: db}
}

// FindByCode finds a discount code by its code for a tenant
func (r *GormDiscountCodeRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.DiscountCode, error) {
	var model models.DiscountCodeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all discount codes for a tenant
func (r *GormDiscountCodeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.DiscountCode, error) {
	var codeModels []models.DiscountCodeModel
	query := r.db.WithContext(ctx).Model(&models.DiscountCodeModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.Search != "" {
		query = query.Where("code ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, DiscountCodeSortFields, "code")
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("code ASC")
	}

	if err := query.Find(&codeModels).Error; err != nil {
		return nil, err
	}
	codes := make([]ledger.DiscountCode, len(codeModels))
	for i, model := range codeModels {
		codes[i] = *model.ToDomain()
	}
	return codes, nil
}

// Save creates or updates a discount code
func (r *GormDiscountCodeRepository) Save(ctx context.Context, code *ledger.DiscountCode) error {
	model := models.DiscountCodeModelFromDomain(code)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormDiscountCodeRepository implements DiscountCodeRepository
var _ ledger.DiscountCodeRepository = (*GormDiscountCodeRepository)(nil)
