package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var openStatuses = []ledger.ObligationStatus{
	ledger.ObligationStatusPending,
	ledger.ObligationStatusPartial,
}

// GormFeeObligationRepository implements FeeObligationRepository using GORM
type GormFeeObligationRepository struct {
	db *gorm.DB
}

// NewGormFeeObligationRepository creates a new GormFeeObligationRepository
func NewGormFeeObligationRepository(db *gorm.DB) *GormFeeObligationRepository {
	return &GormFeeObligationRepository{db: db}
}

// FindByID finds a fee obligation by its ID
func (r *GormFeeObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.FeeObligation, error) {
	var model models.FeeObligationModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a fee obligation by ID for a specific tenant
func (r *GormFeeObligationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FeeObligation, error) {
	var model models.FeeObligationModel
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

// FindByObligationNumber finds by obligation number for a tenant
func (r *GormFeeObligationRepository) FindByObligationNumber(ctx context.Context, tenantID uuid.UUID, obligationNumber string) (*ledger.FeeObligation, error) {
	var model models.FeeObligationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND obligation_number = ?", tenantID, obligationNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByScheduleItemForParty finds the obligation a schedule item produced for a party
func (r *GormFeeObligationRepository) FindByScheduleItemForParty(ctx context.Context, tenantID, scheduleItemID, partyID uuid.UUID) (*ledger.FeeObligation, error) {
	var model models.FeeObligationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND schedule_item_id = ? AND party_id = ?", tenantID, scheduleItemID, partyID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all fee obligations for a tenant with filtering
func (r *GormFeeObligationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, error) {
	var obligationModels []models.FeeObligationModel
	query := r.db.WithContext(ctx).Model(&models.FeeObligationModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyObligationFilter(query, filter)

	if err := query.Find(&obligationModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(obligationModels), nil
}

// FindByParty finds fee obligations for an owing party
func (r *GormFeeObligationRepository) FindByParty(ctx context.Context, tenantID, partyID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, error) {
	var obligationModels []models.FeeObligationModel
	query := r.db.WithContext(ctx).Model(&models.FeeObligationModel{}).
		Where("tenant_id = ? AND party_id = ?", tenantID, partyID)
	query = r.applyObligationFilter(query, filter)

	if err := query.Find(&obligationModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(obligationModels), nil
}

// FindOutstanding finds all obligations with a non-zero balance for a party
func (r *GormFeeObligationRepository) FindOutstanding(ctx context.Context, tenantID, partyID uuid.UUID) ([]ledger.FeeObligation, error) {
	var obligationModels []models.FeeObligationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND party_id = ? AND status IN ?", tenantID, partyID, openStatuses).
		Order("created_at ASC").
		Find(&obligationModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(obligationModels), nil
}

// FindOverdue finds all overdue obligations for a tenant
func (r *GormFeeObligationRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, error) {
	var obligationModels []models.FeeObligationModel
	query := r.db.WithContext(ctx).Model(&models.FeeObligationModel{}).
		Where("tenant_id = ? AND due_date < ? AND status IN ?", tenantID, time.Now(), openStatuses)
	query = r.applyObligationFilter(query, filter)

	if err := query.Find(&obligationModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(obligationModels), nil
}

// Save creates or updates a fee obligation
func (r *GormFeeObligationRepository) Save(ctx context.Context, obligation *ledger.FeeObligation) error {
	model := models.FeeObligationModelFromDomain(obligation)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. The update is a column map
// rather than the model struct: a full settlement drives balance_minor to
// zero, and gorm skips zero-valued struct fields on Updates.
func (r *GormFeeObligationRepository) SaveWithLock(ctx context.Context, obligation *ledger.FeeObligation) error {
	model := models.FeeObligationModelFromDomain(obligation)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", obligation.ID, obligation.Version-1).
		Updates(map[string]interface{}{
			"amount_paid_minor": model.AmountPaidMinor,
			"balance_minor":     model.BalanceMinor,
			"status":            model.Status,
			"credit_entries":    model.CreditEntries,
			"due_date":          model.DueDate,
			"remark":            model.Remark,
			"paid_at":           model.PaidAt,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// CountForTenant counts fee obligations for a tenant
func (r *GormFeeObligationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.FeeObligationModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyObligationFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumOutstandingByParty calculates the total outstanding balance for a party
func (r *GormFeeObligationRepository) SumOutstandingByParty(ctx context.Context, tenantID, partyID uuid.UUID) (int64, error) {
	var result struct {
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.FeeObligationModel{}).
		Select("COALESCE(SUM(balance_minor), 0) as total").
		Where("tenant_id = ? AND party_id = ? AND status IN ?", tenantID, partyID, openStatuses).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Total, nil
}

// SumOutstandingForTenant calculates the total outstanding balance for a tenant
func (r *GormFeeObligationRepository) SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var result struct {
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.FeeObligationModel{}).
		Select("COALESCE(SUM(balance_minor), 0) as total").
		Where("tenant_id = ? AND status IN ?", tenantID, openStatuses).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Total, nil
}

// SumOverdueForTenant calculates the total overdue balance for a tenant
func (r *GormFeeObligationRepository) SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var result struct {
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.FeeObligationModel{}).
		Select("COALESCE(SUM(balance_minor), 0) as total").
		Where("tenant_id = ? AND due_date < ? AND status IN ?", tenantID, time.Now(), openStatuses).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Total, nil
}

// ExistsByObligationNumber checks if an obligation number exists
func (r *GormFeeObligationRepository) ExistsByObligationNumber(ctx context.Context, tenantID uuid.UUID, obligationNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FeeObligationModel{}).
		Where("tenant_id = ? AND obligation_number = ?", tenantID, obligationNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateObligationNumber generates a unique obligation number
func (r *GormFeeObligationRepository) GenerateObligationNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	// Format: FO-YYYYMMDD-XXXXX
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("FO-%s-", date)

	// Find the highest number for today
	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.FeeObligationModel{}).
		Select("obligation_number").
		Where("tenant_id = ? AND obligation_number LIKE ?", tenantID, prefix+"%").
		Order("obligation_number DESC").
		Limit(1).
		Pluck("obligation_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

func (r *GormFeeObligationRepository) toDomainSlice(obligationModels []models.FeeObligationModel) []ledger.FeeObligation {
	obligations := make([]ledger.FeeObligation, len(obligationModels))
	for i, model := range obligationModels {
		obligations[i] = *model.ToDomain()
	}
	return obligations
}

// applyObligationFilter applies filter options to the query
func (r *GormFeeObligationRepository) applyObligationFilter(query *gorm.DB, filter ledger.FeeObligationFilter) *gorm.DB {
	query = r.applyObligationFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering against the column whitelist
	orderBy := ValidateSortField(filter.OrderBy, FeeObligationSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	return query
}

// applyObligationFilterWithoutPagination applies filter options without pagination
func (r *GormFeeObligationRepository) applyObligationFilterWithoutPagination(query *gorm.DB, filter ledger.FeeObligationFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("obligation_number ILIKE ? OR party_name ILIKE ?",
			searchPattern, searchPattern)
	}

	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FeeType != nil {
		query = query.Where("fee_type = ?", *filter.FeeType)
	}
	if filter.ScheduleItemID != nil {
		query = query.Where("schedule_item_id = ?", *filter.ScheduleItemID)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Overdue != nil && *filter.Overdue {
		query = query.Where("due_date < ? AND status IN ?", time.Now(), openStatuses)
	}
	if filter.MinBalance != nil {
		query = query.Where("balance_minor >= ?", *filter.MinBalance)
	}
	if filter.MaxBalance != nil {
		query = query.Where("balance_minor <= ?", *filter.MaxBalance)
	}

	return query
}

// Ensure GormFeeObligationRepository implements FeeObligationRepository
var _ ledger.FeeObligationRepository = (*GormFeeObligationRepository)(nil)
