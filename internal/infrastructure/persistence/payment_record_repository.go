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

// GormPaymentRecordRepository implements PaymentRecordRepository using GORM
type GormPaymentRecordRepository struct {
	db *gorm.DB
}

// NewGormPaymentRecordRepository creates a new GormPaymentRecordRepository
func NewGormPaymentRecordRepository(db *gorm.DB) *GormPaymentRecordRepository {
	return &GormPaymentRecordRepository{db: db}
}

// FindByID finds a payment record by its ID
func (r *GormPaymentRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentRecord, error) {
	var model models.PaymentRecordModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a payment record by ID for a specific tenant
func (r *GormPaymentRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.PaymentRecord, error) {
	var model models.PaymentRecordModel
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

// FindByRecordNumber finds by record number for a tenant
func (r *GormPaymentRecordRepository) FindByRecordNumber(ctx context.Context, tenantID uuid.UUID, recordNumber string) (*ledger.PaymentRecord, error) {
	var model models.PaymentRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND record_number = ?", tenantID, recordNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCorrelationID finds the record a gateway push correlates to.
// Correlation IDs are gateway-global, not tenant-scoped.
func (r *GormPaymentRecordRepository) FindByCorrelationID(ctx context.Context, correlationID string) (*ledger.PaymentRecord, error) {
	var model models.PaymentRecordModel
	if err := r.db.WithContext(ctx).
		First(&model, "correlation_id = ?", correlationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all payment records for a tenant with filtering
func (r *GormPaymentRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentRecordFilter) ([]ledger.PaymentRecord, error) {
	var recordModels []models.PaymentRecordModel
	query := r.db.WithContext(ctx).Model(&models.PaymentRecordModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyRecordFilter(query, filter)

	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(recordModels), nil
}

// FindByObligation finds payment records against an obligation
func (r *GormPaymentRecordRepository) FindByObligation(ctx context.Context, tenantID, obligationID uuid.UUID) ([]ledger.PaymentRecord, error) {
	var recordModels []models.PaymentRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND obligation_id = ?", tenantID, obligationID).
		Order("created_at ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(recordModels), nil
}

// FindStalePending finds mobile-money records pending since before the cutoff
func (r *GormPaymentRecordRepository) FindStalePending(ctx context.Context, tenantID uuid.UUID, pendingSince time.Time) ([]ledger.PaymentRecord, error) {
	var recordModels []models.PaymentRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND state = ? AND channel = ? AND created_at < ?",
			tenantID, ledger.PaymentStatePending, ledger.PaymentChannelMobileMoney, pendingSince).
		Order("created_at ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(recordModels), nil
}

// Save creates or updates a payment record
func (r *GormPaymentRecordRepository) Save(ctx context.Context, record *ledger.PaymentRecord) error {
	model := models.PaymentRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. The update is a column map
// rather than the model struct: settling a flagged record clears
// flagged_for_review to false, and gorm skips zero-valued struct fields
// on Updates.
func (r *GormPaymentRecordRepository) SaveWithLock(ctx context.Context, record *ledger.PaymentRecord) error {
	model := models.PaymentRecordModelFromDomain(record)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]interface{}{
			"state":              model.State,
			"correlation_id":     model.CorrelationID,
			"payer_phone":        model.PayerPhone,
			"external_ref":       model.ExternalRef,
			"reject_reason":      model.RejectReason,
			"flagged_for_review": model.FlaggedForReview,
			"review_note":        model.ReviewNote,
			"remark":             model.Remark,
			"settled_at":         model.SettledAt,
			"rejected_at":        model.RejectedAt,
			"resolved_by":        model.ResolvedBy,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// CountForTenant counts payment records for a tenant
func (r *GormPaymentRecordRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentRecordFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PaymentRecordModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyRecordFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByRecordNumber checks if a record number exists
func (r *GormPaymentRecordRepository) ExistsByRecordNumber(ctx context.Context, tenantID uuid.UUID, recordNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Where("tenant_id = ? AND record_number = ?", tenantID, recordNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateRecordNumber generates a unique record number
func (r *GormPaymentRecordRepository) GenerateRecordNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	// Format: PR-YYYYMMDD-XXXXX
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("PR-%s-", date)

	// Find the highest number for today
	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentRecordModel{}).
		Select("record_number").
		Where("tenant_id = ? AND record_number LIKE ?", tenantID, prefix+"%").
		Order("record_number DESC").
		Limit(1).
		Pluck("record_number", &maxNumber).Error; err != nil {
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

func (r *GormPaymentRecordRepository) toDomainSlice(recordModels []models.PaymentRecordModel) []ledger.PaymentRecord {
	records := make([]ledger.PaymentRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records
}

// applyRecordFilter applies filter options to the query
func (r *GormPaymentRecordRepository) applyRecordFilter(query *gorm.DB, filter ledger.PaymentRecordFilter) *gorm.DB {
	query = r.applyRecordFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering against the column whitelist
	orderBy := ValidateSortField(filter.OrderBy, PaymentRecordSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	return query
}

// applyRecordFilterWithoutPagination applies filter options without pagination
func (r *GormPaymentRecordRepository) applyRecordFilterWithoutPagination(query *gorm.DB, filter ledger.PaymentRecordFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("record_number ILIKE ? OR obligation_number ILIKE ? OR external_ref ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.ObligationID != nil {
		query = query.Where("obligation_id = ?", *filter.ObligationID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.Channel != nil {
		query = query.Where("channel = ?", *filter.Channel)
	}
	if filter.Flagged != nil {
		query = query.Where("flagged_for_review = ?", *filter.Flagged)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}

	return query
}

// Ensure GormPaymentRecordRepository implements PaymentRecordRepository
var _ ledger.PaymentRecordRepository = (*GormPaymentRecordRepository)(nil)
