package ledger

import (
	"context"
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FeeObligationFilter defines filtering options for obligation queries
type FeeObligationFilter struct {
	shared.Filter
	PartyID        *uuid.UUID        // Filter by owing party
	Status         *ObligationStatus // Filter by status
	FeeType        *string           // Filter by fee type
	ScheduleItemID *uuid.UUID        // Filter by source schedule item
	DueFrom        *time.Time        // Filter by due date range start
	DueTo          *time.Time        // Filter by due date range end
	Overdue        *bool             // Filter only overdue obligations
	MinBalance     *int64            // Filter by minimum outstanding balance (minor units)
	MaxBalance     *int64            // Filter by maximum outstanding balance (minor units)
}

// FeeObligationRepository defines the interface for fee obligation persistence
type FeeObligationRepository interface {
	// FindByID finds a fee obligation by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FeeObligation, error)

	// FindByIDForTenant finds a fee obligation by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeObligation, error)

	// FindByObligationNumber finds by obligation number for a tenant
	FindByObligationNumber(ctx context.Context, tenantID uuid.UUID, obligationNumber string) (*FeeObligation, error)

	// FindByScheduleItemForParty finds the obligation a schedule item produced
	// for a party, if any. Used for idempotent enrollment.
	FindByScheduleItemForParty(ctx context.Context, tenantID, scheduleItemID, partyID uuid.UUID) (*FeeObligation, error)

	// FindAllForTenant finds all fee obligations for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter FeeObligationFilter) ([]FeeObligation, error)

	// FindByParty finds fee obligations for an owing party
	FindByParty(ctx context.Context, tenantID, partyID uuid.UUID, filter FeeObligationFilter) ([]FeeObligation, error)

	// FindOutstanding finds all obligations with a non-zero balance for a party
	FindOutstanding(ctx context.Context, tenantID, partyID uuid.UUID) ([]FeeObligation, error)

	// FindOverdue finds all overdue obligations for a tenant
	FindOverdue(ctx context.Context, tenantID uuid.UUID, filter FeeObligationFilter) ([]FeeObligation, error)

	// Save creates or updates a fee obligation
	Save(ctx context.Context, obligation *FeeObligation) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, obligation *FeeObligation) error

	// CountForTenant counts fee obligations for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter FeeObligationFilter) (int64, error)

	// SumOutstandingByParty sums the outstanding balance for a party (minor units)
	SumOutstandingByParty(ctx context.Context, tenantID, partyID uuid.UUID) (int64, error)

	// SumOutstandingForTenant sums the outstanding balance across the tenant (minor units)
	SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// SumOverdueForTenant sums the overdue balance across the tenant (minor units)
	SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// ExistsByObligationNumber checks if an obligation number exists for a tenant
	ExistsByObligationNumber(ctx context.Context, tenantID uuid.UUID, obligationNumber string) (bool, error)

	// GenerateObligationNumber generates a unique obligation number for a tenant
	GenerateObligationNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// PaymentRecordFilter defines filtering options for payment record queries
type PaymentRecordFilter struct {
	shared.Filter
	PartyID      *uuid.UUID      // Filter by owing party
	ObligationID *uuid.UUID      // Filter by obligation
	State        *PaymentState   // Filter by reconciliation state
	Channel      *PaymentChannel // Filter by payment channel
	Flagged      *bool           // Filter records flagged for review
	FromDate     *time.Time      // Filter by declaration date range start
	ToDate       *time.Time      // Filter by declaration date range end
}

// PaymentRecordRepository defines the interface for payment record persistence
type PaymentRecordRepository interface {
	// FindByID finds a payment record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentRecord, error)

	// FindByIDForTenant finds a payment record by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PaymentRecord, error)

	// FindByRecordNumber finds by record number for a tenant
	FindByRecordNumber(ctx context.Context, tenantID uuid.UUID, recordNumber string) (*PaymentRecord, error)

	// FindByCorrelationID finds the record a gateway push correlates to
	FindByCorrelationID(ctx context.Context, correlationID string) (*PaymentRecord, error)

	// FindAllForTenant finds all payment records for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentRecordFilter) ([]PaymentRecord, error)

	// FindByObligation finds payment records against an obligation
	FindByObligation(ctx context.Context, tenantID, obligationID uuid.UUID) ([]PaymentRecord, error)

	// FindStalePending finds mobile-money records pending longer than the
	// given cutoff, for operator surfacing. Records are never auto-expired.
	FindStalePending(ctx context.Context, tenantID uuid.UUID, pendingSince time.Time) ([]PaymentRecord, error)

	// Save creates or updates a payment record
	Save(ctx context.Context, record *PaymentRecord) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, record *PaymentRecord) error

	// CountForTenant counts payment records for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentRecordFilter) (int64, error)

	// ExistsByRecordNumber checks if a record number exists for a tenant
	ExistsByRecordNumber(ctx context.Context, tenantID uuid.UUID, recordNumber string) (bool, error)

	// GenerateRecordNumber generates a unique record number for a tenant
	GenerateRecordNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// FeeScheduleItemRepository defines the interface for schedule item persistence
type FeeScheduleItemRepository interface {
	// FindByID finds a schedule item by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FeeScheduleItem, error)

	// FindByIDForTenant finds a schedule item by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeScheduleItem, error)

	// FindActiveForTenant finds all active schedule items for a tenant
	FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]FeeScheduleItem, error)

	// FindMandatoryForTenant finds all active mandatory schedule items
	FindMandatoryForTenant(ctx context.Context, tenantID uuid.UUID) ([]FeeScheduleItem, error)

	// Save creates or updates a schedule item
	Save(ctx context.Context, item *FeeScheduleItem) error
}

// DiscountCodeRepository defines the interface for discount code persistence
type DiscountCodeRepository interface {
	// FindByCode finds a discount code by its code for a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*DiscountCode, error)

	// FindAllForTenant finds all discount codes for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]DiscountCode, error)

	// Save creates or updates a discount code
	Save(ctx context.Context, code *DiscountCode) error
}

// UnitOfWork executes a function with transaction-scoped repositories so the
// payment record transition and the obligation credit commit or roll back
// together.
type UnitOfWork interface {
	// WithinTransaction runs fn inside one database transaction. The
	// repositories passed to fn are bound to that transaction.
	WithinTransaction(ctx context.Context, fn func(obligations FeeObligationRepository, records PaymentRecordRepository) error) error
}
