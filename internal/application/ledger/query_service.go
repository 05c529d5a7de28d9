package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PartyStatement summarizes one party's position across the ledger
type PartyStatement struct {
	PartyID          uuid.UUID              `json:"party_id"`
	Obligations      []ledger.FeeObligation `json:"obligations"`
	Records          []ledger.PaymentRecord `json:"records"`
	OutstandingMinor int64                  `json:"outstanding_minor"`
}

// TenantLedgerSummary aggregates balances across one tenant
type TenantLedgerSummary struct {
	ObligationCount  int64 `json:"obligation_count"`
	OutstandingMinor int64 `json:"outstanding_minor"`
	OverdueMinor     int64 `json:"overdue_minor"`
	PendingRecords   int64 `json:"pending_records"`
}

// LedgerQueryService serves read-side views of obligations and payment
// records. It never mutates the ledger.
type LedgerQueryService struct {
	obligationRepo ledger.FeeObligationRepository
	recordRepo     ledger.PaymentRecordRepository
	logger         *zap.Logger
}

// NewLedgerQueryService creates a new LedgerQueryService
func NewLedgerQueryService(obligationRepo ledger.FeeObligationRepository, recordRepo ledger.PaymentRecordRepository, logger *zap.Logger) *LedgerQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerQueryService{
		obligationRepo: obligationRepo,
		recordRepo:     recordRepo,
		logger:         logger,
	}
}

// GetObligation returns one obligation for a tenant
func (s *LedgerQueryService) GetObligation(ctx context.Context, tenantID, obligationID uuid.UUID) (*ledger.FeeObligation, error) {
	obligation, err := s.obligationRepo.FindByIDForTenant(ctx, tenantID, obligationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find obligation: %w", err)
	}
	if obligation == nil {
		return nil, fmt.Errorf("%w: obligation %s", shared.ErrNotFound, obligationID)
	}
	return obligation, nil
}

// ListObligations returns obligations for a tenant with filtering
func (s *LedgerQueryService) ListObligations(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, int64, error) {
	obligations, err := s.obligationRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list obligations: %w", err)
	}
	total, err := s.obligationRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count obligations: %w", err)
	}
	return obligations, total, nil
}

// ListOverdueObligations returns obligations past their due date with a
// remaining balance
func (s *LedgerQueryService) ListOverdueObligations(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, error) {
	obligations, err := s.obligationRepo.FindOverdue(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue obligations: %w", err)
	}
	return obligations, nil
}

// GetRecord returns one payment record for a tenant
func (s *LedgerQueryService) GetRecord(ctx context.Context, tenantID, recordID uuid.UUID) (*ledger.PaymentRecord, error) {
	record, err := s.recordRepo.FindByIDForTenant(ctx, tenantID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment record: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: payment record %s", shared.ErrNotFound, recordID)
	}
	return record, nil
}

// ListRecords returns payment records for a tenant with filtering
func (s *LedgerQueryService) ListRecords(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentRecordFilter) ([]ledger.PaymentRecord, int64, error) {
	records, err := s.recordRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payment records: %w", err)
	}
	total, err := s.recordRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payment records: %w", err)
	}
	return records, total, nil
}

// ListStalePendingRecords returns mobile-money records that have been pending
// longer than maxAge. They stay pending until an operator resolves them.
func (s *LedgerQueryService) ListStalePendingRecords(ctx context.Context, tenantID uuid.UUID, maxAge time.Duration) ([]ledger.PaymentRecord, error) {
	cutoff := time.Now().Add(-maxAge)
	records, err := s.recordRepo.FindStalePending(ctx, tenantID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending records: %w", err)
	}
	return records, nil
}

// GetPartyStatement returns a party's obligations, payment history and
// outstanding balance
func (s *LedgerQueryService) GetPartyStatement(ctx context.Context, tenantID, partyID uuid.UUID) (*PartyStatement, error) {
	obligations, err := s.obligationRepo.FindByParty(ctx, tenantID, partyID, ledger.FeeObligationFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load party obligations: %w", err)
	}

	outstanding, err := s.obligationRepo.SumOutstandingByParty(ctx, tenantID, partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum outstanding balance: %w", err)
	}

	filter := ledger.PaymentRecordFilter{PartyID: &partyID}
	records, err := s.recordRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load party records: %w", err)
	}

	return &PartyStatement{
		PartyID:          partyID,
		Obligations:      obligations,
		Records:          records,
		OutstandingMinor: outstanding,
	}, nil
}

// GetTenantSummary aggregates ledger totals for dashboards
func (s *LedgerQueryService) GetTenantSummary(ctx context.Context, tenantID uuid.UUID) (*TenantLedgerSummary, error) {
	count, err := s.obligationRepo.CountForTenant(ctx, tenantID, ledger.FeeObligationFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count obligations: %w", err)
	}

	outstanding, err := s.obligationRepo.SumOutstandingForTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum outstanding balance: %w", err)
	}

	overdue, err := s.obligationRepo.SumOverdueForTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum overdue balance: %w", err)
	}

	pendingState := ledger.PaymentStatePending
	pending, err := s.recordRepo.CountForTenant(ctx, tenantID, ledger.PaymentRecordFilter{State: &pendingState})
	if err != nil {
		return nil, fmt.Errorf("failed to count pending records: %w", err)
	}

	return &TenantLedgerSummary{
		ObligationCount:  count,
		OutstandingMinor: outstanding,
		OverdueMinor:     overdue,
		PendingRecords:   pending,
	}, nil
}
