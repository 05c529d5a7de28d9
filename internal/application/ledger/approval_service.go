package ledger

import (
	"context"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BulkResolutionFailure reports why one record in a bulk request was skipped
type BulkResolutionFailure struct {
	RecordID uuid.UUID `json:"record_id"`
	Reason   string    `json:"reason"`
}

// BulkResolutionResult itemizes the outcome of a bulk approval or rejection.
// Failures never roll back the records that succeeded.
type BulkResolutionResult struct {
	Succeeded []uuid.UUID             `json:"succeeded"`
	Failed    []BulkResolutionFailure `json:"failed"`
}

// ApprovalService resolves pending manual-channel payments, singly or in
// bulk. All transitions go through the reconciliation service so approvals
// credit obligations the same way gateway confirmations do.
type ApprovalService struct {
	recordRepo        ledger.PaymentRecordRepository
	reconciliationSvc *ReconciliationService
	logger            *zap.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(recordRepo ledger.PaymentRecordRepository, reconciliationSvc *ReconciliationService, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		recordRepo:        recordRepo,
		reconciliationSvc: reconciliationSvc,
		logger:            logger,
	}
}

// ApproveRecord settles a single pending record
func (s *ApprovalService) ApproveRecord(ctx context.Context, cap Capability, tenantID, recordID uuid.UUID, externalRef string) error {
	if err := cap.RequireApprovePayments(); err != nil {
		return err
	}
	return s.reconciliationSvc.SettlePayment(ctx, tenantID, recordID, externalRef, &cap.OperatorID)
}

// RejectRecord rejects a single pending record with a reason
func (s *ApprovalService) RejectRecord(ctx context.Context, cap Capability, tenantID, recordID uuid.UUID, reason string) error {
	if err := cap.RequireApprovePayments(); err != nil {
		return err
	}
	return s.reconciliationSvc.RejectPayment(ctx, tenantID, recordID, reason, &cap.OperatorID)
}

// BulkApprove settles each record independently and reports per-record
// outcomes. One bad record does not stop the rest of the batch.
func (s *ApprovalService) BulkApprove(ctx context.Context, cap Capability, tenantID uuid.UUID, recordIDs []uuid.UUID, externalRef string) (*BulkResolutionResult, error) {
	if err := cap.RequireApprovePayments(); err != nil {
		return nil, err
	}

	result := &BulkResolutionResult{}
	for _, id := range recordIDs {
		if err := s.reconciliationSvc.SettlePayment(ctx, tenantID, id, externalRef, &cap.OperatorID); err != nil {
			result.Failed = append(result.Failed, BulkResolutionFailure{RecordID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	s.logger.Info("Bulk approval completed",
		zap.String("operator_id", cap.OperatorID.String()),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}

// BulkReject rejects each record independently with a shared reason
func (s *ApprovalService) BulkReject(ctx context.Context, cap Capability, tenantID uuid.UUID, recordIDs []uuid.UUID, reason string) (*BulkResolutionResult, error) {
	if err := cap.RequireApprovePayments(); err != nil {
		return nil, err
	}

	result := &BulkResolutionResult{}
	for _, id := range recordIDs {
		if err := s.reconciliationSvc.RejectPayment(ctx, tenantID, id, reason, &cap.OperatorID); err != nil {
			result.Failed = append(result.Failed, BulkResolutionFailure{RecordID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	s.logger.Info("Bulk rejection completed",
		zap.String("operator_id", cap.OperatorID.String()),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}
