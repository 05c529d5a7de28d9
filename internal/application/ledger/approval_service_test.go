package ledger

import (
	"context"
	"testing"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func approverCapability() Capability {
	return Capability{OperatorID: uuid.New(), ApprovePayments: true}
}

func newApprovalFixture() (*ApprovalService, *MockFeeObligationRepository, *MockPaymentRecordRepository) {
	obligationRepo := &MockFeeObligationRepository{}
	recordRepo := &MockPaymentRecordRepository{}
	uow := &fakeUnitOfWork{obligations: obligationRepo, records: recordRepo}
	publisher := &MockEventPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	recon := NewReconciliationService(uow, publisher, nil)
	svc := NewApprovalService(recordRepo, recon, nil)
	return svc, obligationRepo, recordRepo
}

func TestApprovalService_ApproveRecord(t *testing.T) {
	t.Run("approval settles and records the operator", func(t *testing.T) {
		tenantID := uuid.New()
		obligation := newTestObligation(tenantID, 100000)
		record := newTestRecord(tenantID, obligation, 40000, ledger.PaymentChannelCash)
		cap := approverCapability()

		svc, obligationRepo, recordRepo := newApprovalFixture()
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
		obligationRepo.On("FindByIDForTenant", mock.Anything, tenantID, obligation.ID).Return(obligation, nil)
		recordRepo.On("SaveWithLock", mock.Anything, record).Return(nil)
		obligationRepo.On("SaveWithLock", mock.Anything, obligation).Return(nil)

		err := svc.ApproveRecord(context.Background(), cap, tenantID, record.ID, "DEPOSIT-4411")
		require.NoError(t, err)

		assert.Equal(t, ledger.PaymentStateSettled, record.State)
		require.NotNil(t, record.ResolvedBy)
		assert.Equal(t, cap.OperatorID, *record.ResolvedBy)
	})

	t.Run("capability without approval right is denied", func(t *testing.T) {
		svc, _, recordRepo := newApprovalFixture()

		err := svc.ApproveRecord(context.Background(), Capability{OperatorID: uuid.New(), ManageLedger: true}, uuid.New(), uuid.New(), "ref")

		assert.ErrorIs(t, err, shared.ErrForbidden)
		recordRepo.AssertNotCalled(t, "FindByIDForTenant")
	})
}

func TestApprovalService_RejectRecord(t *testing.T) {
	tenantID := uuid.New()
	obligation := newTestObligation(tenantID, 100000)
	record := newTestRecord(tenantID, obligation, 40000, ledger.PaymentChannelCheque)
	cap := approverCapability()

	svc, _, recordRepo := newApprovalFixture()
	recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
	recordRepo.On("SaveWithLock", mock.Anything, record).Return(nil)

	err := svc.RejectRecord(context.Background(), cap, tenantID, record.ID, "cheque unsupported branch")
	require.NoError(t, err)

	assert.Equal(t, ledger.PaymentStateRejected, record.State)
	assert.Equal(t, "cheque unsupported branch", record.RejectReason)
}

func TestApprovalService_BulkApprove(t *testing.T) {
	t.Run("one bad record does not stop the batch", func(t *testing.T) {
		tenantID := uuid.New()
		obligationA := newTestObligation(tenantID, 100000)
		obligationB := newTestObligation(tenantID, 100000)
		recordA := newTestRecord(tenantID, obligationA, 40000, ledger.PaymentChannelCash)
		recordB := newTestRecord(tenantID, obligationB, 30000, ledger.PaymentChannelCash)
		require.NoError(t, recordB.Settle("RCPT-PRIOR", nil))
		recordB.ClearDomainEvents()

		svc, obligationRepo, recordRepo := newApprovalFixture()
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, recordA.ID).Return(recordA, nil)
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, recordB.ID).Return(recordB, nil)
		obligationRepo.On("FindByIDForTenant", mock.Anything, tenantID, obligationA.ID).Return(obligationA, nil)
		recordRepo.On("SaveWithLock", mock.Anything, recordA).Return(nil)
		obligationRepo.On("SaveWithLock", mock.Anything, obligationA).Return(nil)

		result, err := svc.BulkApprove(context.Background(), approverCapability(), tenantID,
			[]uuid.UUID{recordA.ID, recordB.ID}, "BATCH-0415")
		require.NoError(t, err)

		assert.Equal(t, []uuid.UUID{recordA.ID}, result.Succeeded)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, recordB.ID, result.Failed[0].RecordID)
		assert.Contains(t, result.Failed[0].Reason, "already resolved")

		assert.Equal(t, ledger.PaymentStateSettled, recordA.State)
		assert.Equal(t, int64(40000), obligationA.AmountPaidMinor)
	})

	t.Run("empty batch yields empty result", func(t *testing.T) {
		svc, _, _ := newApprovalFixture()

		result, err := svc.BulkApprove(context.Background(), approverCapability(), uuid.New(), nil, "BATCH-0416")
		require.NoError(t, err)

		assert.Empty(t, result.Succeeded)
		assert.Empty(t, result.Failed)
	})

	t.Run("capability without approval right is denied", func(t *testing.T) {
		svc, _, _ := newApprovalFixture()

		_, err := svc.BulkApprove(context.Background(), Capability{OperatorID: uuid.New()}, uuid.New(), []uuid.UUID{uuid.New()}, "ref")
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestApprovalService_BulkReject(t *testing.T) {
	tenantID := uuid.New()
	obligation := newTestObligation(tenantID, 100000)
	recordA := newTestRecord(tenantID, obligation, 20000, ledger.PaymentChannelCheque)
	missingID := uuid.New()

	svc, _, recordRepo := newApprovalFixture()
	recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, recordA.ID).Return(recordA, nil)
	recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, missingID).Return(nil, nil)
	recordRepo.On("SaveWithLock", mock.Anything, recordA).Return(nil)

	result, err := svc.BulkReject(context.Background(), approverCapability(), tenantID,
		[]uuid.UUID{recordA.ID, missingID}, "batch closed unpaid")
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{recordA.ID}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, missingID, result.Failed[0].RecordID)
	assert.Equal(t, ledger.PaymentStateRejected, recordA.State)
}
