package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReconciliationFixture() (*ReconciliationService, *MockFeeObligationRepository, *MockPaymentRecordRepository, *MockEventPublisher) {
	obligationRepo := &MockFeeObligationRepository{}
	recordRepo := &MockPaymentRecordRepository{}
	publisher := &MockEventPublisher{}
	uow := &fakeUnitOfWork{obligations: obligationRepo, records: recordRepo}
	svc := NewReconciliationService(uow, publisher, nil)
	return svc, obligationRepo, recordRepo, publisher
}

func TestReconciliationService_SettlePayment(t *testing.T) {
	t.Run("settles record and credits obligation atomically", func(t *testing.T) {
		tenantID := uuid.New()
		obligation := newTestObligation(tenantID, 100000)
		record := newTestRecord(tenantID, obligation, 40000, ledger.PaymentChannelCash)

		svc, obligationRepo, recordRepo, publisher := newReconciliationFixture()
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
		obligationRepo.On("FindByIDForTenant", mock.Anything, tenantID, obligation.ID).Return(obligation, nil)
		recordRepo.On("SaveWithLock", mock.Anything, record).Return(nil)
		obligationRepo.On("SaveWithLock", mock.Anything, obligation).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		err := svc.SettlePayment(context.Background(), tenantID, record.ID, "RCPT-001", nil)
		require.NoError(t, err)

		assert.Equal(t, ledger.PaymentStateSettled, record.State)
		assert.Equal(t, "RCPT-001", record.ExternalRef)
		assert.Equal(t, int64(40000), obligation.AmountPaidMinor)
		assert.Equal(t, int64(60000), obligation.BalanceMinor)
		assert.Equal(t, ledger.ObligationStatusPartial, obligation.Status)

		recordRepo.AssertCalled(t, "SaveWithLock", mock.Anything, record)
		obligationRepo.AssertCalled(t, "SaveWithLock", mock.Anything, obligation)
		publisher.AssertCalled(t, "Publish", mock.Anything, mock.Anything)
		assert.Empty(t, record.GetDomainEvents())
		assert.Empty(t, obligation.GetDomainEvents())
	})

	t.Run("settlement of full balance marks obligation paid", func(t *testing.T) {
		tenantID := uuid.New()
		obligation := newTestObligation(tenantID, 50000)
		record := newTestRecord(tenantID, obligation, 50000, ledger.PaymentChannelBank)

		svc, obligationRepo, recordRepo, publisher := newReconciliationFixture()
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
		obligationRepo.On("FindByIDForTenant", mock.Anything, tenantID, obligation.ID).Return(obligation, nil)
		recordRepo.On("SaveWithLock", mock.Anything, record).Return(nil)
		obligationRepo.On("SaveWithLock", mock.Anything, obligation).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		err := svc.SettlePayment(context.Background(), tenantID, record.ID, "RCPT-002", nil)
		require.NoError(t, err)

		assert.Equal(t, ledger.ObligationStatusPaid, obligation.Status)
		assert.Equal(t, int64(0), obligation.BalanceMinor)
		assert.NotNil(t, obligation.PaidAt)
	})

	t.Run("already resolved record returns ErrRecordAlreadyResolved", func(t *testing.T) {
		tenantID := uuid.New()
		obligation := newTestObligation(tenantID, 100000)
		record := newTestRecord(tenantID, obligation, 40000, ledger.PaymentChannelCash)
		require.NoError(t, record.Settle("RCPT-003", nil))
		record.ClearDomainEvents()

		svc, obligationRepo, recordRepo, _ := newReconciliationFixture()
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)

		err := svc.SettlePayment(context.Background(), tenantID, record.ID, "RCPT-004", nil)
		assert.ErrorIs(t, err, ErrRecordAlreadyResolved)

		recordRepo.AssertNotCalled(t, "SaveWithLock")
		obligationRepo.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("missing record returns not found", func(t *testing.T) {
		tenantID := uuid.New()
		recordID := uuid.New()

		svc, _, recordRepo, _ := newReconciliationFixture()
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, recordID).Return(nil, nil)

		err := svc.SettlePayment(context.Background(), tenantID, recordID, "RCPT-005", nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("version conflict on record save aborts without crediting", func(t *testing.T) {
		tenantID := uuid.New()
		obligation := newTestObligation(tenantID, 100000)
		record := newTestRecord(tenantID, obligation, 40000, ledger.PaymentChannelCash)

		conflict := errors.New("OPTIMISTIC_LOCK_ERROR")
		svc, obligationRepo, recordRepo, publisher := newReconciliationFixture()
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
		obligationRepo.On("FindByIDForTenant", mock.Anything, tenantID, obligation.ID).Return(obligation, nil)
		recordRepo.On("SaveWithLock", mock.Anything, record).Return(conflict)

		err := svc.SettlePayment(context.Background(), tenantID, record.ID, "RCPT-006", nil)
		assert.ErrorIs(t, err, conflict)

		obligationRepo.AssertNotCalled(t, "SaveWithLock")
		publisher.AssertNotCalled(t, "Publish")
	})
}

func TestReconciliationService_RejectPayment(t *testing.T) {
	t.Run("rejects pending record without touching obligation", func(t *testing.T) {
		tenantID := uuid.New()
		obligation := newTestObligation(tenantID, 100000)
		record := newTestRecord(tenantID, obligation, 40000, ledger.PaymentChannelCheque)

		svc, obligationRepo, recordRepo, publisher := newReconciliationFixture()
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
		recordRepo.On("SaveWithLock", mock.Anything, record).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		err := svc.RejectPayment(context.Background(), tenantID, record.ID, "cheque bounced", nil)
		require.NoError(t, err)

		assert.Equal(t, ledger.PaymentStateRejected, record.State)
		assert.Equal(t, "cheque bounced", record.RejectReason)
		assert.Equal(t, int64(0), obligation.AmountPaidMinor)
		obligationRepo.AssertNotCalled(t, "FindByIDForTenant")
		obligationRepo.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("rejecting a settled record fails", func(t *testing.T) {
		tenantID := uuid.New()
		obligation := newTestObligation(tenantID, 100000)
		record := newTestRecord(tenantID, obligation, 40000, ledger.PaymentChannelCash)
		require.NoError(t, record.Settle("RCPT-007", nil))
		record.ClearDomainEvents()

		svc, _, recordRepo, _ := newReconciliationFixture()
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)

		err := svc.RejectPayment(context.Background(), tenantID, record.ID, "late", nil)
		assert.ErrorIs(t, err, ErrRecordAlreadyResolved)
	})
}

func TestReconciliationService_FlagPaymentForReview(t *testing.T) {
	t.Run("flags record and keeps it pending", func(t *testing.T) {
		tenantID := uuid.New()
		obligation := newTestObligation(tenantID, 100000)
		record := newTestRecord(tenantID, obligation, 40000, ledger.PaymentChannelMobileMoney)

		svc, _, recordRepo, publisher := newReconciliationFixture()
		recordRepo.On("FindByIDForTenant", mock.Anything, tenantID, record.ID).Return(record, nil)
		recordRepo.On("SaveWithLock", mock.Anything, record).Return(nil)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		err := svc.FlagPaymentForReview(context.Background(), tenantID, record.ID, "amount mismatch")
		require.NoError(t, err)

		assert.True(t, record.FlaggedForReview)
		assert.Equal(t, "amount mismatch", record.ReviewNote)
		assert.Equal(t, ledger.PaymentStatePending, record.State)
	})
}
