package ledger

import (
	"context"
	"time"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Fee Obligation Repository
// =============================================================================

type MockFeeObligationRepository struct {
	mock.Mock
}

func (m *MockFeeObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.FeeObligation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.FeeObligation), args.Error(1)
}

func (m *MockFeeObligationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FeeObligation, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.FeeObligation), args.Error(1)
}

func (m *MockFeeObligationRepository) FindByObligationNumber(ctx context.Context, tenantID uuid.UUID, obligationNumber string) (*ledger.FeeObligation, error) {
	args := m.Called(ctx, tenantID, obligationNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.FeeObligation), args.Error(1)
}

func (m *MockFeeObligationRepository) FindByScheduleItemForParty(ctx context.Context, tenantID, scheduleItemID, partyID uuid.UUID) (*ledger.FeeObligation, error) {
	args := m.Called(ctx, tenantID, scheduleItemID, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.FeeObligation), args.Error(1)
}

func (m *MockFeeObligationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]ledger.FeeObligation), args.Error(1)
}

func (m *MockFeeObligationRepository) FindByParty(ctx context.Context, tenantID, partyID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, error) {
	args := m.Called(ctx, tenantID, partyID, filter)
	return args.Get(0).([]ledger.FeeObligation), args.Error(1)
}

func (m *MockFeeObligationRepository) FindOutstanding(ctx context.Context, tenantID, partyID uuid.UUID) ([]ledger.FeeObligation, error) {
	args := m.Called(ctx, tenantID, partyID)
	return args.Get(0).([]ledger.FeeObligation), args.Error(1)
}

func (m *MockFeeObligationRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]ledger.FeeObligation), args.Error(1)
}

func (m *MockFeeObligationRepository) Save(ctx context.Context, obligation *ledger.FeeObligation) error {
	args := m.Called(ctx, obligation)
	return args.Error(0)
}

func (m *MockFeeObligationRepository) SaveWithLock(ctx context.Context, obligation *ledger.FeeObligation) error {
	args := m.Called(ctx, obligation)
	return args.Error(0)
}

func (m *MockFeeObligationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFeeObligationRepository) SumOutstandingByParty(ctx context.Context, tenantID, partyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, partyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFeeObligationRepository) SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFeeObligationRepository) SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFeeObligationRepository) ExistsByObligationNumber(ctx context.Context, tenantID uuid.UUID, obligationNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, obligationNumber)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockFeeObligationRepository) GenerateObligationNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(string), args.Error(1)
}

// =============================================================================
// Mock Payment Record Repository
// =============================================================================

type MockPaymentRecordRepository struct {
	mock.Mock
}

func (m *MockPaymentRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindByRecordNumber(ctx context.Context, tenantID uuid.UUID, recordNumber string) (*ledger.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, recordNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindByCorrelationID(ctx context.Context, correlationID string) (*ledger.PaymentRecord, error) {
	args := m.Called(ctx, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentRecordFilter) ([]ledger.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]ledger.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindByObligation(ctx context.Context, tenantID, obligationID uuid.UUID) ([]ledger.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, obligationID)
	return args.Get(0).([]ledger.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) FindStalePending(ctx context.Context, tenantID uuid.UUID, pendingSince time.Time) ([]ledger.PaymentRecord, error) {
	args := m.Called(ctx, tenantID, pendingSince)
	return args.Get(0).([]ledger.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRecordRepository) Save(ctx context.Context, record *ledger.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPaymentRecordRepository) SaveWithLock(ctx context.Context, record *ledger.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPaymentRecordRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentRecordFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRecordRepository) ExistsByRecordNumber(ctx context.Context, tenantID uuid.UUID, recordNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, recordNumber)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockPaymentRecordRepository) GenerateRecordNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(string), args.Error(1)
}

// =============================================================================
// Mock Fee Schedule Item Repository
// =============================================================================

type MockFeeScheduleItemRepository struct {
	mock.Mock
}

func (m *MockFeeScheduleItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.FeeScheduleItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.FeeScheduleItem), args.Error(1)
}

func (m *MockFeeScheduleItemRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FeeScheduleItem, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.FeeScheduleItem), args.Error(1)
}

func (m *MockFeeScheduleItemRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]ledger.FeeScheduleItem, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]ledger.FeeScheduleItem), args.Error(1)
}

func (m *MockFeeScheduleItemRepository) FindMandatoryForTenant(ctx context.Context, tenantID uuid.UUID) ([]ledger.FeeScheduleItem, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]ledger.FeeScheduleItem), args.Error(1)
}

func (m *MockFeeScheduleItemRepository) Save(ctx context.Context, item *ledger.FeeScheduleItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// =============================================================================
// Mock Discount Code Repository
// =============================================================================

type MockDiscountCodeRepository struct {
	mock.Mock
}

func (m *MockDiscountCodeRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.DiscountCode, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.DiscountCode), args.Error(1)
}

func (m *MockDiscountCodeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.DiscountCode, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]ledger.DiscountCode), args.Error(1)
}

func (m *MockDiscountCodeRepository) Save(ctx context.Context, code *ledger.DiscountCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

// =============================================================================
// Mock Push Gateway
// =============================================================================

type MockPushGateway struct {
	mock.Mock
}

func (m *MockPushGateway) Name() string {
	args := m.Called()
	return args.Get(0).(string)
}

func (m *MockPushGateway) InitiatePush(ctx context.Context, req *ledger.InitiatePushRequest) (*ledger.InitiatePushResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InitiatePushResponse), args.Error(1)
}

func (m *MockPushGateway) ParseCallback(payload []byte) (*ledger.PushCallback, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.PushCallback), args.Error(1)
}

func (m *MockPushGateway) GenerateCallbackResponse(success bool, message string) []byte {
	args := m.Called(success, message)
	return args.Get(0).([]byte)
}

// =============================================================================
// Mock Event Publisher
// =============================================================================

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// =============================================================================
// Fake Unit of Work
// =============================================================================

// fakeUnitOfWork runs the transactional function directly against the given
// repositories. Atomicity itself is covered by the persistence tests.
type fakeUnitOfWork struct {
	obligations ledger.FeeObligationRepository
	records     ledger.PaymentRecordRepository
}

func (u *fakeUnitOfWork) WithinTransaction(ctx context.Context, fn func(obligations ledger.FeeObligationRepository, records ledger.PaymentRecordRepository) error) error {
	return fn(u.obligations, u.records)
}

// =============================================================================
// Test Fixtures
// =============================================================================

func newTestObligation(tenantID uuid.UUID, dueMinor int64) *ledger.FeeObligation {
	obligation, err := ledger.NewFeeObligation(
		tenantID,
		"FO-20260415-00001",
		uuid.New(),
		"Wanjiru Kamau",
		"TUITION",
		nil,
		valueobject.MustNewMoney(dueMinor, valueobject.KES),
		nil,
	)
	if err != nil {
		panic(err)
	}
	obligation.ClearDomainEvents()
	return obligation
}

func newTestRecord(tenantID uuid.UUID, obligation *ledger.FeeObligation, grossMinor int64, channel ledger.PaymentChannel) *ledger.PaymentRecord {
	record, err := ledger.NewPaymentRecord(
		tenantID,
		"PR-20260415-00001",
		obligation,
		valueobject.MustNewMoney(grossMinor, valueobject.KES),
		valueobject.Zero(valueobject.KES),
		valueobject.Zero(valueobject.KES),
		channel,
		"",
		"",
	)
	if err != nil {
		panic(err)
	}
	record.ClearDomainEvents()
	return record
}
