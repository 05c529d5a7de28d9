package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// In-memory repository stubs for handler tests. They cover the happy paths
// the handlers exercise; service- and persistence-level behavior has its own
// test suites.

type stubObligationRepo struct {
	obligations map[uuid.UUID]*ledger.FeeObligation
	returnErr   error
}

func newStubObligationRepo() *stubObligationRepo {
	return &stubObligationRepo{obligations: make(map[uuid.UUID]*ledger.FeeObligation)}
}

func (s *stubObligationRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.FeeObligation, error) {
	if s.returnErr != nil {
		return nil, s.returnErr
	}
	if o, ok := s.obligations[id]; ok {
		return o, nil
	}
	return nil, nil
}

func (s *stubObligationRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FeeObligation, error) {
	if s.returnErr != nil {
		return nil, s.returnErr
	}
	if o, ok := s.obligations[id]; ok && o.TenantID == tenantID {
		return o, nil
	}
	return nil, nil
}

func (s *stubObligationRepo) FindByObligationNumber(ctx context.Context, tenantID uuid.UUID, obligationNumber string) (*ledger.FeeObligation, error) {
	for _, o := range s.obligations {
		if o.TenantID == tenantID && o.ObligationNumber == obligationNumber {
			return o, nil
		}
	}
	return nil, nil
}

func (s *stubObligationRepo) FindByScheduleItemForParty(ctx context.Context, tenantID, scheduleItemID, partyID uuid.UUID) (*ledger.FeeObligation, error) {
	for _, o := range s.obligations {
		if o.TenantID == tenantID && o.PartyID == partyID && o.ScheduleItemID != nil && *o.ScheduleItemID == scheduleItemID {
			return o, nil
		}
	}
	return nil, nil
}

func (s *stubObligationRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, error) {
	if s.returnErr != nil {
		return nil, s.returnErr
	}
	var result []ledger.FeeObligation
	for _, o := range s.obligations {
		if o.TenantID == tenantID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (s *stubObligationRepo) FindByParty(ctx context.Context, tenantID, partyID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, error) {
	var result []ledger.FeeObligation
	for _, o := range s.obligations {
		if o.TenantID == tenantID && o.PartyID == partyID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (s *stubObligationRepo) FindOutstanding(ctx context.Context, tenantID, partyID uuid.UUID) ([]ledger.FeeObligation, error) {
	var result []ledger.FeeObligation
	for _, o := range s.obligations {
		if o.TenantID == tenantID && o.PartyID == partyID && o.BalanceMinor > 0 {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (s *stubObligationRepo) FindOverdue(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) ([]ledger.FeeObligation, error) {
	now := time.Now()
	var result []ledger.FeeObligation
	for _, o := range s.obligations {
		if o.TenantID == tenantID && o.BalanceMinor > 0 && o.DueDate != nil && o.DueDate.Before(now) {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (s *stubObligationRepo) Save(ctx context.Context, obligation *ledger.FeeObligation) error {
	if s.returnErr != nil {
		return s.returnErr
	}
	s.obligations[obligation.ID] = obligation
	return nil
}

func (s *stubObligationRepo) SaveWithLock(ctx context.Context, obligation *ledger.FeeObligation) error {
	return s.Save(ctx, obligation)
}

func (s *stubObligationRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.FeeObligationFilter) (int64, error) {
	var count int64
	for _, o := range s.obligations {
		if o.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (s *stubObligationRepo) SumOutstandingByParty(ctx context.Context, tenantID, partyID uuid.UUID) (int64, error) {
	var sum int64
	for _, o := range s.obligations {
		if o.TenantID == tenantID && o.PartyID == partyID {
			sum += o.BalanceMinor
		}
	}
	return sum, nil
}

func (s *stubObligationRepo) SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var sum int64
	for _, o := range s.obligations {
		if o.TenantID == tenantID {
			sum += o.BalanceMinor
		}
	}
	return sum, nil
}

func (s *stubObligationRepo) SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	now := time.Now()
	var sum int64
	for _, o := range s.obligations {
		if o.TenantID == tenantID && o.DueDate != nil && o.DueDate.Before(now) {
			sum += o.BalanceMinor
		}
	}
	return sum, nil
}

func (s *stubObligationRepo) ExistsByObligationNumber(ctx context.Context, tenantID uuid.UUID, obligationNumber string) (bool, error) {
	o, _ := s.FindByObligationNumber(ctx, tenantID, obligationNumber)
	return o != nil, nil
}

func (s *stubObligationRepo) GenerateObligationNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return fmt.Sprintf("FO-20260415-%05d", len(s.obligations)+1), nil
}

type stubRecordRepo struct {
	records   map[uuid.UUID]*ledger.PaymentRecord
	returnErr error
	seq       int
}

func newStubRecordRepo() *stubRecordRepo {
	return &stubRecordRepo{records: make(map[uuid.UUID]*ledger.PaymentRecord)}
}

func (s *stubRecordRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentRecord, error) {
	if s.returnErr != nil {
		return nil, s.returnErr
	}
	if r, ok := s.records[id]; ok {
		return r, nil
	}
	return nil, nil
}

func (s *stubRecordRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.PaymentRecord, error) {
	if s.returnErr != nil {
		return nil, s.returnErr
	}
	if r, ok := s.records[id]; ok && r.TenantID == tenantID {
		return r, nil
	}
	return nil, nil
}

func (s *stubRecordRepo) FindByRecordNumber(ctx context.Context, tenantID uuid.UUID, recordNumber string) (*ledger.PaymentRecord, error) {
	for _, r := range s.records {
		if r.TenantID == tenantID && r.RecordNumber == recordNumber {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubRecordRepo) FindByCorrelationID(ctx context.Context, correlationID string) (*ledger.PaymentRecord, error) {
	for _, r := range s.records {
		if r.CorrelationID == correlationID {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubRecordRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentRecordFilter) ([]ledger.PaymentRecord, error) {
	if s.returnErr != nil {
		return nil, s.returnErr
	}
	var result []ledger.PaymentRecord
	for _, r := range s.records {
		if r.TenantID != tenantID {
			continue
		}
		if filter.State != nil && r.State != *filter.State {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (s *stubRecordRepo) FindByObligation(ctx context.Context, tenantID, obligationID uuid.UUID) ([]ledger.PaymentRecord, error) {
	var result []ledger.PaymentRecord
	for _, r := range s.records {
		if r.TenantID == tenantID && r.ObligationID == obligationID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (s *stubRecordRepo) FindStalePending(ctx context.Context, tenantID uuid.UUID, pendingSince time.Time) ([]ledger.PaymentRecord, error) {
	var result []ledger.PaymentRecord
	for _, r := range s.records {
		if r.TenantID == tenantID && r.State == ledger.PaymentStatePending && r.CreatedAt.Before(pendingSince) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (s *stubRecordRepo) Save(ctx context.Context, record *ledger.PaymentRecord) error {
	if s.returnErr != nil {
		return s.returnErr
	}
	s.records[record.ID] = record
	return nil
}

func (s *stubRecordRepo) SaveWithLock(ctx context.Context, record *ledger.PaymentRecord) error {
	return s.Save(ctx, record)
}

func (s *stubRecordRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentRecordFilter) (int64, error) {
	records, err := s.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

func (s *stubRecordRepo) ExistsByRecordNumber(ctx context.Context, tenantID uuid.UUID, recordNumber string) (bool, error) {
	r, _ := s.FindByRecordNumber(ctx, tenantID, recordNumber)
	return r != nil, nil
}

func (s *stubRecordRepo) GenerateRecordNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	s.seq++
	return fmt.Sprintf("PR-20260415-%05d", s.seq), nil
}

type stubDiscountRepo struct {
	codes map[string]*ledger.DiscountCode
}

func newStubDiscountRepo() *stubDiscountRepo {
	return &stubDiscountRepo{codes: make(map[string]*ledger.DiscountCode)}
}

func (s *stubDiscountRepo) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.DiscountCode, error) {
	if dc, ok := s.codes[code]; ok && dc.TenantID == tenantID {
		return dc, nil
	}
	return nil, nil
}

func (s *stubDiscountRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.DiscountCode, error) {
	var result []ledger.DiscountCode
	for _, dc := range s.codes {
		if dc.TenantID == tenantID {
			result = append(result, *dc)
		}
	}
	return result, nil
}

func (s *stubDiscountRepo) Save(ctx context.Context, code *ledger.DiscountCode) error {
	s.codes[code.Code] = code
	return nil
}

// stubGateway returns canned parse results and M-Pesa style acknowledgements
type stubGateway struct {
	parseResult *ledger.PushCallback
	parseErr    error
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) InitiatePush(ctx context.Context, req *ledger.InitiatePushRequest) (*ledger.InitiatePushResponse, error) {
	return &ledger.InitiatePushResponse{CorrelationID: "stub-correlation"}, nil
}

func (g *stubGateway) ParseCallback(payload []byte) (*ledger.PushCallback, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.parseResult, nil
}

func (g *stubGateway) GenerateCallbackResponse(success bool, message string) []byte {
	if success {
		return []byte(`{"ResultCode":0,"ResultDesc":"` + message + `"}`)
	}
	return []byte(`{"ResultCode":1,"ResultDesc":"` + message + `"}`)
}

// stubUnitOfWork runs the transactional function directly against the stubs
type stubUnitOfWork struct {
	obligations ledger.FeeObligationRepository
	records     ledger.PaymentRecordRepository
}

func (u *stubUnitOfWork) WithinTransaction(ctx context.Context, fn func(obligations ledger.FeeObligationRepository, records ledger.PaymentRecordRepository) error) error {
	return fn(u.obligations, u.records)
}

// ===================== Fixtures =====================

func newHandlerTestObligation(tenantID uuid.UUID, dueMinor int64) *ledger.FeeObligation {
	obligation, err := ledger.NewFeeObligation(
		tenantID,
		fmt.Sprintf("FO-20260415-%05d", time.Now().UnixNano()%100000),
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

func newHandlerTestRecord(tenantID uuid.UUID, obligation *ledger.FeeObligation, grossMinor int64, channel ledger.PaymentChannel) *ledger.PaymentRecord {
	record, err := ledger.NewPaymentRecord(
		tenantID,
		fmt.Sprintf("PR-20260415-%05d", time.Now().UnixNano()%100000),
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
