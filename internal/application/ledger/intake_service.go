package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeclarePaymentRequest carries the input for declaring a payment against an
// obligation. Amounts are minor units in the obligation's currency.
type DeclarePaymentRequest struct {
	TenantID         uuid.UUID
	ObligationID     uuid.UUID
	GrossMinor       int64
	Channel          ledger.PaymentChannel
	DiscountCode     string
	ScholarshipMinor int64
	PayerPhone       string
	Remark           string
}

// DeclarePaymentResult reports the declared record and the amounts that were
// computed during intake.
type DeclarePaymentResult struct {
	Record        *ledger.PaymentRecord
	DiscountMinor int64
	NetMinor      int64
}

// PaymentIntakeService declares payments against fee obligations. Mobile-money
// declarations initiate the gateway push before the record is persisted, so a
// failed push leaves no pending record behind.
type PaymentIntakeService struct {
	obligationRepo ledger.FeeObligationRepository
	recordRepo     ledger.PaymentRecordRepository
	discountRepo   ledger.DiscountCodeRepository
	gateway        ledger.PushGateway
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// PaymentIntakeServiceConfig holds dependencies for the intake service
type PaymentIntakeServiceConfig struct {
	ObligationRepo ledger.FeeObligationRepository
	RecordRepo     ledger.PaymentRecordRepository
	DiscountRepo   ledger.DiscountCodeRepository
	Gateway        ledger.PushGateway
	EventPublisher shared.EventPublisher
	Logger         *zap.Logger
}

// NewPaymentIntakeService creates a new PaymentIntakeService
func NewPaymentIntakeService(config PaymentIntakeServiceConfig) *PaymentIntakeService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentIntakeService{
		obligationRepo: config.ObligationRepo,
		recordRepo:     config.RecordRepo,
		discountRepo:   config.DiscountRepo,
		gateway:        config.Gateway,
		eventPublisher: config.EventPublisher,
		logger:         logger,
	}
}

// DeclarePayment declares a payment against an obligation. The record is
// created pending; settlement only ever happens through reconciliation.
func (s *PaymentIntakeService) DeclarePayment(ctx context.Context, cap Capability, req DeclarePaymentRequest) (*DeclarePaymentResult, error) {
	if err := cap.RequireManageLedger(); err != nil {
		return nil, err
	}

	obligation, err := s.obligationRepo.FindByIDForTenant(ctx, req.TenantID, req.ObligationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find obligation: %w", err)
	}
	if obligation == nil {
		return nil, fmt.Errorf("%w: obligation %s", shared.ErrNotFound, req.ObligationID)
	}

	gross, err := valueobject.NewMoney(req.GrossMinor, obligation.Currency)
	if err != nil {
		return nil, err
	}

	discount, err := s.resolveDiscount(ctx, req.TenantID, req.DiscountCode, gross)
	if err != nil {
		return nil, err
	}

	scholarship, err := valueobject.NewMoney(req.ScholarshipMinor, obligation.Currency)
	if err != nil {
		return nil, err
	}

	recordNumber, err := s.recordRepo.GenerateRecordNumber(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate record number: %w", err)
	}

	record, err := ledger.NewPaymentRecord(
		req.TenantID, recordNumber, obligation,
		gross, discount, scholarship,
		req.Channel, req.DiscountCode, req.Remark,
	)
	if err != nil {
		return nil, err
	}
	record.SetCreatedBy(cap.OperatorID)

	// Initiate the push before persisting anything. A gateway failure must
	// not leave a pending record that no callback will ever resolve.
	if req.Channel.RequiresGateway() {
		if err := s.initiatePush(ctx, record, req.PayerPhone); err != nil {
			return nil, err
		}
	}

	if err := s.recordRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save payment record: %w", err)
	}

	s.logger.Info("Payment declared",
		zap.String("record_number", record.RecordNumber),
		zap.String("obligation_number", record.ObligationNumber),
		zap.String("channel", string(record.Channel)),
		zap.Int64("gross_minor", record.GrossMinor),
		zap.Int64("net_minor", record.NetMinor))

	s.publishEvents(ctx, record)

	return &DeclarePaymentResult{
		Record:        record,
		DiscountMinor: record.DiscountMinor,
		NetMinor:      record.NetMinor,
	}, nil
}

// resolveDiscount turns a discount code into an amount. An unknown or
// unusable code is an error, never a silent zero.
func (s *PaymentIntakeService) resolveDiscount(ctx context.Context, tenantID uuid.UUID, code string, gross valueobject.Money) (valueobject.Money, error) {
	if code == "" {
		return valueobject.Zero(gross.Currency()), nil
	}

	dc, err := s.discountRepo.FindByCode(ctx, tenantID, code)
	if err != nil {
		return valueobject.Money{}, fmt.Errorf("failed to find discount code: %w", err)
	}
	if dc == nil {
		return valueobject.Money{}, shared.NewDomainError("DISCOUNT_NOT_FOUND", fmt.Sprintf("Unknown discount code %q", code))
	}

	return dc.ComputeDiscount(gross, time.Now())
}

func (s *PaymentIntakeService) initiatePush(ctx context.Context, record *ledger.PaymentRecord, payerPhone string) error {
	if s.gateway == nil {
		return ledger.ErrGatewayNotConfigured
	}

	pushReq := &ledger.InitiatePushRequest{
		TenantID:    record.TenantID,
		RecordID:    record.ID,
		Reference:   record.RecordNumber,
		AmountMinor: record.NetMinor,
		Currency:    string(record.Currency),
		PayerPhone:  payerPhone,
		Narration:   fmt.Sprintf("Fee payment %s", record.ObligationNumber),
	}
	if err := pushReq.Validate(); err != nil {
		return err
	}

	resp, err := s.gateway.InitiatePush(ctx, pushReq)
	if err != nil {
		s.logger.Warn("Push initiation failed",
			zap.String("gateway", s.gateway.Name()),
			zap.String("record_number", record.RecordNumber),
			zap.Error(err))
		return err
	}

	s.logger.Info("Push initiated",
		zap.String("gateway", s.gateway.Name()),
		zap.String("record_number", record.RecordNumber),
		zap.String("correlation_id", resp.CorrelationID))

	return record.AttachPush(resp.CorrelationID, payerPhone)
}

func (s *PaymentIntakeService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, agg := range aggregates {
		if agg == nil || len(agg.GetDomainEvents()) == 0 {
			continue
		}
		if err := s.eventPublisher.Publish(ctx, agg.GetDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish domain events",
				zap.String("aggregate_id", agg.GetID().String()),
				zap.Error(err))
		}
		agg.ClearDomainEvents()
	}
}
