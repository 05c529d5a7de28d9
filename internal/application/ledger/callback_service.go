package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	// ErrCallbackInvalidPayload is returned when the callback payload cannot be parsed
	ErrCallbackInvalidPayload = errors.New("push callback: invalid payload")
	// ErrCallbackRecordNotFound is returned when no record matches the callback correlation
	ErrCallbackRecordNotFound = errors.New("push callback: no payment record for correlation")
	// ErrCallbackAmountMismatch is returned when the confirmed amount differs
	// from the declared net amount; the record is flagged, never auto-settled
	ErrCallbackAmountMismatch = errors.New("push callback: confirmed amount differs from declared amount")
)

// PushCallbackService processes asynchronous gateway confirmations.
// It implements the PushCallbackHandler interface defined in the domain layer.
type PushCallbackService struct {
	gateway            ledger.PushGateway
	recordRepo         ledger.PaymentRecordRepository
	reconciliationSvc  *ReconciliationService
	logger             *zap.Logger
	processedCallbacks sync.Map // For idempotency checking within the process
}

// PushCallbackServiceConfig holds configuration for the callback service
type PushCallbackServiceConfig struct {
	Gateway           ledger.PushGateway
	RecordRepo        ledger.PaymentRecordRepository
	ReconciliationSvc *ReconciliationService
	Logger            *zap.Logger
}

// NewPushCallbackService creates a new PushCallbackService
func NewPushCallbackService(config PushCallbackServiceConfig) *PushCallbackService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PushCallbackService{
		gateway:           config.Gateway,
		recordRepo:        config.RecordRepo,
		reconciliationSvc: config.ReconciliationSvc,
		logger:            logger,
	}
}

// PushCallbackResult represents the result of processing a push callback
type PushCallbackResult struct {
	Success          bool                 `json:"success"`
	AlreadyProcessed bool                 `json:"already_processed,omitempty"`
	Callback         *ledger.PushCallback `json:"callback,omitempty"`
	Error            error                `json:"-"`
	GatewayResponse  []byte               `json:"-"`
}

// ProcessPushCallback parses a raw callback payload and applies it. The
// returned GatewayResponse is the acknowledgement body for the provider.
func (s *PushCallbackService) ProcessPushCallback(ctx context.Context, payload []byte) (*PushCallbackResult, error) {
	callback, err := s.gateway.ParseCallback(payload)
	if err != nil {
		s.logger.Warn("Push callback parse failed",
			zap.String("gateway", s.gateway.Name()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCallbackInvalidPayload, err)
	}

	s.logger.Info("Push callback received",
		zap.String("gateway", s.gateway.Name()),
		zap.String("correlation_id", callback.CorrelationID),
		zap.String("status", string(callback.Status)),
		zap.Int64("amount_minor", callback.AmountMinor))

	// In-process idempotency guard; the state re-check inside the
	// transaction covers redeliveries across restarts.
	idempotencyKey := fmt.Sprintf("push:%s:%s", s.gateway.Name(), callback.CorrelationID)
	if _, loaded := s.processedCallbacks.LoadOrStore(idempotencyKey, time.Now()); loaded {
		s.logger.Info("Push callback already processed (idempotency check)",
			zap.String("idempotency_key", idempotencyKey))
		return &PushCallbackResult{
			Success:          true,
			AlreadyProcessed: true,
			GatewayResponse:  s.gateway.GenerateCallbackResponse(true, ""),
		}, nil
	}

	if err := s.HandlePushCallback(ctx, callback); err != nil {
		// Remove from processed on error to allow redelivery
		s.processedCallbacks.Delete(idempotencyKey)

		// A redelivery that raced the first delivery is still an ack
		if errors.Is(err, ErrRecordAlreadyResolved) {
			return &PushCallbackResult{
				Success:          true,
				AlreadyProcessed: true,
				Callback:         callback,
				GatewayResponse:  s.gateway.GenerateCallbackResponse(true, ""),
			}, nil
		}

		s.logger.Error("Failed to handle push callback",
			zap.String("correlation_id", callback.CorrelationID),
			zap.Error(err))

		return &PushCallbackResult{
			Success:         false,
			Callback:        callback,
			Error:           err,
			GatewayResponse: s.gateway.GenerateCallbackResponse(false, err.Error()),
		}, err
	}

	return &PushCallbackResult{
		Success:         true,
		Callback:        callback,
		GatewayResponse: s.gateway.GenerateCallbackResponse(true, ""),
	}, nil
}

// HandlePushCallback applies a parsed callback to the owning payment record.
// Successful confirmations settle the record; failed, cancelled and timed-out
// pushes reject it; a confirmed amount that differs from the declared net
// amount flags the record for manual review and leaves it pending.
func (s *PushCallbackService) HandlePushCallback(ctx context.Context, callback *ledger.PushCallback) error {
	record, err := s.recordRepo.FindByCorrelationID(ctx, callback.CorrelationID)
	if err != nil {
		return fmt.Errorf("failed to find payment record: %w", err)
	}
	if record == nil {
		s.logger.Warn("No payment record for push callback",
			zap.String("correlation_id", callback.CorrelationID))
		return ErrCallbackRecordNotFound
	}

	// Redelivered confirmation for a resolved record is a no-op ack
	if record.State.IsTerminal() {
		s.logger.Info("Push callback for already resolved record",
			zap.String("record_number", record.RecordNumber),
			zap.String("state", string(record.State)))
		return nil
	}

	if !callback.Status.IsSuccess() {
		reason := fmt.Sprintf("gateway reported %s: %s", callback.Status, callback.ResultDescription)
		return s.reconciliationSvc.RejectPayment(ctx, record.TenantID, record.ID, reason, nil)
	}

	if callback.AmountMinor != record.NetMinor {
		note := fmt.Sprintf("gateway confirmed %d, declared net %d (receipt %s)",
			callback.AmountMinor, record.NetMinor, callback.ReceiptNumber)
		if err := s.reconciliationSvc.FlagPaymentForReview(ctx, record.TenantID, record.ID, note); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", shared.ErrIntegrityFault, note)
	}

	return s.reconciliationSvc.SettlePayment(ctx, record.TenantID, record.ID, callback.ReceiptNumber, nil)
}

// Ensure PushCallbackService implements the domain interface
var _ ledger.PushCallbackHandler = (*PushCallbackService)(nil)
