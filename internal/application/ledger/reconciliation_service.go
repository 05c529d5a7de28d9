package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrRecordAlreadyResolved is returned when a transition targets a record
	// that has already been settled or rejected
	ErrRecordAlreadyResolved = errors.New("reconciliation: payment record already resolved")
)

// ReconciliationService owns the Pending -> {Settled, Rejected} transition.
// It is the single writer of obligation paid amounts: a settlement updates the
// payment record and credits the owning obligation inside one database
// transaction, guarded by optimistic version checks on both aggregates.
type ReconciliationService struct {
	uow            ledger.UnitOfWork
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(uow ledger.UnitOfWork, eventPublisher shared.EventPublisher, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		uow:            uow,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// SettlePayment settles a pending record and credits the owning obligation
// atomically. The record is re-read inside the transaction so a concurrent
// resolution surfaces as ErrRecordAlreadyResolved rather than a double credit.
func (s *ReconciliationService) SettlePayment(ctx context.Context, tenantID, recordID uuid.UUID, externalRef string, resolvedBy *uuid.UUID) error {
	var settled *ledger.PaymentRecord
	var credited *ledger.FeeObligation

	err := s.uow.WithinTransaction(ctx, func(obligations ledger.FeeObligationRepository, records ledger.PaymentRecordRepository) error {
		record, err := records.FindByIDForTenant(ctx, tenantID, recordID)
		if err != nil {
			return fmt.Errorf("failed to load payment record: %w", err)
		}
		if record == nil {
			return shared.ErrNotFound
		}
		if record.State.IsTerminal() {
			return ErrRecordAlreadyResolved
		}

		obligation, err := obligations.FindByIDForTenant(ctx, tenantID, record.ObligationID)
		if err != nil {
			return fmt.Errorf("failed to load obligation: %w", err)
		}
		if obligation == nil {
			return shared.ErrNotFound
		}

		if err := record.Settle(externalRef, resolvedBy); err != nil {
			return err
		}
		if err := obligation.Credit(record.GetNetMoney(), record.ID, record.ExternalRef); err != nil {
			return err
		}

		if err := records.SaveWithLock(ctx, record); err != nil {
			return fmt.Errorf("failed to save payment record: %w", err)
		}
		if err := obligations.SaveWithLock(ctx, obligation); err != nil {
			return fmt.Errorf("failed to save obligation: %w", err)
		}

		settled = record
		credited = obligation
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Payment settled",
		zap.String("record_id", settled.ID.String()),
		zap.String("record_number", settled.RecordNumber),
		zap.String("obligation_number", credited.ObligationNumber),
		zap.Int64("net_minor", settled.NetMinor),
		zap.String("obligation_status", string(credited.Status)))

	s.publishEvents(ctx, settled, credited)

	return nil
}

// RejectPayment rejects a pending record with a reason. The obligation is
// untouched; a rejection never credits anything.
func (s *ReconciliationService) RejectPayment(ctx context.Context, tenantID, recordID uuid.UUID, reason string, resolvedBy *uuid.UUID) error {
	var rejected *ledger.PaymentRecord

	err := s.uow.WithinTransaction(ctx, func(_ ledger.FeeObligationRepository, records ledger.PaymentRecordRepository) error {
		record, err := records.FindByIDForTenant(ctx, tenantID, recordID)
		if err != nil {
			return fmt.Errorf("failed to load payment record: %w", err)
		}
		if record == nil {
			return shared.ErrNotFound
		}
		if record.State.IsTerminal() {
			return ErrRecordAlreadyResolved
		}

		if err := record.Reject(reason, resolvedBy); err != nil {
			return err
		}
		if err := records.SaveWithLock(ctx, record); err != nil {
			return fmt.Errorf("failed to save payment record: %w", err)
		}

		rejected = record
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Payment rejected",
		zap.String("record_id", rejected.ID.String()),
		zap.String("record_number", rejected.RecordNumber),
		zap.String("reason", reason))

	s.publishEvents(ctx, rejected, nil)

	return nil
}

// FlagPaymentForReview flags a still-pending record for manual review, used
// when a gateway confirmation disagrees with the declared amount. The record
// stays pending.
func (s *ReconciliationService) FlagPaymentForReview(ctx context.Context, tenantID, recordID uuid.UUID, note string) error {
	var flagged *ledger.PaymentRecord

	err := s.uow.WithinTransaction(ctx, func(_ ledger.FeeObligationRepository, records ledger.PaymentRecordRepository) error {
		record, err := records.FindByIDForTenant(ctx, tenantID, recordID)
		if err != nil {
			return fmt.Errorf("failed to load payment record: %w", err)
		}
		if record == nil {
			return shared.ErrNotFound
		}
		if record.State.IsTerminal() {
			return ErrRecordAlreadyResolved
		}

		if err := record.FlagForReview(note); err != nil {
			return err
		}
		if err := records.SaveWithLock(ctx, record); err != nil {
			return fmt.Errorf("failed to save payment record: %w", err)
		}

		flagged = record
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Warn("Payment flagged for manual review",
		zap.String("record_id", flagged.ID.String()),
		zap.String("record_number", flagged.RecordNumber),
		zap.String("note", note))

	s.publishEvents(ctx, flagged, nil)

	return nil
}

// publishEvents drains and publishes the pending domain events of the given
// aggregates. Event delivery failures are logged, never propagated; the
// transaction has already committed.
func (s *ReconciliationService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
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
