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

// EnrollPartyRequest carries the input for enrolling a party against the fee
// schedule. When ScheduleItemIDs is empty, all active mandatory items apply.
type EnrollPartyRequest struct {
	TenantID        uuid.UUID
	PartyID         uuid.UUID
	PartyName       string
	EnrolledAt      time.Time
	ScheduleItemIDs []uuid.UUID
}

// EnrollPartyResult reports the obligations created by an enrollment and the
// schedule items skipped because the party already carried one.
type EnrollPartyResult struct {
	Created []ledger.FeeObligation `json:"created"`
	Skipped []uuid.UUID            `json:"skipped"`
}

// EnrollmentService materializes fee obligations from schedule items.
// Enrollment is idempotent per (schedule item, party): re-enrolling never
// duplicates an obligation.
type EnrollmentService struct {
	obligationRepo ledger.FeeObligationRepository
	scheduleRepo   ledger.FeeScheduleItemRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(obligationRepo ledger.FeeObligationRepository, scheduleRepo ledger.FeeScheduleItemRepository, eventPublisher shared.EventPublisher, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		obligationRepo: obligationRepo,
		scheduleRepo:   scheduleRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// EnrollParty creates one obligation per applicable schedule item
func (s *EnrollmentService) EnrollParty(ctx context.Context, cap Capability, req EnrollPartyRequest) (*EnrollPartyResult, error) {
	if err := cap.RequireManageLedger(); err != nil {
		return nil, err
	}
	if req.PartyName == "" {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party name cannot be empty")
	}
	if req.EnrolledAt.IsZero() {
		req.EnrolledAt = time.Now()
	}

	items, err := s.resolveItems(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &EnrollPartyResult{}
	for i := range items {
		item := &items[i]

		existing, err := s.obligationRepo.FindByScheduleItemForParty(ctx, req.TenantID, item.ID, req.PartyID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing obligation: %w", err)
		}
		if existing != nil {
			result.Skipped = append(result.Skipped, item.ID)
			continue
		}

		obligationNumber, err := s.obligationRepo.GenerateObligationNumber(ctx, req.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to generate obligation number: %w", err)
		}

		obligation, err := item.MaterializeObligation(obligationNumber, req.PartyID, req.PartyName, req.EnrolledAt)
		if err != nil {
			return nil, err
		}

		if err := s.obligationRepo.Save(ctx, obligation); err != nil {
			return nil, fmt.Errorf("failed to save obligation: %w", err)
		}

		s.publishEvents(ctx, obligation)
		result.Created = append(result.Created, *obligation)
	}

	s.logger.Info("Party enrolled",
		zap.String("party_id", req.PartyID.String()),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

func (s *EnrollmentService) resolveItems(ctx context.Context, req EnrollPartyRequest) ([]ledger.FeeScheduleItem, error) {
	if len(req.ScheduleItemIDs) == 0 {
		items, err := s.scheduleRepo.FindMandatoryForTenant(ctx, req.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to load fee schedule: %w", err)
		}
		return items, nil
	}

	items := make([]ledger.FeeScheduleItem, 0, len(req.ScheduleItemIDs))
	for _, id := range req.ScheduleItemIDs {
		item, err := s.scheduleRepo.FindByIDForTenant(ctx, req.TenantID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to find schedule item: %w", err)
		}
		if item == nil {
			return nil, fmt.Errorf("%w: schedule item %s", shared.ErrNotFound, id)
		}
		items = append(items, *item)
	}
	return items, nil
}

func (s *EnrollmentService) publishEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
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
