package handler

import (
	"time"

	ledgerapp "github.com/feeledger/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EnrollmentHandler handles party enrollment endpoints
type EnrollmentHandler struct {
	BaseHandler
	enrollmentService *ledgerapp.EnrollmentService
}

// NewEnrollmentHandler creates a new EnrollmentHandler
func NewEnrollmentHandler(enrollmentService *ledgerapp.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
	}
}

// ===================== Request/Response DTOs =====================

// EnrollPartyRequest represents a request to enroll a party against the fee schedule
// @Description Party enrollment request
type EnrollPartyRequest struct {
	PartyID         string     `json:"party_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	PartyName       string     `json:"party_name" binding:"required" example:"Jane Wanjiru"`
	EnrolledAt      *time.Time `json:"enrolled_at,omitempty"`
	ScheduleItemIDs []string   `json:"schedule_item_ids,omitempty"`
}

// EnrollPartyResponse represents the obligations materialized by an enrollment
// @Description Party enrollment result
type EnrollPartyResponse struct {
	Created []FeeObligationResponse `json:"created"`
	Skipped []string                `json:"skipped"`
}

// ===================== Handlers =====================

// EnrollParty materializes fee obligations for a newly enrolled party
// @Summary Enroll party
// @Description Create obligations for every mandatory schedule item plus any requested optional items; items the party already owes are skipped
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body EnrollPartyRequest true "Enrollment detail"
// @Success 201 {object} APIResponse[EnrollPartyResponse]
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /ledger/enrollments [post]
func (h *EnrollmentHandler) EnrollParty(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req EnrollPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	partyID, err := uuid.Parse(req.PartyID)
	if err != nil {
		h.BadRequest(c, "Invalid party ID")
		return
	}

	itemIDs := make([]uuid.UUID, len(req.ScheduleItemIDs))
	for i, s := range req.ScheduleItemIDs {
		itemID, err := uuid.Parse(s)
		if err != nil {
			h.BadRequest(c, "Invalid schedule item ID: "+s)
			return
		}
		itemIDs[i] = itemID
	}

	enrolledAt := time.Now()
	if req.EnrolledAt != nil {
		enrolledAt = *req.EnrolledAt
	}

	result, err := h.enrollmentService.EnrollParty(c.Request.Context(), getCapability(c), ledgerapp.EnrollPartyRequest{
		TenantID:        tenantID,
		PartyID:         partyID,
		PartyName:       req.PartyName,
		EnrolledAt:      enrolledAt,
		ScheduleItemIDs: itemIDs,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := EnrollPartyResponse{
		Created: make([]FeeObligationResponse, len(result.Created)),
		Skipped: make([]string, len(result.Skipped)),
	}
	for i := range result.Created {
		resp.Created[i] = toFeeObligationResponse(&result.Created[i])
	}
	for i, id := range result.Skipped {
		resp.Skipped[i] = id.String()
	}

	h.Created(c, resp)
}
