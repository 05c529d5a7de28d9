package handler

import (
	"time"

	ledgerapp "github.com/feeledger/backend/internal/application/ledger"
	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment declaration and record query endpoints
type PaymentHandler struct {
	BaseHandler
	intakeService *ledgerapp.PaymentIntakeService
	queryService  *ledgerapp.LedgerQueryService
	staleAfter    time.Duration
}

// NewPaymentHandler creates a new PaymentHandler. staleAfter is the default
// age after which a pending record counts as stale in the stale listing.
func NewPaymentHandler(intakeService *ledgerapp.PaymentIntakeService, queryService *ledgerapp.LedgerQueryService, staleAfter time.Duration) *PaymentHandler {
	return &PaymentHandler{
		intakeService: intakeService,
		queryService:  queryService,
		staleAfter:    staleAfter,
	}
}

// ===================== Request/Response DTOs =====================

// DeclarePaymentRequest represents a request to declare a payment
// @Description Payment declaration request
type DeclarePaymentRequest struct {
	ObligationID     string `json:"obligation_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	GrossMinor       int64  `json:"gross_minor" binding:"required,gt=0" example:"1500000"`
	Channel          string `json:"channel" binding:"required" example:"MOBILE_MONEY"`
	DiscountCode     string `json:"discount_code,omitempty" example:"EARLYBIRD"`
	ScholarshipMinor int64  `json:"scholarship_minor,omitempty" example:"0"`
	PayerPhone       string `json:"payer_phone,omitempty" example:"254712345678"`
	Remark           string `json:"remark,omitempty" example:"Term 2 instalment"`
}

// PaymentRecordResponse represents a payment record in API responses
// @Description Payment record response
type PaymentRecordResponse struct {
	ID               string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID         string     `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	RecordNumber     string     `json:"record_number" example:"PAY-2026-00001"`
	ObligationID     string     `json:"obligation_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	ObligationNumber string     `json:"obligation_number" example:"OBL-2026-00001"`
	PartyID          string     `json:"party_id" example:"550e8400-e29b-41d4-a716-446655440003"`
	GrossMinor       int64      `json:"gross_minor" example:"1500000"`
	DiscountMinor    int64      `json:"discount_minor" example:"150000"`
	ScholarshipMinor int64      `json:"scholarship_minor" example:"0"`
	NetMinor         int64      `json:"net_minor" example:"1350000"`
	Currency         string     `json:"currency" example:"KES"`
	Channel          string     `json:"channel" example:"MOBILE_MONEY"`
	DiscountCode     string     `json:"discount_code,omitempty" example:"EARLYBIRD"`
	PayerPhone       string     `json:"payer_phone,omitempty" example:"254712345678"`
	CorrelationID    string     `json:"correlation_id,omitempty"`
	ExternalRef      string     `json:"external_ref,omitempty" example:"SBK1QWERTY"`
	State            string     `json:"state" example:"PENDING"`
	RejectReason     string     `json:"reject_reason,omitempty"`
	FlaggedForReview bool       `json:"flagged_for_review" example:"false"`
	ReviewNote       string     `json:"review_note,omitempty"`
	Remark           string     `json:"remark,omitempty"`
	SettledAt        *time.Time `json:"settled_at,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	ResolvedBy       *string    `json:"resolved_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int        `json:"version" example:"1"`
}

// DeclarePaymentResponse represents the result of a payment declaration
// @Description Payment declaration result
type DeclarePaymentResponse struct {
	Record        PaymentRecordResponse `json:"record"`
	DiscountMinor int64                 `json:"discount_minor" example:"150000"`
	NetMinor      int64                 `json:"net_minor" example:"1350000"`
}

// RecordListRequest represents query parameters for listing payment records
type RecordListRequest struct {
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	PartyID      string `form:"party_id"`
	ObligationID string `form:"obligation_id"`
	State        string `form:"state"`
	Channel      string `form:"channel"`
	Flagged      *bool  `form:"flagged"`
	Search       string `form:"search"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir"`
}

func toPaymentRecordResponse(r *ledger.PaymentRecord) PaymentRecordResponse {
	resp := PaymentRecordResponse{
		ID:               r.ID.String(),
		TenantID:         r.TenantID.String(),
		RecordNumber:     r.RecordNumber,
		ObligationID:     r.ObligationID.String(),
		ObligationNumber: r.ObligationNumber,
		PartyID:          r.PartyID.String(),
		GrossMinor:       r.GrossMinor,
		DiscountMinor:    r.DiscountMinor,
		ScholarshipMinor: r.ScholarshipMinor,
		NetMinor:         r.NetMinor,
		Currency:         string(r.Currency),
		Channel:          string(r.Channel),
		DiscountCode:     r.DiscountCode,
		PayerPhone:       r.PayerPhone,
		CorrelationID:    r.CorrelationID,
		ExternalRef:      r.ExternalRef,
		State:            string(r.State),
		RejectReason:     r.RejectReason,
		FlaggedForReview: r.FlaggedForReview,
		ReviewNote:       r.ReviewNote,
		Remark:           r.Remark,
		SettledAt:        r.SettledAt,
		RejectedAt:       r.RejectedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Version:          r.GetVersion(),
	}
	if r.ResolvedBy != nil {
		resolvedBy := r.ResolvedBy.String()
		resp.ResolvedBy = &resolvedBy
	}
	return resp
}

func (r *RecordListRequest) toFilter() (ledger.PaymentRecordFilter, error) {
	filter := ledger.PaymentRecordFilter{Filter: shared.DefaultFilter()}
	if r.Page > 0 {
		filter.Page = r.Page
	}
	if r.PageSize > 0 {
		filter.PageSize = r.PageSize
	}
	filter.Search = r.Search
	filter.OrderBy = r.OrderBy
	filter.OrderDir = r.OrderDir

	if r.PartyID != "" {
		partyID, err := uuid.Parse(r.PartyID)
		if err != nil {
			return filter, err
		}
		filter.PartyID = &partyID
	}
	if r.ObligationID != "" {
		obligationID, err := uuid.Parse(r.ObligationID)
		if err != nil {
			return filter, err
		}
		filter.ObligationID = &obligationID
	}
	if r.State != "" {
		state := ledger.PaymentState(r.State)
		filter.State = &state
	}
	if r.Channel != "" {
		channel := ledger.PaymentChannel(r.Channel)
		filter.Channel = &channel
	}
	filter.Flagged = r.Flagged
	return filter, nil
}

// ===================== Handlers =====================

// DeclarePayment declares a payment against a fee obligation
// @Summary Declare payment
// @Description Declare a payment against an obligation, applying discount and scholarship reductions; mobile-money payments trigger a gateway push
// @Tags payments
// @Accept json
// @Produce json
// @Param request body DeclarePaymentRequest true "Payment declaration"
// @Success 201 {object} APIResponse[DeclarePaymentResponse]
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /payments [post]
func (h *PaymentHandler) DeclarePayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req DeclarePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	obligationID, err := uuid.Parse(req.ObligationID)
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}

	result, err := h.intakeService.DeclarePayment(c.Request.Context(), getCapability(c), ledgerapp.DeclarePaymentRequest{
		TenantID:         tenantID,
		ObligationID:     obligationID,
		GrossMinor:       req.GrossMinor,
		Channel:          ledger.PaymentChannel(req.Channel),
		DiscountCode:     req.DiscountCode,
		ScholarshipMinor: req.ScholarshipMinor,
		PayerPhone:       req.PayerPhone,
		Remark:           req.Remark,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, DeclarePaymentResponse{
		Record:        toPaymentRecordResponse(result.Record),
		DiscountMinor: result.DiscountMinor,
		NetMinor:      result.NetMinor,
	})
}

// GetRecord retrieves a single payment record
// @Summary Get payment record
// @Description Get a payment record by ID
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} APIResponse[PaymentRecordResponse]
// @Failure 404 {object} ErrorResponse
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetRecord(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}

	record, err := h.queryService.GetRecord(c.Request.Context(), tenantID, recordID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentRecordResponse(record))
}

// ListRecords lists payment records with filtering and pagination
// @Summary List payment records
// @Description Get a paginated list of payment records for the tenant
// @Tags payments
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Param party_id query string false "Filter by party ID"
// @Param obligation_id query string false "Filter by obligation ID"
// @Param state query string false "Filter by state" Enums(PENDING, SETTLED, REJECTED)
// @Param channel query string false "Filter by channel" Enums(CASH, BANK, CHEQUE, MOBILE_MONEY)
// @Param flagged query bool false "Only flagged records"
// @Success 200 {object} APIResponse[[]PaymentRecordResponse]
// @Failure 400 {object} ErrorResponse
// @Router /payments [get]
func (h *PaymentHandler) ListRecords(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req RecordListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter, err := req.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid filter: "+err.Error())
		return
	}

	records, total, err := h.queryService.ListRecords(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]PaymentRecordResponse, len(records))
	for i := range records {
		responses[i] = toPaymentRecordResponse(&records[i])
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// ListStalePending lists pending records older than the stale window
// @Summary List stale pending records
// @Description Get pending payment records older than the configured stale window, candidates for follow-up or rejection
// @Tags payments
// @Accept json
// @Produce json
// @Param max_age_hours query int false "Override the stale window in hours"
// @Success 200 {object} APIResponse[[]PaymentRecordResponse]
// @Router /payments/stale [get]
func (h *PaymentHandler) ListStalePending(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	maxAge := h.staleAfter
	var req struct {
		MaxAgeHours int `form:"max_age_hours"`
	}
	if err := c.ShouldBindQuery(&req); err == nil && req.MaxAgeHours > 0 {
		maxAge = time.Duration(req.MaxAgeHours) * time.Hour
	}

	records, err := h.queryService.ListStalePendingRecords(c.Request.Context(), tenantID, maxAge)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]PaymentRecordResponse, len(records))
	for i := range records {
		responses[i] = toPaymentRecordResponse(&records[i])
	}

	h.Success(c, responses)
}
