package handler

import (
	"time"

	ledgerapp "github.com/feeledger/backend/internal/application/ledger"
	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles fee obligation query endpoints
type LedgerHandler struct {
	BaseHandler
	queryService *ledgerapp.LedgerQueryService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(queryService *ledgerapp.LedgerQueryService) *LedgerHandler {
	return &LedgerHandler{
		queryService: queryService,
	}
}

// ===================== Request/Response DTOs =====================

// CreditEntryResponse represents one settled credit against an obligation
// @Description Credit entry response
type CreditEntryResponse struct {
	ID              string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	PaymentRecordID string    `json:"payment_record_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	AmountMinor     int64     `json:"amount_minor" example:"150000"`
	Reference       string    `json:"reference,omitempty" example:"SBK1QWERTY"`
	CreditedAt      time.Time `json:"credited_at"`
}

// FeeObligationResponse represents a fee obligation in API responses
// @Description Fee obligation response
type FeeObligationResponse struct {
	ID               string                `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID         string                `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	ObligationNumber string                `json:"obligation_number" example:"OBL-2026-00001"`
	PartyID          string                `json:"party_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	PartyName        string                `json:"party_name" example:"Jane Wanjiru"`
	FeeType          string                `json:"fee_type" example:"TUITION"`
	ScheduleItemID   *string               `json:"schedule_item_id,omitempty"`
	AmountDueMinor   int64                 `json:"amount_due_minor" example:"3500000"`
	AmountPaidMinor  int64                 `json:"amount_paid_minor" example:"1500000"`
	BalanceMinor     int64                 `json:"balance_minor" example:"2000000"`
	Currency         string                `json:"currency" example:"KES"`
	Status           string                `json:"status" example:"PARTIAL"`
	DueDate          *time.Time            `json:"due_date,omitempty"`
	CreditEntries    []CreditEntryResponse `json:"credit_entries,omitempty"`
	Remark           string                `json:"remark,omitempty"`
	PaidAt           *time.Time            `json:"paid_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Version          int                   `json:"version" example:"1"`
}

// PartyStatementResponse represents a party's consolidated ledger position
// @Description Party statement response
type PartyStatementResponse struct {
	PartyID          string                  `json:"party_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	Obligations      []FeeObligationResponse `json:"obligations"`
	Records          []PaymentRecordResponse `json:"records"`
	OutstandingMinor int64                   `json:"outstanding_minor" example:"2000000"`
}

// TenantSummaryResponse represents tenant-wide ledger totals
// @Description Tenant ledger summary response
type TenantSummaryResponse struct {
	ObligationCount  int64 `json:"obligation_count" example:"420"`
	OutstandingMinor int64 `json:"outstanding_minor" example:"84000000"`
	OverdueMinor     int64 `json:"overdue_minor" example:"12000000"`
	PendingRecords   int64 `json:"pending_records" example:"17"`
}

// ObligationListRequest represents query parameters for listing obligations
type ObligationListRequest struct {
	Page           int    `form:"page"`
	PageSize       int    `form:"page_size"`
	PartyID        string `form:"party_id"`
	Status         string `form:"status"`
	FeeType        string `form:"fee_type"`
	ScheduleItemID string `form:"schedule_item_id"`
	Overdue        *bool  `form:"overdue"`
	Search         string `form:"search"`
	OrderBy        string `form:"order_by"`
	OrderDir       string `form:"order_dir"`
}

func toCreditEntryResponse(entry ledger.CreditEntry) CreditEntryResponse {
	return CreditEntryResponse{
		ID:              entry.ID.String(),
		PaymentRecordID: entry.PaymentRecordID.String(),
		AmountMinor:     entry.AmountMinor,
		Reference:       entry.Reference,
		CreditedAt:      entry.CreditedAt,
	}
}

func toFeeObligationResponse(o *ledger.FeeObligation) FeeObligationResponse {
	resp := FeeObligationResponse{
		ID:               o.ID.String(),
		TenantID:         o.TenantID.String(),
		ObligationNumber: o.ObligationNumber,
		PartyID:          o.PartyID.String(),
		PartyName:        o.PartyName,
		FeeType:          o.FeeType,
		AmountDueMinor:   o.AmountDueMinor,
		AmountPaidMinor:  o.AmountPaidMinor,
		BalanceMinor:     o.BalanceMinor,
		Currency:         string(o.Currency),
		Status:           string(o.Status),
		DueDate:          o.DueDate,
		Remark:           o.Remark,
		PaidAt:           o.PaidAt,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		Version:          o.GetVersion(),
	}
	if o.ScheduleItemID != nil {
		id := o.ScheduleItemID.String()
		resp.ScheduleItemID = &id
	}
	for _, entry := range o.CreditEntries {
		resp.CreditEntries = append(resp.CreditEntries, toCreditEntryResponse(entry))
	}
	return resp
}

func (r *ObligationListRequest) toFilter() (ledger.FeeObligationFilter, error) {
	filter := ledger.FeeObligationFilter{Filter: shared.DefaultFilter()}
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
	if r.ScheduleItemID != "" {
		itemID, err := uuid.Parse(r.ScheduleItemID)
		if err != nil {
			return filter, err
		}
		filter.ScheduleItemID = &itemID
	}
	if r.Status != "" {
		status := ledger.ObligationStatus(r.Status)
		filter.Status = &status
	}
	if r.FeeType != "" {
		feeType := r.FeeType
		filter.FeeType = &feeType
	}
	filter.Overdue = r.Overdue
	return filter, nil
}

// ===================== Handlers =====================

// ListObligations lists fee obligations with filtering and pagination
// @Summary List fee obligations
// @Description Get a paginated list of fee obligations for the tenant
// @Tags ledger
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Param party_id query string false "Filter by party ID"
// @Param status query string false "Filter by status" Enums(PENDING, PARTIAL, PAID)
// @Param fee_type query string false "Filter by fee type"
// @Param overdue query bool false "Only overdue obligations"
// @Success 200 {object} APIResponse[[]FeeObligationResponse]
// @Failure 400 {object} ErrorResponse
// @Router /ledger/obligations [get]
func (h *LedgerHandler) ListObligations(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ObligationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter, err := req.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid filter: "+err.Error())
		return
	}

	obligations, total, err := h.queryService.ListObligations(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]FeeObligationResponse, len(obligations))
	for i := range obligations {
		responses[i] = toFeeObligationResponse(&obligations[i])
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// GetObligation retrieves a single fee obligation
// @Summary Get fee obligation
// @Description Get a fee obligation by ID including its credit history
// @Tags ledger
// @Accept json
// @Produce json
// @Param id path string true "Obligation ID"
// @Success 200 {object} APIResponse[FeeObligationResponse]
// @Failure 404 {object} ErrorResponse
// @Router /ledger/obligations/{id} [get]
func (h *LedgerHandler) GetObligation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	obligationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}

	obligation, err := h.queryService.GetObligation(c.Request.Context(), tenantID, obligationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFeeObligationResponse(obligation))
}

// ListOverdueObligations lists unpaid obligations past their due date
// @Summary List overdue obligations
// @Description Get obligations with an outstanding balance past their due date
// @Tags ledger
// @Accept json
// @Produce json
// @Param party_id query string false "Filter by party ID"
// @Param fee_type query string false "Filter by fee type"
// @Success 200 {object} APIResponse[[]FeeObligationResponse]
// @Failure 400 {object} ErrorResponse
// @Router /ledger/obligations/overdue [get]
func (h *LedgerHandler) ListOverdueObligations(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ObligationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter, err := req.toFilter()
	if err != nil {
		h.BadRequest(c, "Invalid filter: "+err.Error())
		return
	}

	obligations, err := h.queryService.ListOverdueObligations(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]FeeObligationResponse, len(obligations))
	for i := range obligations {
		responses[i] = toFeeObligationResponse(&obligations[i])
	}

	h.Success(c, responses)
}

// GetPartyStatement retrieves a party's full ledger position
// @Summary Get party statement
// @Description Get all obligations and payment records for one party with the outstanding total
// @Tags ledger
// @Accept json
// @Produce json
// @Param party_id path string true "Party ID"
// @Success 200 {object} APIResponse[PartyStatementResponse]
// @Failure 400 {object} ErrorResponse
// @Router /ledger/parties/{party_id}/statement [get]
func (h *LedgerHandler) GetPartyStatement(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	partyID, err := uuid.Parse(c.Param("party_id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID")
		return
	}

	statement, err := h.queryService.GetPartyStatement(c.Request.Context(), tenantID, partyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := PartyStatementResponse{
		PartyID:          statement.PartyID.String(),
		Obligations:      make([]FeeObligationResponse, len(statement.Obligations)),
		Records:          make([]PaymentRecordResponse, len(statement.Records)),
		OutstandingMinor: statement.OutstandingMinor,
	}
	for i := range statement.Obligations {
		resp.Obligations[i] = toFeeObligationResponse(&statement.Obligations[i])
	}
	for i := range statement.Records {
		resp.Records[i] = toPaymentRecordResponse(&statement.Records[i])
	}

	h.Success(c, resp)
}

// GetTenantSummary retrieves tenant-wide ledger totals
// @Summary Get ledger summary
// @Description Get obligation counts and outstanding totals for the tenant
// @Tags ledger
// @Accept json
// @Produce json
// @Success 200 {object} APIResponse[TenantSummaryResponse]
// @Router /ledger/summary [get]
func (h *LedgerHandler) GetTenantSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	summary, err := h.queryService.GetTenantSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, TenantSummaryResponse{
		ObligationCount:  summary.ObligationCount,
		OutstandingMinor: summary.OutstandingMinor,
		OverdueMinor:     summary.OverdueMinor,
		PendingRecords:   summary.PendingRecords,
	})
}
