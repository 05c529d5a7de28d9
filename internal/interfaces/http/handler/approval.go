package handler

import (
	"errors"

	ledgerapp "github.com/feeledger/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ApprovalHandler handles manual payment approval and rejection endpoints
type ApprovalHandler struct {
	BaseHandler
	approvalService *ledgerapp.ApprovalService
	queryService    *ledgerapp.LedgerQueryService
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(approvalService *ledgerapp.ApprovalService, queryService *ledgerapp.LedgerQueryService) *ApprovalHandler {
	return &ApprovalHandler{
		approvalService: approvalService,
		queryService:    queryService,
	}
}

// ===================== Request/Response DTOs =====================

// ApproveRecordRequest represents a request to approve a payment record
// @Description Payment approval request
type ApproveRecordRequest struct {
	ExternalRef string `json:"external_ref,omitempty" example:"SLIP-00421"`
}

// RejectRecordRequest represents a request to reject a payment record
// @Description Payment rejection request
type RejectRecordRequest struct {
	Reason string `json:"reason" binding:"required" example:"Bank slip could not be verified"`
}

// BulkApproveRequest represents a request to approve multiple records
// @Description Bulk payment approval request
type BulkApproveRequest struct {
	RecordIDs   []string `json:"record_ids" binding:"required,min=1" example:"550e8400-e29b-41d4-a716-446655440000"`
	ExternalRef string   `json:"external_ref,omitempty" example:"BATCH-2026-02"`
}

// BulkRejectRequest represents a request to reject multiple records
// @Description Bulk payment rejection request
type BulkRejectRequest struct {
	RecordIDs []string `json:"record_ids" binding:"required,min=1" example:"550e8400-e29b-41d4-a716-446655440000"`
	Reason    string   `json:"reason" binding:"required" example:"Cheque batch bounced"`
}

// BulkResolutionFailureResponse represents one failed record in a bulk resolution
// @Description Bulk resolution failure detail
type BulkResolutionFailureResponse struct {
	RecordID string `json:"record_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Error    string `json:"error" example:"payment record already resolved"`
}

// BulkResolutionResponse represents the per-record outcome of a bulk resolution
// @Description Bulk resolution result
type BulkResolutionResponse struct {
	Succeeded []string                        `json:"succeeded"`
	Failed    []BulkResolutionFailureResponse `json:"failed"`
}

func toBulkResolutionResponse(result *ledgerapp.BulkResolutionResult) BulkResolutionResponse {
	resp := BulkResolutionResponse{
		Succeeded: make([]string, len(result.Succeeded)),
		Failed:    make([]BulkResolutionFailureResponse, len(result.Failed)),
	}
	for i, id := range result.Succeeded {
		resp.Succeeded[i] = id.String()
	}
	for i, failure := range result.Failed {
		resp.Failed[i] = BulkResolutionFailureResponse{
			RecordID: failure.RecordID.String(),
			Error:    failure.Reason,
		}
	}
	return resp
}

// handleResolutionError maps the already-resolved sentinel to a conflict;
// everything else goes through the shared domain error mapping.
func (h *ApprovalHandler) handleResolutionError(c *gin.Context, err error) {
	if errors.Is(err, ledgerapp.ErrRecordAlreadyResolved) {
		h.Conflict(c, err.Error())
		return
	}
	h.HandleDomainError(c, err)
}

func parseRecordIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// ===================== Handlers =====================

// ApproveRecord settles a pending payment record
// @Summary Approve payment
// @Description Settle a pending payment record and credit its net amount to the obligation
// @Tags approvals
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param request body ApproveRecordRequest false "Approval detail"
// @Success 200 {object} APIResponse[PaymentRecordResponse]
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /payments/{id}/approve [post]
func (h *ApprovalHandler) ApproveRecord(c *gin.Context) {
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

	var req ApproveRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BindError(c, err)
		return
	}

	if err := h.approvalService.ApproveRecord(c.Request.Context(), getCapability(c), tenantID, recordID, req.ExternalRef); err != nil {
		h.handleResolutionError(c, err)
		return
	}

	record, err := h.queryService.GetRecord(c.Request.Context(), tenantID, recordID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentRecordResponse(record))
}

// RejectRecord rejects a pending payment record
// @Summary Reject payment
// @Description Reject a pending payment record with a reason; nothing is credited
// @Tags approvals
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param request body RejectRecordRequest true "Rejection reason"
// @Success 200 {object} APIResponse[PaymentRecordResponse]
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /payments/{id}/reject [post]
func (h *ApprovalHandler) RejectRecord(c *gin.Context) {
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

	var req RejectRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.approvalService.RejectRecord(c.Request.Context(), getCapability(c), tenantID, recordID, req.Reason); err != nil {
		h.handleResolutionError(c, err)
		return
	}

	record, err := h.queryService.GetRecord(c.Request.Context(), tenantID, recordID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentRecordResponse(record))
}

// BulkApprove settles a batch of pending payment records
// @Summary Bulk approve payments
// @Description Settle multiple pending records in one call; each record succeeds or fails independently
// @Tags approvals
// @Accept json
// @Produce json
// @Param request body BulkApproveRequest true "Record IDs to approve"
// @Success 200 {object} APIResponse[BulkResolutionResponse]
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /payments/bulk-approve [post]
func (h *ApprovalHandler) BulkApprove(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	recordIDs, err := parseRecordIDs(req.RecordIDs)
	if err != nil {
		h.BadRequest(c, "Invalid record ID: "+err.Error())
		return
	}

	result, err := h.approvalService.BulkApprove(c.Request.Context(), getCapability(c), tenantID, recordIDs, req.ExternalRef)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toBulkResolutionResponse(result))
}

// BulkReject rejects a batch of pending payment records
// @Summary Bulk reject payments
// @Description Reject multiple pending records in one call; each record succeeds or fails independently
// @Tags approvals
// @Accept json
// @Produce json
// @Param request body BulkRejectRequest true "Record IDs to reject"
// @Success 200 {object} APIResponse[BulkResolutionResponse]
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /payments/bulk-reject [post]
func (h *ApprovalHandler) BulkReject(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req BulkRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	recordIDs, err := parseRecordIDs(req.RecordIDs)
	if err != nil {
		h.BadRequest(c, "Invalid record ID: "+err.Error())
		return
	}

	result, err := h.approvalService.BulkReject(c.Request.Context(), getCapability(c), tenantID, recordIDs, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toBulkResolutionResponse(result))
}
