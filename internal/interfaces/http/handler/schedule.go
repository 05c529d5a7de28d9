package handler

import (
	"time"

	ledgerapp "github.com/feeledger/backend/internal/application/ledger"
	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/feeledger/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduleHandler handles fee schedule and discount code endpoints
type ScheduleHandler struct {
	BaseHandler
	scheduleService *ledgerapp.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(scheduleService *ledgerapp.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
	}
}

// ===================== Request/Response DTOs =====================

// CreateScheduleItemRequest represents a request to create a fee schedule item
// @Description Fee schedule item creation request
type CreateScheduleItemRequest struct {
	Name          string `json:"name" binding:"required" example:"Term 2 Tuition"`
	FeeType       string `json:"fee_type" binding:"required" example:"TUITION"`
	AmountMinor   int64  `json:"amount_minor" binding:"required,gt=0" example:"3500000"`
	Currency      string `json:"currency" binding:"required" example:"KES"`
	Mandatory     bool   `json:"mandatory" example:"true"`
	DueOffsetDays int    `json:"due_offset_days" example:"14"`
}

// FeeScheduleItemResponse represents a fee schedule item in API responses
// @Description Fee schedule item response
type FeeScheduleItemResponse struct {
	ID            string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID      string    `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Name          string    `json:"name" example:"Term 2 Tuition"`
	FeeType       string    `json:"fee_type" example:"TUITION"`
	AmountMinor   int64     `json:"amount_minor" example:"3500000"`
	Currency      string    `json:"currency" example:"KES"`
	Mandatory     bool      `json:"mandatory" example:"true"`
	DueOffsetDays int       `json:"due_offset_days" example:"14"`
	Active        bool      `json:"active" example:"true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"version" example:"1"`
}

// CreateDiscountCodeRequest represents a request to create a discount code
// @Description Discount code creation request
type CreateDiscountCodeRequest struct {
	Code       string     `json:"code" binding:"required" example:"EARLYBIRD"`
	Kind       string     `json:"kind" binding:"required" example:"PERCENTAGE"`
	Percentage float64    `json:"percentage,omitempty" example:"10"`
	FixedMinor int64      `json:"fixed_minor,omitempty" example:"0"`
	Currency   string     `json:"currency,omitempty" example:"KES"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// DiscountCodeResponse represents a discount code in API responses
// @Description Discount code response
type DiscountCodeResponse struct {
	ID         string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID   string     `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Code       string     `json:"code" example:"EARLYBIRD"`
	Kind       string     `json:"kind" example:"PERCENTAGE"`
	Percentage float64    `json:"percentage" example:"10"`
	FixedMinor int64      `json:"fixed_minor" example:"0"`
	Active     bool       `json:"active" example:"true"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Version    int        `json:"version" example:"1"`
}

// PreviewDiscountRequest represents query parameters for a discount preview
type PreviewDiscountRequest struct {
	Code       string `form:"code" binding:"required"`
	GrossMinor int64  `form:"gross_minor" binding:"required,gt=0"`
	Currency   string `form:"currency" binding:"required"`
}

// DiscountPreviewResponse represents the reduction a code would apply
// @Description Discount preview response
type DiscountPreviewResponse struct {
	Code          string `json:"code" example:"EARLYBIRD"`
	GrossMinor    int64  `json:"gross_minor" example:"1500000"`
	DiscountMinor int64  `json:"discount_minor" example:"150000"`
	NetMinor      int64  `json:"net_minor" example:"1350000"`
}

func toFeeScheduleItemResponse(item *ledger.FeeScheduleItem) FeeScheduleItemResponse {
	return FeeScheduleItemResponse{
		ID:            item.ID.String(),
		TenantID:      item.TenantID.String(),
		Name:          item.Name,
		FeeType:       item.FeeType,
		AmountMinor:   item.AmountMinor,
		Currency:      string(item.Currency),
		Mandatory:     item.Mandatory,
		DueOffsetDays: item.DueOffsetDays,
		Active:        item.Active,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
		Version:       item.GetVersion(),
	}
}

func toDiscountCodeResponse(code *ledger.DiscountCode) DiscountCodeResponse {
	percentage, _ := code.Percentage.Float64()
	return DiscountCodeResponse{
		ID:         code.ID.String(),
		TenantID:   code.TenantID.String(),
		Code:       code.Code,
		Kind:       string(code.Kind),
		Percentage: percentage,
		FixedMinor: code.FixedMinor,
		Active:     code.Active,
		ValidFrom:  code.ValidFrom,
		ValidUntil: code.ValidUntil,
		CreatedAt:  code.CreatedAt,
		UpdatedAt:  code.UpdatedAt,
		Version:    code.GetVersion(),
	}
}

// ===================== Handlers =====================

// CreateScheduleItem creates a fee schedule item
// @Summary Create schedule item
// @Description Create a fee schedule item; mandatory items materialize an obligation for every future enrollment
// @Tags schedule
// @Accept json
// @Produce json
// @Param request body CreateScheduleItemRequest true "Schedule item detail"
// @Success 201 {object} APIResponse[FeeScheduleItemResponse]
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /ledger/schedule-items [post]
func (h *ScheduleHandler) CreateScheduleItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateScheduleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	item, err := h.scheduleService.CreateScheduleItem(c.Request.Context(), getCapability(c), ledgerapp.CreateScheduleItemRequest{
		TenantID:      tenantID,
		Name:          req.Name,
		FeeType:       req.FeeType,
		AmountMinor:   req.AmountMinor,
		Currency:      valueobject.Currency(req.Currency),
		Mandatory:     req.Mandatory,
		DueOffsetDays: req.DueOffsetDays,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toFeeScheduleItemResponse(item))
}

// ListScheduleItems lists fee schedule items
// @Summary List schedule items
// @Description Get all fee schedule items for the tenant
// @Tags schedule
// @Accept json
// @Produce json
// @Success 200 {object} APIResponse[[]FeeScheduleItemResponse]
// @Router /ledger/schedule-items [get]
func (h *ScheduleHandler) ListScheduleItems(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	items, err := h.scheduleService.ListScheduleItems(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]FeeScheduleItemResponse, len(items))
	for i := range items {
		responses[i] = toFeeScheduleItemResponse(&items[i])
	}

	h.Success(c, responses)
}

// DeactivateScheduleItem deactivates a fee schedule item
// @Summary Deactivate schedule item
// @Description Deactivate a fee schedule item so future enrollments no longer pick it up; existing obligations are untouched
// @Tags schedule
// @Accept json
// @Produce json
// @Param id path string true "Schedule item ID"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /ledger/schedule-items/{id} [delete]
func (h *ScheduleHandler) DeactivateScheduleItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid schedule item ID")
		return
	}

	if err := h.scheduleService.DeactivateScheduleItem(c.Request.Context(), getCapability(c), tenantID, itemID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// CreateDiscountCode creates a discount code
// @Summary Create discount code
// @Description Create a percentage or fixed-amount discount code
// @Tags schedule
// @Accept json
// @Produce json
// @Param request body CreateDiscountCodeRequest true "Discount code detail"
// @Success 201 {object} APIResponse[DiscountCodeResponse]
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /ledger/discount-codes [post]
func (h *ScheduleHandler) CreateDiscountCode(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateDiscountCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	code, err := h.scheduleService.CreateDiscountCode(c.Request.Context(), getCapability(c), ledgerapp.CreateDiscountCodeRequest{
		TenantID:   tenantID,
		Code:       req.Code,
		Kind:       ledger.DiscountKind(req.Kind),
		Percentage: decimal.NewFromFloat(req.Percentage),
		FixedMinor: req.FixedMinor,
		Currency:   valueobject.Currency(req.Currency),
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toDiscountCodeResponse(code))
}

// DeactivateDiscountCode deactivates a discount code
// @Summary Deactivate discount code
// @Description Deactivate a discount code so new declarations can no longer reference it
// @Tags schedule
// @Accept json
// @Produce json
// @Param code path string true "Discount code"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /ledger/discount-codes/{code} [delete]
func (h *ScheduleHandler) DeactivateDiscountCode(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Discount code is required")
		return
	}

	if err := h.scheduleService.DeactivateDiscountCode(c.Request.Context(), getCapability(c), tenantID, code); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// PreviewDiscount previews the reduction a discount code would apply
// @Summary Preview discount
// @Description Compute the reduction a discount code would apply to a gross amount without declaring a payment
// @Tags schedule
// @Accept json
// @Produce json
// @Param code query string true "Discount code"
// @Param gross_minor query int true "Gross amount in minor units"
// @Param currency query string true "ISO currency code"
// @Success 200 {object} APIResponse[DiscountPreviewResponse]
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /ledger/discount-codes/preview [get]
func (h *ScheduleHandler) PreviewDiscount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req PreviewDiscountRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	preview, err := h.scheduleService.PreviewDiscount(c.Request.Context(), tenantID, req.Code, req.GrossMinor, valueobject.Currency(req.Currency))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, DiscountPreviewResponse{
		Code:          preview.Code,
		GrossMinor:    preview.GrossMinor,
		DiscountMinor: preview.DiscountMinor,
		NetMinor:      preview.NetMinor,
	})
}
