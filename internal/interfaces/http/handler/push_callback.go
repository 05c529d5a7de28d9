package handler

import (
	"errors"
	"io"
	"net/http"

	ledgerapp "github.com/feeledger/backend/internal/application/ledger"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PushCallbackHandler handles asynchronous confirmations posted back by the
// mobile-money gateway. The route is unauthenticated; the payload itself
// carries the correlation handle that ties it to a pending record.
type PushCallbackHandler struct {
	BaseHandler
	callbackService *ledgerapp.PushCallbackService
	logger          *zap.Logger
}

// NewPushCallbackHandler creates a new PushCallbackHandler
func NewPushCallbackHandler(callbackService *ledgerapp.PushCallbackService, logger *zap.Logger) *PushCallbackHandler {
	return &PushCallbackHandler{
		callbackService: callbackService,
		logger:          logger,
	}
}

// HandleCallback processes a gateway push confirmation
// @Summary Mobile-money gateway callback
// @Description Receives the asynchronous push confirmation from the mobile-money gateway and settles, rejects or flags the matching payment record
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Acknowledgement for the gateway"
// @Failure 400 {object} ErrorResponse "Payload could not be parsed"
// @Router /payments/callback [post]
func (h *PushCallbackHandler) HandleCallback(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Warn("Failed to read push callback body", zap.Error(err))
		h.BadRequest(c, "Failed to read request body")
		return
	}

	result, err := h.callbackService.ProcessPushCallback(c.Request.Context(), payload)
	if err != nil && result == nil {
		// Unparseable payloads are the gateway's fault, not ours
		if errors.Is(err, ledgerapp.ErrCallbackInvalidPayload) {
			h.BadRequest(c, "Invalid callback payload")
			return
		}
		h.InternalError(c, "Failed to process callback")
		return
	}

	// Amount mismatches park the record for manual review; acknowledge so
	// the gateway stops redelivering a payload we will never auto-settle.
	if err != nil && !errors.Is(err, shared.ErrIntegrityFault) {
		h.logger.Error("Push callback processing failed",
			zap.Error(err),
			zap.Bool("already_processed", result.AlreadyProcessed))
		c.Data(http.StatusInternalServerError, "application/json", result.GatewayResponse)
		return
	}

	c.Data(http.StatusOK, "application/json", result.GatewayResponse)
}
