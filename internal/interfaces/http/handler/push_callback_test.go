package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	ledgerapp "github.com/feeledger/backend/internal/application/ledger"
	"github.com/feeledger/backend/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type callbackTestEnv struct {
	tenantID       uuid.UUID
	obligationRepo *stubObligationRepo
	recordRepo     *stubRecordRepo
	gateway        *stubGateway
	router         *gin.Engine
}

func setupCallbackRouter(t *testing.T) *callbackTestEnv {
	t.Helper()

	env := &callbackTestEnv{
		tenantID:       uuid.New(),
		obligationRepo: newStubObligationRepo(),
		recordRepo:     newStubRecordRepo(),
		gateway:        &stubGateway{},
	}

	uow := &stubUnitOfWork{obligations: env.obligationRepo, records: env.recordRepo}
	reconciliationService := ledgerapp.NewReconciliationService(uow, nil, nil)
	callbackService := ledgerapp.NewPushCallbackService(ledgerapp.PushCallbackServiceConfig{
		Gateway:           env.gateway,
		RecordRepo:        env.recordRepo,
		ReconciliationSvc: reconciliationService,
	})
	h := NewPushCallbackHandler(callbackService, zap.NewNop())

	router := gin.New()
	router.POST("/payments/callback", h.HandleCallback)

	env.router = router
	return env
}

func (env *callbackTestEnv) seedPushedRecord(t *testing.T, netMinor int64, correlationID string) *ledger.PaymentRecord {
	t.Helper()
	obligation := newHandlerTestObligation(env.tenantID, netMinor*2)
	require.NoError(t, env.obligationRepo.Save(context.Background(), obligation))
	record := newHandlerTestRecord(env.tenantID, obligation, netMinor, ledger.PaymentChannelMobileMoney)
	require.NoError(t, record.AttachPush(correlationID, "254712345678"))
	require.NoError(t, env.recordRepo.Save(context.Background(), record))
	return record
}

func TestHandleCallbackSuccess(t *testing.T) {
	env := setupCallbackRouter(t)
	record := env.seedPushedRecord(t, 1350000, "corr-success")

	env.gateway.parseResult = &ledger.PushCallback{
		CorrelationID: "corr-success",
		Status:        ledger.PushStatusSuccess,
		AmountMinor:   1350000,
		ReceiptNumber: "SBK1QWERTY",
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/payments/callback", bytes.NewReader([]byte(`{"Body":{}}`)))
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"ResultCode":0`)

	settled := env.recordRepo.records[record.ID]
	assert.Equal(t, ledger.PaymentStateSettled, settled.State)
	assert.Equal(t, "SBK1QWERTY", settled.ExternalRef)

	obligation := env.obligationRepo.obligations[record.ObligationID]
	assert.Equal(t, int64(1350000), obligation.AmountPaidMinor)
}

func TestHandleCallbackInvalidPayload(t *testing.T) {
	env := setupCallbackRouter(t)
	env.gateway.parseErr = ledger.ErrGatewayInvalidCallback

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/payments/callback", bytes.NewReader([]byte(`not json at all`)))
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestHandleCallbackFailedPush(t *testing.T) {
	env := setupCallbackRouter(t)
	record := env.seedPushedRecord(t, 1350000, "corr-failed")

	env.gateway.parseResult = &ledger.PushCallback{
		CorrelationID:     "corr-failed",
		Status:            ledger.PushStatusCancelled,
		ResultDescription: "Request cancelled by user",
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/payments/callback", bytes.NewReader([]byte(`{"Body":{}}`)))
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rejected := env.recordRepo.records[record.ID]
	assert.Equal(t, ledger.PaymentStateRejected, rejected.State)

	obligation := env.obligationRepo.obligations[record.ObligationID]
	assert.Equal(t, int64(0), obligation.AmountPaidMinor)
}

func TestHandleCallbackAmountMismatch(t *testing.T) {
	env := setupCallbackRouter(t)
	record := env.seedPushedRecord(t, 1350000, "corr-mismatch")

	env.gateway.parseResult = &ledger.PushCallback{
		CorrelationID: "corr-mismatch",
		Status:        ledger.PushStatusSuccess,
		AmountMinor:   1000000,
		ReceiptNumber: "SBK2ASDF",
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/payments/callback", bytes.NewReader([]byte(`{"Body":{}}`)))
	env.router.ServeHTTP(w, req)

	// Acknowledged so the gateway stops redelivering, but nothing settles
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	flagged := env.recordRepo.records[record.ID]
	assert.Equal(t, ledger.PaymentStatePending, flagged.State)
	assert.True(t, flagged.FlaggedForReview)

	obligation := env.obligationRepo.obligations[record.ObligationID]
	assert.Equal(t, int64(0), obligation.AmountPaidMinor)
}

func TestHandleCallbackRedelivery(t *testing.T) {
	env := setupCallbackRouter(t)
	record := env.seedPushedRecord(t, 1350000, "corr-redelivery")

	env.gateway.parseResult = &ledger.PushCallback{
		CorrelationID: "corr-redelivery",
		Status:        ledger.PushStatusSuccess,
		AmountMinor:   1350000,
		ReceiptNumber: "SBK3ZXCV",
	}

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/payments/callback", bytes.NewReader([]byte(`{"Body":{}}`)))
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "delivery %d: %s", i+1, w.Body.String())
	}

	// The credit applied exactly once
	obligation := env.obligationRepo.obligations[record.ObligationID]
	assert.Equal(t, int64(1350000), obligation.AmountPaidMinor)
}
