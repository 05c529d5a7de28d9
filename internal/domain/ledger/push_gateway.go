package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Push Gateway Errors
// ---------------------------------------------------------------------------

var (
	// Push initiation errors
	ErrPushInvalidTenantID  = errors.New("push: invalid tenant ID")
	ErrPushInvalidRecordID  = errors.New("push: invalid payment record ID")
	ErrPushInvalidReference = errors.New("push: invalid record reference")
	ErrPushInvalidAmount    = errors.New("push: invalid push amount")
	ErrPushInvalidPhone     = errors.New("push: invalid payer phone number")
	ErrPushInvalidNarration = errors.New("push: invalid narration")

	// Gateway errors
	ErrGatewayNotConfigured   = errors.New("push: gateway not configured")
	ErrGatewayUnavailable     = errors.New("push: gateway temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("push: gateway request failed")
	ErrGatewayInvalidResponse = errors.New("push: invalid gateway response")
	ErrGatewayInvalidCallback = errors.New("push: unparseable callback payload")
	ErrGatewayAuthFailed      = errors.New("push: gateway credential request failed")
)

// GatewayError wraps a gateway failure with a retryability hint. Transport
// faults and 5xx responses are retryable by a caller that chooses to; payload
// rejections are not. The adapter itself never retries.
type GatewayError struct {
	Op        string
	Retryable bool
	Err       error
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a new gateway error
func NewGatewayError(op string, retryable bool, err error) *GatewayError {
	return &GatewayError{Op: op, Retryable: retryable, Err: err}
}

// IsRetryableGatewayError reports whether err is a GatewayError marked retryable
func IsRetryableGatewayError(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return false
}

// ---------------------------------------------------------------------------
// PushStatus represents the outcome reported by an asynchronous gateway callback
type PushStatus string

const (
	// PushStatusSuccess indicates the payer authorized and funds moved
	PushStatusSuccess PushStatus = "SUCCESS"
	// PushStatusFailed indicates the push failed (insufficient funds, declined)
	PushStatusFailed PushStatus = "FAILED"
	// PushStatusCancelled indicates the payer dismissed the prompt
	PushStatusCancelled PushStatus = "CANCELLED"
	// PushStatusTimeout indicates the prompt expired unanswered
	PushStatusTimeout PushStatus = "TIMEOUT"
)

// IsValid returns true if the status is valid
func (s PushStatus) IsValid() bool {
	switch s {
	case PushStatusSuccess, PushStatusFailed, PushStatusCancelled, PushStatusTimeout:
		return true
	default:
		return false
	}
}

// String returns the string representation of PushStatus
func (s PushStatus) String() string {
	return string(s)
}

// IsSuccess returns true if the push completed with funds moved
func (s PushStatus) IsSuccess() bool {
	return s == PushStatusSuccess
}

// ---------------------------------------------------------------------------
// Push Request/Response DTOs
// ---------------------------------------------------------------------------

// InitiatePushRequest represents a request to push a payment prompt to a
// payer's handset
type InitiatePushRequest struct {
	// TenantID is the institution initiating the push
	TenantID uuid.UUID
	// RecordID is our internal payment record ID
	RecordID uuid.UUID
	// Reference is our record number, echoed back in the callback
	Reference string
	// AmountMinor is the amount to collect in integer minor units
	AmountMinor int64
	// Currency is the ISO 4217 currency code
	Currency string
	// PayerPhone is the payer's MSISDN in international format
	PayerPhone string
	// Narration is the short description shown on the payer's prompt
	Narration string
}

// Validate validates the initiate push request
func (r *InitiatePushRequest) Validate() error {
	if r.TenantID == uuid.Nil {
		return ErrPushInvalidTenantID
	}
	if r.RecordID == uuid.Nil {
		return ErrPushInvalidRecordID
	}
	if r.Reference == "" {
		return ErrPushInvalidReference
	}
	if r.AmountMinor <= 0 {
		return ErrPushInvalidAmount
	}
	if r.PayerPhone == "" {
		return ErrPushInvalidPhone
	}
	if r.Narration == "" {
		return ErrPushInvalidNarration
	}
	return nil
}

// InitiatePushResponse represents the synchronous acceptance of a push
type InitiatePushResponse struct {
	// CorrelationID is the gateway's handle for the push, used to match the
	// asynchronous callback to our payment record
	CorrelationID string
	// MerchantRequestID is the gateway's secondary request identifier
	MerchantRequestID string
	// ResponseDescription is the human-readable acceptance message
	ResponseDescription string
}

// ---------------------------------------------------------------------------
// Push Callback Types
// ---------------------------------------------------------------------------

// PushCallback represents the asynchronous confirmation from the gateway
type PushCallback struct {
	// CorrelationID matches the InitiatePushResponse of the original push
	CorrelationID string
	// Status is the reported outcome
	Status PushStatus
	// AmountMinor is the amount actually collected, in integer minor units.
	// Only meaningful when Status is SUCCESS.
	AmountMinor int64
	// ReceiptNumber is the gateway's receipt for a successful collection
	ReceiptNumber string
	// PayerPhone is the payer's MSISDN as reported by the gateway
	PayerPhone string
	// ResultCode is the gateway's numeric result code
	ResultCode int
	// ResultDescription is the gateway's result message
	ResultDescription string
	// CompletedAt is when the gateway finalized the push
	CompletedAt *time.Time
	// RawPayload is the original callback payload
	RawPayload string
}

// ---------------------------------------------------------------------------
// PushGateway Port Interface
// ---------------------------------------------------------------------------

// PushGateway defines the port interface for mobile-money push providers.
// It is defined in the domain layer; concrete HTTP adapters live in the
// infrastructure layer. Implementations validate payer phone prefixes, hold
// a cached access credential, bound every call with a timeout, and fail fast
// without retrying.
type PushGateway interface {
	// Name returns the provider name for logging and configuration
	Name() string

	// InitiatePush asks the provider to prompt the payer's handset.
	// The returned correlation ID links the eventual callback to the record.
	InitiatePush(ctx context.Context, req *InitiatePushRequest) (*InitiatePushResponse, error)

	// ParseCallback parses and validates an asynchronous callback payload.
	// Returns ErrGatewayInvalidCallback for payloads that cannot be parsed.
	ParseCallback(payload []byte) (*PushCallback, error)

	// GenerateCallbackResponse generates the acknowledgement body the
	// provider expects after a callback has been processed
	GenerateCallbackResponse(success bool, message string) []byte
}

// PushCallbackHandler is implemented by the application layer to process
// parsed gateway callbacks
type PushCallbackHandler interface {
	// HandlePushCallback applies a parsed callback to the owning payment
	// record. Redeliveries for records already settled or rejected are
	// acknowledged without effect.
	HandlePushCallback(ctx context.Context, callback *PushCallback) error
}
