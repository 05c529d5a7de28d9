package mobilemoney

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feeledger/backend/internal/domain/ledger"
)

const (
	darajaAPIBaseURL        = "https://api.safaricom.co.ke"
	darajaSandboxAPIBaseURL = "https://sandbox.safaricom.co.ke"
	darajaOAuthPath         = "/oauth/v1/generate?grant_type=client_credentials"
	darajaSTKPushPath       = "/mpesa/stkpush/v1/processrequest"

	// tokenExpirySkew is subtracted from the granted lifetime so a token is
	// never presented moments before it lapses
	tokenExpirySkew = 30 * time.Second
)

// DarajaAdapter implements the PushGateway interface for the Daraja STK push
// API. One adapter holds one cached bearer token; calls are bounded by the
// HTTP client timeout and never retried here.
type DarajaAdapter struct {
	config     *DarajaConfig
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewDarajaAdapter creates a new Daraja adapter
func NewDarajaAdapter(config *DarajaConfig) (*DarajaAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &DarajaAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Name returns the provider name
func (a *DarajaAdapter) Name() string {
	return "mpesa"
}

// InitiatePush asks the gateway to prompt the payer's handset
func (a *DarajaAdapter) InitiatePush(ctx context.Context, req *ledger.InitiatePushRequest) (*ledger.InitiatePushResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	phone, err := a.normalizePhone(req.PayerPhone)
	if err != nil {
		return nil, err
	}

	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")
	body := stkPushRequest{
		BusinessShortCode: a.config.ShortCode,
		Password:          a.derivePassword(timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            minorToAmount(req.AmountMinor),
		PartyA:            phone,
		PartyB:            a.config.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       a.config.CallbackURL,
		AccountReference:  req.Reference,
		TransactionDesc:   req.Narration,
	}

	respBody, err := a.doRequest(ctx, "InitiatePush", darajaSTKPushPath, token, body)
	if err != nil {
		return nil, err
	}

	var respData stkPushResponse
	if err := json.Unmarshal(respBody, &respData); err != nil {
		return nil, ledger.NewGatewayError("InitiatePush", false,
			fmt.Errorf("%w: %v", ledger.ErrGatewayInvalidResponse, err))
	}
	if respData.ResponseCode != "0" {
		return nil, ledger.NewGatewayError("InitiatePush", false,
			fmt.Errorf("%w: %s - %s", ledger.ErrGatewayRequestFailed, respData.ResponseCode, respData.ResponseDescription))
	}
	if respData.CheckoutRequestID == "" {
		return nil, ledger.NewGatewayError("InitiatePush", false,
			fmt.Errorf("%w: missing checkout request id", ledger.ErrGatewayInvalidResponse))
	}

	return &ledger.InitiatePushResponse{
		CorrelationID:       respData.CheckoutRequestID,
		MerchantRequestID:   respData.MerchantRequestID,
		ResponseDescription: respData.ResponseDescription,
	}, nil
}

// ParseCallback parses an asynchronous STK push result payload
func (a *DarajaAdapter) ParseCallback(payload []byte) (*ledger.PushCallback, error) {
	var envelope stkCallbackEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrGatewayInvalidCallback, err)
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing checkout request id", ledger.ErrGatewayInvalidCallback)
	}

	callback := &ledger.PushCallback{
		CorrelationID:     cb.CheckoutRequestID,
		Status:            mapResultCode(cb.ResultCode),
		ResultCode:        cb.ResultCode,
		ResultDescription: cb.ResultDesc,
		RawPayload:        string(payload),
	}

	if cb.CallbackMetadata != nil {
		for _, item := range cb.CallbackMetadata.Item {
			switch item.Name {
			case metadataAmount:
				callback.AmountMinor = amountToMinor(item.Value)
			case metadataReceiptNumber:
				if s, ok := item.Value.(string); ok {
					callback.ReceiptNumber = s
				}
			case metadataPhoneNumber:
				callback.PayerPhone = itemValueString(item.Value)
			case metadataTransDate:
				if t, ok := parseTransactionDate(item.Value); ok {
					callback.CompletedAt = &t
				}
			}
		}
	}

	return callback, nil
}

// GenerateCallbackResponse generates the acknowledgement the gateway expects
func (a *DarajaAdapter) GenerateCallbackResponse(success bool, message string) []byte {
	resp := map[string]interface{}{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
	}
	if !success {
		resp["ResultCode"] = 1
		resp["ResultDesc"] = message
	}

	data, _ := json.Marshal(resp)
	return data
}

// accessToken returns the cached bearer token, refreshing it on expiry
func (a *DarajaAdapter) accessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.tokenExpiry) {
		return a.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL()+darajaOAuthPath, nil)
	if err != nil {
		return "", ledger.NewGatewayError("Authenticate", false,
			fmt.Errorf("%w: %v", ledger.ErrGatewayAuthFailed, err))
	}
	req.SetBasicAuth(a.config.ConsumerKey, a.config.ConsumerSecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", ledger.NewGatewayError("Authenticate", true,
			fmt.Errorf("%w: %v", ledger.ErrGatewayUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ledger.NewGatewayError("Authenticate", resp.StatusCode >= 500,
			fmt.Errorf("%w: HTTP %d", ledger.ErrGatewayAuthFailed, resp.StatusCode))
	}

	var tokenData accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenData); err != nil {
		return "", ledger.NewGatewayError("Authenticate", false,
			fmt.Errorf("%w: %v", ledger.ErrGatewayInvalidResponse, err))
	}
	if tokenData.AccessToken == "" {
		return "", ledger.NewGatewayError("Authenticate", false,
			fmt.Errorf("%w: empty access token", ledger.ErrGatewayAuthFailed))
	}

	lifetime := 3600 * time.Second
	if secs, err := strconv.Atoi(tokenData.ExpiresIn); err == nil && secs > 0 {
		lifetime = time.Duration(secs) * time.Second
	}

	a.token = tokenData.AccessToken
	a.tokenExpiry = time.Now().Add(lifetime - tokenExpirySkew)

	return a.token, nil
}

// doRequest performs an authenticated POST against the gateway
func (a *DarajaAdapter) doRequest(ctx context.Context, op, path, token string, body interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, ledger.NewGatewayError(op, false,
			fmt.Errorf("daraja: failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL()+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, ledger.NewGatewayError(op, false,
			fmt.Errorf("daraja: failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, ledger.NewGatewayError(op, true,
			fmt.Errorf("%w: %v", ledger.ErrGatewayUnavailable, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ledger.NewGatewayError(op, true,
			fmt.Errorf("daraja: failed to read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		retryable := resp.StatusCode >= 500
		var errResp darajaErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.ErrorCode != "" {
			return nil, ledger.NewGatewayError(op, retryable,
				fmt.Errorf("%w: %s - %s", ledger.ErrGatewayRequestFailed, errResp.ErrorCode, errResp.ErrorMessage))
		}
		return nil, ledger.NewGatewayError(op, retryable,
			fmt.Errorf("%w: HTTP %d", ledger.ErrGatewayRequestFailed, resp.StatusCode))
	}

	return respBody, nil
}

// normalizePhone strips the leading plus and enforces the allowed prefixes
func (a *DarajaAdapter) normalizePhone(phone string) (string, error) {
	normalized := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if len(normalized) < 10 || len(normalized) > 15 {
		return "", fmt.Errorf("%w: %q", ledger.ErrPushInvalidPhone, phone)
	}
	for _, r := range normalized {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ledger.ErrPushInvalidPhone, phone)
		}
	}
	for _, prefix := range a.config.phonePrefixes() {
		if strings.HasPrefix(normalized, prefix) {
			return normalized, nil
		}
	}
	return "", fmt.Errorf("%w: %q is outside the allowed prefixes", ledger.ErrPushInvalidPhone, phone)
}

// derivePassword derives the per-request password from shortcode, passkey and
// timestamp
func (a *DarajaAdapter) derivePassword(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(a.config.ShortCode + a.config.Passkey + timestamp))
}

func (a *DarajaAdapter) baseURL() string {
	if a.config.IsSandbox {
		return darajaSandboxAPIBaseURL
	}
	return darajaAPIBaseURL
}

// minorToAmount renders integer minor units as the whole-unit amount the
// gateway expects
func minorToAmount(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).String()
}

// amountToMinor converts the callback's whole-unit amount to minor units
func amountToMinor(value interface{}) int64 {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).IntPart()
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d.Mul(decimal.NewFromInt(100)).IntPart()
		}
	}
	return 0
}

// itemValueString renders a metadata value that may arrive as number or string
func itemValueString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return decimal.NewFromFloat(v).String()
	}
	return ""
}

// parseTransactionDate parses the gateway's YYYYMMDDHHMMSS completion stamp
func parseTransactionDate(value interface{}) (time.Time, bool) {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case float64:
		raw = strconv.FormatInt(int64(v), 10)
	default:
		return time.Time{}, false
	}

	t, err := time.Parse("20060102150405", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// mapResultCode maps the gateway's numeric result code to a push status
func mapResultCode(code int) ledger.PushStatus {
	switch code {
	case stkResultSuccess:
		return ledger.PushStatusSuccess
	case stkResultCancelled:
		return ledger.PushStatusCancelled
	case stkResultTimeout:
		return ledger.PushStatusTimeout
	default:
		return ledger.PushStatusFailed
	}
}

// Ensure DarajaAdapter implements PushGateway interface
var _ ledger.PushGateway = (*DarajaAdapter)(nil)
