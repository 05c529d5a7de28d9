package mobilemoney

// stkPushRequest is the request body for initiating an STK push
type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// stkPushResponse is the synchronous acceptance of an STK push
type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// accessTokenResponse is the OAuth token grant response
type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// darajaErrorResponse is the error body returned on 4xx/5xx
type darajaErrorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// stkCallbackEnvelope wraps the asynchronous push result
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback stkCallbackBody `json:"stkCallback"`
	} `json:"Body"`
}

// stkCallbackBody carries the push outcome
type stkCallbackBody struct {
	MerchantRequestID string               `json:"MerchantRequestID"`
	CheckoutRequestID string               `json:"CheckoutRequestID"`
	ResultCode        int                  `json:"ResultCode"`
	ResultDesc        string               `json:"ResultDesc"`
	CallbackMetadata  *stkCallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// stkCallbackMetadata is present only on successful pushes
type stkCallbackMetadata struct {
	Item []stkCallbackItem `json:"Item"`
}

// stkCallbackItem is a loosely-typed name/value pair in the callback metadata
type stkCallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// Result codes reported by the gateway in the STK callback
const (
	stkResultSuccess      = 0
	stkResultCancelled    = 1032
	stkResultTimeout      = 1037
	metadataAmount        = "Amount"
	metadataReceiptNumber = "MpesaReceiptNumber"
	metadataPhoneNumber   = "PhoneNumber"
	metadataTransDate     = "TransactionDate"
)
