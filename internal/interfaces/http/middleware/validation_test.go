package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/feeledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodedValidationError struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	SetupValidator()

	type declareRequest struct {
		PhoneNumber string `json:"phone_number" binding:"required"`
		AmountMinor int64  `json:"amount_minor" binding:"required,gt=0"`
	}

	engine := gin.New()
	engine.POST("/payments", func(c *gin.Context) {
		var req declareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"amount_minor": -5}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp decodedValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Request validation failed", resp.Error.Message)
	require.Len(t, resp.Error.Details, 2)

	// Field names come from json tags, not Go names.
	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", fields["phone_number"])
	assert.Equal(t, "Must be greater than 0", fields["amount_minor"])
}

func TestHandleValidationError_ValidPayloadPasses(t *testing.T) {
	SetupValidator()

	type declareRequest struct {
		PhoneNumber string `json:"phone_number" binding:"required"`
		AmountMinor int64  `json:"amount_minor" binding:"required,gt=0"`
	}

	engine := gin.New()
	engine.POST("/payments", func(c *gin.Context) {
		var req declareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/payments",
		strings.NewReader(`{"phone_number": "254711000111", "amount_minor": 150000}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidationMessage(t *testing.T) {
	type ruleSet struct {
		Required string `validate:"required"`
		Email    string `validate:"email"`
		Min      string `validate:"min=5"`
		MinInt   int    `validate:"min=3"`
		Max      string `validate:"max=2"`
		Len      string `validate:"len=4"`
		UUID     string `validate:"uuid"`
		OneOf    string `validate:"oneof=cash mobile_money"`
		GTE      int    `validate:"gte=10"`
		LTE      int    `validate:"lte=-1"`
		GT       int    `validate:"gt=5"`
		LT       int    `validate:"lt=-5"`
		URL      string `validate:"url"`
		Numeric  string `validate:"numeric"`
		Custom   string `validate:"boolean"`
	}

	v := validator.New()
	err := v.Struct(ruleSet{
		Email:   "not-an-email",
		Min:     "ab",
		MinInt:  1,
		Max:     "abc",
		Len:     "ab",
		UUID:    "nope",
		OneOf:   "cheque",
		GTE:     1,
		LTE:     5,
		GT:      1,
		LT:      5,
		URL:     "nope",
		Numeric: "abc",
		Custom:  "maybe",
	})
	require.Error(t, err)

	expected := map[string]string{
		"Required": "This field is required",
		"Email":    "Invalid email format",
		"Min":      "Must be at least 5 characters",
		"MinInt":   "Must be at least 3",
		"Max":      "Must be at most 2 characters",
		"Len":      "Must be exactly 4 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: cash mobile_money",
		"GTE":      "Must be greater than or equal to 10",
		"LTE":      "Must be less than or equal to -1",
		"GT":       "Must be greater than 5",
		"LT":       "Must be less than -5",
		"URL":      "Invalid URL format",
		"Numeric":  "Must be numeric",
		"Custom":   "Invalid value",
	}

	fieldErrs := err.(validator.ValidationErrors)
	require.Len(t, fieldErrs, len(expected))
	for _, e := range fieldErrs {
		assert.Equal(t, expected[e.StructField()], validationMessage(e), "field %s", e.StructField())
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}
