package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "DESC"},
		{"ASC", "ASC"},
		{"asc", "ASC"},
		{"  asc  ", "ASC"},
		{"DESC", "DESC"},
		{"desc", "DESC"},
		{"sideways", "DESC"},
		{"ASC; DROP TABLE payment_records;--", "DESC"},
		{"   ", "DESC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ValidateSortOrder(tt.input), "input %q", tt.input)
	}
}

func TestValidateSortField(t *testing.T) {
	allowed := map[string]bool{
		"id":            true,
		"created_at":    true,
		"record_number": true,
	}

	t.Run("whitelisted field passes", func(t *testing.T) {
		assert.Equal(t, "record_number", ValidateSortField("record_number", allowed, "created_at"))
		assert.Equal(t, "record_number", ValidateSortField("  record_number  ", allowed, "created_at"))
	})

	t.Run("anything else falls back to the default", func(t *testing.T) {
		for _, input := range []string{
			"",
			"   ",
			"balance",              // not whitelisted here
			"RECORD_NUMBER",        // whitelist is case sensitive
			"record_number'--",     // quote injection
			"record_number, id",    // column list smuggling
			"id; DROP TABLE fees;", // statement injection
			"id UNION SELECT * FROM operators",
		} {
			assert.Equal(t, "created_at", ValidateSortField(input, allowed, "created_at"), "input %q", input)
		}
	})

	t.Run("empty default is returned verbatim", func(t *testing.T) {
		assert.Equal(t, "", ValidateSortField("nope", allowed, ""))
	})
}

func TestSortFieldWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"fee obligations":    FeeObligationSortFields,
		"payment records":    PaymentRecordSortFields,
		"fee schedule items": FeeScheduleItemSortFields,
		"discount codes":     DiscountCodeSortFields,
	}

	for name, whitelist := range whitelists {
		t.Run(name, func(t *testing.T) {
			// every list sorts by the shared lifecycle columns
			for _, field := range []string{"id", "created_at", "updated_at"} {
				assert.True(t, whitelist[field], "%s whitelist missing %q", name, field)
			}
			assert.Greater(t, len(whitelist), 3)
		})
	}

	t.Run("domain columns are sortable", func(t *testing.T) {
		assert.True(t, FeeObligationSortFields["balance_minor"])
		assert.True(t, FeeObligationSortFields["due_date"])
		assert.True(t, PaymentRecordSortFields["record_number"])
		assert.True(t, PaymentRecordSortFields["settled_at"])
		assert.True(t, FeeScheduleItemSortFields["fee_type"])
	})
}
