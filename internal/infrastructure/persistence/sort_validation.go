package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// FeeObligationSortFields contains allowed sort fields for fee obligations
var FeeObligationSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"obligation_number": true,
	"party_name":        true,
	"fee_type":          true,
	"amount_due_minor":  true,
	"amount_paid_minor": true,
	"balance_minor":     true,
	"status":            true,
	"due_date":          true,
	"paid_at":           true,
}

// PaymentRecordSortFields contains allowed sort fields for payment records
var PaymentRecordSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"record_number":     true,
	"obligation_number": true,
	"gross_minor":       true,
	"net_minor":         true,
	"channel":           true,
	"state":             true,
	"settled_at":        true,
	"rejected_at":       true,
}

// FeeScheduleItemSortFields contains allowed sort fields for fee schedule items
var FeeScheduleItemSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"name":            true,
	"fee_type":        true,
	"amount_minor":    true,
	"mandatory":       true,
	"due_offset_days": true,
	"active":          true,
}

// DiscountCodeSortFields contains allowed sort fields for discount codes
var DiscountCodeSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"code":        true,
	"kind":        true,
	"active":      true,
	"valid_from":  true,
	"valid_until": true,
}
