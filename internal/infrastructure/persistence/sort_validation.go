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

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":                      true,
	"created_at":              true,
	"updated_at":              true,
	"order_number":            true,
	"client_id":               true,
	"client_name":             true,
	"stage":                   true,
	"total_amount":            true,
	"production_started_at":   true,
	"production_completed_at": true,
	"delivery_started_at":     true,
	"delivery_completed_at":   true,
}

// ReturnSortFields contains allowed sort fields for order returns
var ReturnSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"return_number": true,
	"order_id":      true,
	"client_id":     true,
	"return_type":   true,
	"total_credit":  true,
}

// PaymentRecordSortFields contains allowed sort fields for order payment records
var PaymentRecordSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"order_id":     true,
	"order_number": true,
	"client_id":    true,
	"order_date":   true,
	"order_total":  true,
	"amount_paid":  true,
	"status":       true,
	"due_date":     true,
}

// SessionSortFields contains allowed sort fields for settlement sessions
var SessionSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"client_id":         true,
	"total_collectible": true,
	"amount_collected":  true,
	"status":            true,
	"settled_at":        true,
}

// TransactionSortFields contains allowed sort fields for payment transactions
var TransactionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"transaction_type": true,
	"amount":           true,
	"transaction_date": true,
}

// BalanceSortFields contains allowed sort fields for client balances
var BalanceSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"client_id":         true,
	"current_balance":   true,
	"total_debt":        true,
	"total_credit":      true,
	"last_payment_date": true,
	"last_order_date":   true,
}
