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

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"unit_price":     true,
	"total_quantity": true,
	"reorder_level":  true,
}

// StockBatchSortFields contains allowed sort fields for stock batches
var StockBatchSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"batch_number":       true,
	"product_id":         true,
	"quantity":           true,
	"unit_cost":          true,
	"received_date":      true,
	"manufacturing_date": true,
	"expiry_date":        true,
}

// BillSortFields contains allowed sort fields for bills
var BillSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"number":         true,
	"customer_id":    true,
	"customer_name":  true,
	"bill_date":      true,
	"due_date":       true,
	"total_amount":   true,
	"due_amount":     true,
	"payment_status": true,
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"name":                true,
	"email":               true,
	"phone":               true,
	"outstanding_balance": true,
}

// NotificationSortFields contains allowed sort fields for notifications
var NotificationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"product_id": true,
	"type":       true,
	"read":       true,
}
