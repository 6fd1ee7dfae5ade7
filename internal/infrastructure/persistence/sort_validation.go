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

// InventoryItemSortFields contains allowed sort fields for inventory items
var InventoryItemSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"code":              true,
	"name":              true,
	"unit":              true,
	"current_stock":     true,
	"minimum_threshold": true,
	"unit_cost":         true,
}

// InventoryTransactionSortFields contains allowed sort fields for inventory transactions
var InventoryTransactionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"item_code":        true,
	"transaction_type": true,
	"quantity":         true,
	"source_type":      true,
	"source_id":        true,
	"transaction_date": true,
}

// IncidentSortFields contains allowed sort fields for incidents
var IncidentSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"incident_number": true,
	"asset_code":      true,
	"status":          true,
	"claim_status":    true,
	"damage_level":    true,
	"estimated_cost":  true,
}

// MaterialRequestSortFields contains allowed sort fields for material requests
var MaterialRequestSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"request_number": true,
	"status":         true,
	"approved_at":    true,
	"delivered_at":   true,
}

// PurchaseRequestSortFields contains allowed sort fields for purchase requests
var PurchaseRequestSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"request_number": true,
	"status":         true,
	"total_cost":     true,
	"approved_at":    true,
	"ordered_at":     true,
	"arrived_at":     true,
	"delivered_at":   true,
}
