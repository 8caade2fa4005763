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

// BuildingSortFields contains allowed sort fields for buildings
var BuildingSortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"project_name":        true,
	"location":            true,
	"category":            true,
	"construction_status": true,
	"completion_date":     true,
	"price_min":           true,
	"price_max":           true,
	"total_units":         true,
	"available_units":     true,
	"sold_units":          true,
}

// PropertySortFields contains allowed sort fields for properties
var PropertySortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"unit_number":     true,
	"status":          true,
	"total_amount":    true,
	"amount_received": true,
	"balance_amount":  true,
	"delivery_date":   true,
	"sold_at":         true,
}

// LeadSortFields contains allowed sort fields for leads
var LeadSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"customer_name":     true,
	"value":             true,
	"probability":       true,
	"stage":             true,
	"priority":          true,
	"source":            true,
	"last_contact_at":   true,
	"next_follow_up_at": true,
	"stage_changed_at":  true,
}
