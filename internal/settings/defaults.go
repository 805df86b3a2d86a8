package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultSettings defines the default configuration values
var DefaultSettings = []Setting{
	// Forecast settings
	{Category: "forecast", Key: "horizon_days", Value: "30", ValueType: "int", Description: "Days to project demand ahead"},
	{Category: "forecast", Key: "history_window_days", Value: "90", ValueType: "int", Description: "Days of outflow history fed into the forecast"},
	{Category: "forecast", Key: "dashboard_periods", Value: "6", ValueType: "int", Description: "Forecast points shown on the dashboard chart"},

	// Order settings
	{Category: "orders", Key: "auto_reject_days", Value: "7", ValueType: "int", Description: "Days before an unconfirmed order is auto-rejected"},

	// Alert settings
	{Category: "alerts", Key: "enabled", Value: "true", ValueType: "bool", Description: "Enable stock level alerts"},
	{Category: "alerts", Key: "reorder_suggestions", Value: "true", ValueType: "bool", Description: "Publish reorder recommendations from the daily stock scan"},

	// System settings
	{Category: "system", Key: "page_size", Value: "10", ValueType: "int", Description: "Default rows per page in listings"},
	{Category: "system", Key: "currency", Value: "USD", ValueType: "string", Description: "Currency code shown next to prices"},
	{Category: "system", Key: "timezone", Value: "UTC", ValueType: "string", Description: "Display timezone for timestamps"},
}

// validateSettingValue validates a value against its expected type
func validateSettingValue(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("value must be an integer")
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("value must be a number")
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("value must be 'true' or 'false'")
		}
	case "json":
		if !json.Valid([]byte(value)) {
			return fmt.Errorf("value must be valid JSON")
		}
	}
	return nil
}
