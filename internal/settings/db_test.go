package settings

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := InitSettingsTable(db); err != nil {
		t.Fatalf("Failed to initialize settings table: %v", err)
	}
	return db
}

func TestInitSettingsTable(t *testing.T) {
	db := setupTestDB(t)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&count); err != nil {
		t.Fatalf("Failed to query settings table: %v", err)
	}
	if count != len(DefaultSettings) {
		t.Errorf("got %d settings, want %d defaults", count, len(DefaultSettings))
	}

	// Re-running must not duplicate defaults
	if err := InitSettingsTable(db); err != nil {
		t.Fatalf("Second init failed: %v", err)
	}
	db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&count)
	if count != len(DefaultSettings) {
		t.Errorf("got %d settings after re-init, want %d", count, len(DefaultSettings))
	}
}

func TestGetSetting(t *testing.T) {
	db := setupTestDB(t)

	s, err := GetSetting(db, "forecast", "horizon_days")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if s == nil || s.Value != "30" || s.ValueType != "int" {
		t.Errorf("unexpected setting: %+v", s)
	}

	s, err = GetSetting(db, "forecast", "nosuch")
	if err != nil || s != nil {
		t.Errorf("missing setting = %+v, %v; want nil, nil", s, err)
	}
}

func TestUpdateSetting_Validation(t *testing.T) {
	db := setupTestDB(t)

	if err := UpdateSetting(db, "forecast", "horizon_days", "60"); err != nil {
		t.Fatalf("valid update failed: %v", err)
	}
	if got := GetIntSettingWithDefault(db, "forecast", "horizon_days", 0); got != 60 {
		t.Errorf("horizon_days = %d, want 60", got)
	}

	if err := UpdateSetting(db, "forecast", "horizon_days", "abc"); err == nil {
		t.Error("non-integer value should be rejected")
	}
	if err := UpdateSetting(db, "alerts", "enabled", "yes"); err == nil {
		t.Error("non-boolean value should be rejected")
	}
	if err := UpdateSetting(db, "nosuch", "key", "1"); err == nil {
		t.Error("unknown setting should be rejected")
	}
}

func TestResetCategoryToDefaults(t *testing.T) {
	db := setupTestDB(t)

	UpdateSetting(db, "orders", "auto_reject_days", "14")
	if err := ResetCategoryToDefaults(db, "orders"); err != nil {
		t.Fatalf("ResetCategoryToDefaults failed: %v", err)
	}
	if got := GetIntSettingWithDefault(db, "orders", "auto_reject_days", 0); got != 7 {
		t.Errorf("auto_reject_days = %d, want 7", got)
	}

	if err := ResetCategoryToDefaults(db, "nosuch"); err == nil {
		t.Error("unknown category should be rejected")
	}
}

func TestTypedGetters(t *testing.T) {
	db := setupTestDB(t)

	if got := GetBoolSettingWithDefault(db, "alerts", "enabled", false); !got {
		t.Error("alerts.enabled should default to true")
	}
	if got := GetIntSettingWithDefault(db, "nosuch", "key", 42); got != 42 {
		t.Errorf("fallback = %d, want 42", got)
	}
}

func TestGetSettingsGrouped(t *testing.T) {
	db := setupTestDB(t)

	grouped, err := GetSettingsGrouped(db)
	if err != nil {
		t.Fatalf("GetSettingsGrouped failed: %v", err)
	}
	for _, category := range []string{"forecast", "orders", "alerts", "system"} {
		if len(grouped[category]) == 0 {
			t.Errorf("category %s missing from grouped settings", category)
		}
	}
}
