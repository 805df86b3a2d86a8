package notify

import (
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"stocklens/internal/events"
)

// mockSender records calls for assertion.
type mockSender struct {
	mu       sync.Mutex
	calls    []string
	failNext bool
}

func (m *mockSender) Send(url, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, message)
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("mock send error")
	}
	return nil
}

func (m *mockSender) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockSender) lastMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

// setupTestDB creates an in-memory database with the notification tables.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	base := `
	CREATE TABLE notification_settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		service_type TEXT NOT NULL,
		config_json TEXT NOT NULL,
		enabled INTEGER DEFAULT 1,
		notify_on_critical INTEGER DEFAULT 1,
		notify_on_warning INTEGER DEFAULT 1,
		notify_on_info INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE notification_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		service_id INTEGER,
		event_type TEXT NOT NULL,
		item_code TEXT DEFAULT '',
		message TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT DEFAULT '',
		sent_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(base); err != nil {
		t.Fatalf("Failed to create base tables: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Failed to run notification migration: %v", err)
	}
	return db
}

// setupDispatcherTest creates an in-memory DB, bus, mock sender, and dispatcher.
func setupDispatcherTest(t *testing.T) (*sql.DB, *events.Bus, *mockSender, *Dispatcher) {
	t.Helper()
	db := setupTestDB(t)
	bus := events.NewBus()
	sender := &mockSender{}
	d := NewDispatcher(db, bus, sender)
	return db, bus, sender, d
}

func TestDispatcherSendsOnMatchingSeverity(t *testing.T) {
	db, bus, sender, d := setupDispatcherTest(t)

	CreateService(db, &NotificationService{
		Name:             "test",
		ServiceType:      "generic",
		ConfigJSON:       `{"shoutrrr_url":"generic://example.com"}`,
		Enabled:          true,
		NotifyOnCritical: true,
	})

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{
		Type:     events.StockDepleted,
		Severity: events.SeverityCritical,
		ItemCode: "SKU-001",
		Message:  "Stock depleted",
	})

	// Give the async goroutine time to process
	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 1 {
		t.Errorf("expected 1 send, got %d", sender.callCount())
	}
	if msg := sender.lastMessage(); msg != "[critical] [SKU-001] Stock depleted" {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestDispatcherSkipsDisabledSeverity(t *testing.T) {
	db, bus, sender, d := setupDispatcherTest(t)

	// Service only notifies on critical, NOT warning
	CreateService(db, &NotificationService{
		Name:             "crit-only",
		ServiceType:      "generic",
		ConfigJSON:       `{"shoutrrr_url":"generic://example.com"}`,
		Enabled:          true,
		NotifyOnCritical: true,
		NotifyOnWarning:  false,
	})

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{
		Type:     events.StockLow,
		Severity: events.SeverityWarning,
		ItemCode: "SKU-001",
		Message:  "Stock below minimum level",
	})

	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 0 {
		t.Errorf("expected 0 sends for warning, got %d", sender.callCount())
	}
}

func TestDispatcherEnforcesCooldown(t *testing.T) {
	db, bus, sender, d := setupDispatcherTest(t)

	svcID, _ := CreateService(db, &NotificationService{
		Name:             "cooldown-test",
		ServiceType:      "generic",
		ConfigJSON:       `{"shoutrrr_url":"generic://example.com"}`,
		Enabled:          true,
		NotifyOnWarning:  true,
		NotifyOnCritical: true,
	})

	UpsertEventRule(db, &EventRule{
		ServiceID: svcID,
		EventType: string(events.StockLow),
		Enabled:   true,
		Cooldown:  10,
	})

	d.Start()
	defer d.Stop()

	for i := 0; i < 3; i++ {
		bus.Publish(events.Event{
			Type:     events.StockLow,
			Severity: events.SeverityWarning,
			ItemCode: "SKU-001",
			Message:  "Stock below minimum level",
		})
	}

	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 1 {
		t.Errorf("expected 1 send within cooldown window, got %d", sender.callCount())
	}
}

func TestDispatcherCooldownIsPerItem(t *testing.T) {
	db, bus, sender, d := setupDispatcherTest(t)

	svcID, _ := CreateService(db, &NotificationService{
		Name:            "per-item",
		ServiceType:     "generic",
		ConfigJSON:      `{"shoutrrr_url":"generic://example.com"}`,
		Enabled:         true,
		NotifyOnWarning: true,
	})

	UpsertEventRule(db, &EventRule{
		ServiceID: svcID,
		EventType: string(events.StockLow),
		Enabled:   true,
		Cooldown:  10,
	})

	d.Start()
	defer d.Stop()

	for _, code := range []string{"SKU-001", "SKU-002"} {
		bus.Publish(events.Event{
			Type:     events.StockLow,
			Severity: events.SeverityWarning,
			ItemCode: code,
			Message:  "Stock below minimum level",
		})
	}

	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 2 {
		t.Errorf("expected 2 sends for distinct items, got %d", sender.callCount())
	}
}

func TestDispatcherDisabledRuleBlocksEvent(t *testing.T) {
	db, bus, sender, d := setupDispatcherTest(t)

	svcID, _ := CreateService(db, &NotificationService{
		Name:            "rule-off",
		ServiceType:     "generic",
		ConfigJSON:      `{"shoutrrr_url":"generic://example.com"}`,
		Enabled:         true,
		NotifyOnWarning: true,
	})

	UpsertEventRule(db, &EventRule{
		ServiceID: svcID,
		EventType: string(events.StockLow),
		Enabled:   false,
	})

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{
		Type:     events.StockLow,
		Severity: events.SeverityWarning,
		ItemCode: "SKU-001",
		Message:  "Stock below minimum level",
	})

	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 0 {
		t.Errorf("expected 0 sends for disabled rule, got %d", sender.callCount())
	}
}

func TestDispatcherRecordsHistory(t *testing.T) {
	db, bus, sender, d := setupDispatcherTest(t)

	CreateService(db, &NotificationService{
		Name:             "history",
		ServiceType:      "generic",
		ConfigJSON:       `{"shoutrrr_url":"generic://example.com"}`,
		Enabled:          true,
		NotifyOnCritical: true,
	})
	sender.failNext = true

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{
		Type:     events.StockDepleted,
		Severity: events.SeverityCritical,
		ItemCode: "SKU-001",
		Message:  "Stock depleted",
	})

	time.Sleep(100 * time.Millisecond)

	records, err := RecentHistory(db, 10)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != "failed" || rec.ErrorMessage == "" {
		t.Errorf("failed send not recorded: %+v", rec)
	}
	if rec.ItemCode != "SKU-001" {
		t.Errorf("item code = %q, want SKU-001", rec.ItemCode)
	}
}

func TestQuietHoursSuppressesNonCritical(t *testing.T) {
	db, _, _, d := setupDispatcherTest(t)

	svcID, _ := CreateService(db, &NotificationService{
		Name:            "quiet",
		ServiceType:     "generic",
		ConfigJSON:      `{"shoutrrr_url":"generic://example.com"}`,
		Enabled:         true,
		NotifyOnWarning: true,
	})

	// A window covering the whole day always contains "now"
	UpsertQuietHours(db, &QuietHours{
		ServiceID: svcID,
		StartTime: "00:00",
		EndTime:   "23:59",
		Enabled:   true,
	})

	warning := events.Event{Severity: events.SeverityWarning}
	if !d.inQuietHours(svcID, warning) {
		t.Error("warning should be suppressed inside quiet hours")
	}

	critical := events.Event{Severity: events.SeverityCritical}
	if d.inQuietHours(svcID, critical) {
		t.Error("critical must bypass quiet hours")
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name  string
		event events.Event
		want  string
	}{
		{"with item", events.Event{
			Severity: events.SeverityWarning, ItemCode: "SKU-1", Message: "low",
		}, "[warning] [SKU-1] low"},
		{"with order", events.Event{
			Severity: events.SeverityInfo, OrderCode: "ORD-ABC", Message: "created",
		}, "[info] [ORD-ABC] created"},
		{"bare", events.Event{
			Severity: events.SeverityCritical, Message: "boom",
		}, "[critical] boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatMessage(tt.event); got != tt.want {
				t.Errorf("formatMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
