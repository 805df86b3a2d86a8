package jobs

import (
	"sync"
	"testing"
	"time"

	"stocklens/internal/db"
	"stocklens/internal/events"
	"stocklens/internal/settings"
)

// collector records every event published on the bus.
type collector struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *collector) record(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) byType(t events.EventType) []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []events.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func setupJobsTest(t *testing.T) (*Runner, *collector) {
	t.Helper()

	if err := db.Init(":memory:"); err != nil {
		t.Fatalf("Failed to init test database: %v", err)
	}
	t.Cleanup(func() { db.DB.Close() })

	if err := settings.InitSettingsTable(db.DB); err != nil {
		t.Fatalf("Failed to init settings: %v", err)
	}

	bus := events.NewBus()
	c := &collector{}
	bus.Subscribe(c.record)

	return New(bus), c
}

func seedItem(t *testing.T, code string, stock, minStock, maxStock int) int64 {
	t.Helper()
	res, err := db.DB.Exec(`
		INSERT INTO items (code, name, stock_qty, min_stock, max_stock, unit, price)
		VALUES (?, ?, ?, ?, ?, 'pcs', '10')`, code, "Item "+code, stock, minStock, maxStock)
	if err != nil {
		t.Fatalf("Failed to seed item: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func seedStaleOrder(t *testing.T, code string) int64 {
	t.Helper()
	past := time.Now().UTC().Add(-time.Hour).Format("2006-01-02 15:04:05")
	res, err := db.DB.Exec(`
		INSERT INTO orders (order_code, supplier_id, status, total_amount, notes, order_date, auto_reject_at)
		VALUES (?, 1, 'pending', '0', '', ?, ?)`, code, past, past)
	if err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func TestScanStockLevels(t *testing.T) {
	runner, c := setupJobsTest(t)

	seedItem(t, "LOW-001", 2, 5, 100)
	seedItem(t, "OUT-001", 0, 5, 100)
	seedItem(t, "OK-001", 50, 5, 100)

	runner.scanStockLevels()

	if got := c.byType(events.StockLow); len(got) != 1 || got[0].ItemCode != "LOW-001" {
		t.Errorf("stock_low events = %+v, want one for LOW-001", got)
	}
	if got := c.byType(events.StockDepleted); len(got) != 1 || got[0].ItemCode != "OUT-001" {
		t.Errorf("stock_depleted events = %+v, want one for OUT-001", got)
	}

	// Both flagged items are at or below the reorder point, so each
	// should carry a reorder recommendation.
	recs := c.byType(events.ReorderRecommended)
	if len(recs) != 2 {
		t.Errorf("got %d reorder recommendations, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.Metadata["quantity"] == "" || rec.Metadata["urgency"] == "" {
			t.Errorf("recommendation missing metadata: %+v", rec)
		}
	}
}

func TestScanStockLevels_AlertsDisabled(t *testing.T) {
	runner, c := setupJobsTest(t)

	seedItem(t, "LOW-001", 2, 5, 100)
	if err := settings.UpdateSetting(db.DB, "alerts", "enabled", "false"); err != nil {
		t.Fatalf("Failed to disable alerts: %v", err)
	}

	runner.scanStockLevels()

	if len(c.byType(events.StockLow)) != 0 {
		t.Error("alerts should be suppressed when alerts.enabled is false")
	}
}

func TestScanStockLevels_SuggestionsDisabled(t *testing.T) {
	runner, c := setupJobsTest(t)

	seedItem(t, "LOW-001", 2, 5, 100)
	if err := settings.UpdateSetting(db.DB, "alerts", "reorder_suggestions", "false"); err != nil {
		t.Fatalf("Failed to disable suggestions: %v", err)
	}

	runner.scanStockLevels()

	if len(c.byType(events.StockLow)) != 1 {
		t.Error("low stock alert should still fire")
	}
	if len(c.byType(events.ReorderRecommended)) != 0 {
		t.Error("reorder recommendations should be suppressed")
	}
}

func TestAutoRejectOrders(t *testing.T) {
	runner, c := setupJobsTest(t)

	seedStaleOrder(t, "ORD-STALE01")

	runner.autoRejectOrders()

	got := c.byType(events.OrderAutoRejected)
	if len(got) != 1 {
		t.Fatalf("got %d auto-reject events, want 1", len(got))
	}
	if got[0].OrderCode != "ORD-STALE01" {
		t.Errorf("order code = %q, want ORD-STALE01", got[0].OrderCode)
	}

	order, _, err := db.GetOrder(1)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if order.Status != "rejected" {
		t.Errorf("order status = %q, want rejected", order.Status)
	}

	// A second pass finds nothing new
	runner.autoRejectOrders()
	if len(c.byType(events.OrderAutoRejected)) != 1 {
		t.Error("already-rejected order should not fire again")
	}
}
