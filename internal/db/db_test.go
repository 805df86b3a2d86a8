// internal/db/db_test.go
package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"stocklens/internal/models"
)

// setupTestDB points the package-level handle at an in-memory SQLite
// database with the full schema applied
func setupTestDB(t *testing.T) {
	t.Helper()

	handle, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { handle.Close() })

	DB = handle
	if err := createSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
}

func seedItem(t *testing.T, code string, stock, min, max int) int64 {
	t.Helper()
	id, err := CreateItem(&models.Item{
		Code:     code,
		Name:     "Item " + code,
		StockQty: 0,
		MinStock: min,
		MaxStock: max,
		Unit:     "pcs",
		Price:    decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("Failed to seed item: %v", err)
	}
	if stock != 0 {
		if _, err := DB.Exec("UPDATE items SET stock_qty = ? WHERE id = ?", stock, id); err != nil {
			t.Fatalf("Failed to set stock: %v", err)
		}
	}
	return id
}

func seedUser(t *testing.T, username, role string) int64 {
	t.Helper()
	id, err := CreateUser(&models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Name:         username,
	})
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return id
}

// ── Items ───────────────────────────────────────────────────────────────

func TestItemLifecycle(t *testing.T) {
	setupTestDB(t)

	id := seedItem(t, "SKU-001", 5, 2, 100)

	item, err := GetItem(id)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item == nil || item.Code != "SKU-001" || item.StockQty != 5 {
		t.Fatalf("unexpected item: %+v", item)
	}

	exists, err := ItemCodeExists("SKU-001", 0)
	if err != nil || !exists {
		t.Errorf("ItemCodeExists = %v, %v; want true, nil", exists, err)
	}
	exists, _ = ItemCodeExists("SKU-001", id)
	if exists {
		t.Error("ItemCodeExists should ignore the excluded ID")
	}

	if err := DeleteItem(id); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	item, _ = GetItem(id)
	if item == nil || item.IsActive {
		t.Error("soft delete should keep the row but mark it inactive")
	}

	items, _, err := ListItems(ItemFilter{})
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("default listing returned %d inactive items", len(items))
	}
}

func TestListItems_SearchAndPagination(t *testing.T) {
	setupTestDB(t)

	for _, code := range []string{"AAA-1", "AAA-2", "AAA-3", "BBB-1"} {
		seedItem(t, code, 10, 1, 100)
	}

	items, page, err := ListItems(ItemFilter{Search: "AAA", Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2", len(items))
	}
	if page.TotalItems != 3 || page.Total != 2 || page.Current != 1 {
		t.Errorf("pagination = %+v, want 3 items over 2 pages", page)
	}
}

func TestLowStockItems(t *testing.T) {
	setupTestDB(t)

	seedItem(t, "LOW-1", 2, 5, 100)
	seedItem(t, "OK-1", 50, 5, 100)

	items, err := LowStockItems()
	if err != nil {
		t.Fatalf("LowStockItems failed: %v", err)
	}
	if len(items) != 1 || items[0].Code != "LOW-1" {
		t.Errorf("unexpected low stock list: %+v", items)
	}
}

// ── Stock transactions ──────────────────────────────────────────────────

func TestStockFlow(t *testing.T) {
	setupTestDB(t)

	userID := seedUser(t, "admin", "admin")
	itemID := seedItem(t, "SKU-1", 0, 1, 100)
	today := time.Now().Format("2006-01-02")

	_, err := CreateStockIn(&models.StockIn{
		TransactionCode: "TXN-IN-20260830-001",
		ItemID:          itemID,
		Qty:             10,
		Price:           decimal.NewFromInt(5),
		TotalPrice:      decimal.NewFromInt(50),
		Date:            today,
		CreatedBy:       userID,
	})
	if err != nil {
		t.Fatalf("CreateStockIn failed: %v", err)
	}

	item, _ := GetItem(itemID)
	if item.StockQty != 10 {
		t.Errorf("stock after receipt = %d, want 10", item.StockQty)
	}

	outID, err := CreateStockOut(&models.StockOut{
		TransactionCode: "TXN-OUT-20260830-001",
		ItemID:          itemID,
		Qty:             4,
		Purpose:         "sale",
		Date:            today,
		CreatedBy:       userID,
	})
	if err != nil {
		t.Fatalf("CreateStockOut failed: %v", err)
	}

	item, _ = GetItem(itemID)
	if item.StockQty != 6 {
		t.Errorf("stock after issue = %d, want 6", item.StockQty)
	}

	// More than available must fail and leave stock untouched
	_, err = CreateStockOut(&models.StockOut{
		TransactionCode: "TXN-OUT-20260830-002",
		ItemID:          itemID,
		Qty:             100,
		Purpose:         "sale",
		Date:            today,
		CreatedBy:       userID,
	})
	if err == nil {
		t.Fatal("over-issue should fail")
	}
	item, _ = GetItem(itemID)
	if item.StockQty != 6 {
		t.Errorf("stock after failed issue = %d, want 6", item.StockQty)
	}

	// Deleting the issue returns its quantity
	if err := DeleteStockOut(outID); err != nil {
		t.Fatalf("DeleteStockOut failed: %v", err)
	}
	item, _ = GetItem(itemID)
	if item.StockQty != 10 {
		t.Errorf("stock after delete = %d, want 10", item.StockQty)
	}
}

func TestLastTransactionCode(t *testing.T) {
	setupTestDB(t)

	userID := seedUser(t, "admin", "admin")
	itemID := seedItem(t, "SKU-1", 0, 1, 100)
	today := time.Now().Format("2006-01-02")

	code, err := LastTransactionCode("stock_in", "TXN-IN-20260830-")
	if err != nil || code != "" {
		t.Fatalf("empty table: code = %q, err = %v; want empty, nil", code, err)
	}

	for _, c := range []string{"TXN-IN-20260830-001", "TXN-IN-20260830-002"} {
		_, err := CreateStockIn(&models.StockIn{
			TransactionCode: c, ItemID: itemID, Qty: 1,
			Price: decimal.Zero, TotalPrice: decimal.Zero,
			Date: today, CreatedBy: userID,
		})
		if err != nil {
			t.Fatalf("CreateStockIn failed: %v", err)
		}
	}

	code, err = LastTransactionCode("stock_in", "TXN-IN-20260830-")
	if err != nil {
		t.Fatalf("LastTransactionCode failed: %v", err)
	}
	if code != "TXN-IN-20260830-002" {
		t.Errorf("code = %q, want TXN-IN-20260830-002", code)
	}

	if _, err := LastTransactionCode("users", ""); err == nil {
		t.Error("arbitrary table name should be rejected")
	}
}

func TestDailyOutflow_FillsMissingDays(t *testing.T) {
	setupTestDB(t)

	userID := seedUser(t, "admin", "admin")
	itemID := seedItem(t, "SKU-1", 100, 1, 200)
	today := time.Now().Format("2006-01-02")

	_, err := CreateStockOut(&models.StockOut{
		TransactionCode: "TXN-OUT-1", ItemID: itemID, Qty: 3,
		Purpose: "sale", Date: today, CreatedBy: userID,
	})
	if err != nil {
		t.Fatalf("CreateStockOut failed: %v", err)
	}

	movements, err := DailyOutflow(itemID, 7)
	if err != nil {
		t.Fatalf("DailyOutflow failed: %v", err)
	}
	if len(movements) != 7 {
		t.Fatalf("got %d days, want 7", len(movements))
	}
	for _, m := range movements[:6] {
		if m.StockOut != 0 {
			t.Errorf("day %s = %d, want 0", m.Date, m.StockOut)
		}
	}
	if last := movements[6]; last.Date != today || last.StockOut != 3 {
		t.Errorf("today = %+v, want 3 units on %s", last, today)
	}
}

// ── Orders ──────────────────────────────────────────────────────────────

func seedOrder(t *testing.T, supplierID, itemID int64) int64 {
	t.Helper()
	now := time.Now()
	id, err := CreateOrder(&models.Order{
		OrderCode:    "ORD-" + now.Format("150405.000000000"),
		SupplierID:   supplierID,
		OrderDate:    now,
		AutoRejectAt: now.AddDate(0, 0, 7),
	}, []models.OrderItem{
		{ItemID: itemID, Qty: 5, Price: decimal.NewFromInt(20)},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	return id
}

func TestCreateOrder_ComputesTotals(t *testing.T) {
	setupTestDB(t)

	supplierID := seedUser(t, "sup", "supplier")
	itemID := seedItem(t, "SKU-1", 0, 1, 100)
	orderID := seedOrder(t, supplierID, itemID)

	order, lines, err := GetOrder(orderID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if order == nil {
		t.Fatal("order not found")
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("total = %s, want 100", order.TotalAmount)
	}
	if len(lines) != 1 || !lines[0].TotalPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected lines: %+v", lines)
	}
	if order.Status != models.OrderPending {
		t.Errorf("status = %q, want pending", order.Status)
	}
	if order.ItemCount != 1 {
		t.Errorf("item count = %d, want 1", order.ItemCount)
	}
}

func TestCreateOrder_RejectsEmptyLines(t *testing.T) {
	setupTestDB(t)

	supplierID := seedUser(t, "sup", "supplier")
	_, err := CreateOrder(&models.Order{
		OrderCode: "ORD-X", SupplierID: supplierID,
		OrderDate: time.Now(), AutoRejectAt: time.Now(),
	}, nil)
	if err == nil {
		t.Fatal("order without lines should fail")
	}
}

func TestUpdateOrderStatus_Transitions(t *testing.T) {
	setupTestDB(t)

	supplierID := seedUser(t, "sup", "supplier")
	itemID := seedItem(t, "SKU-1", 0, 1, 100)
	orderID := seedOrder(t, supplierID, itemID)

	// pending → shipped skips confirmation and must fail
	if err := UpdateOrderStatus(orderID, models.OrderShipped); err == nil {
		t.Error("pending → shipped should be rejected")
	}

	for _, status := range []string{models.OrderConfirmed, models.OrderShipped, models.OrderDelivered} {
		if err := UpdateOrderStatus(orderID, status); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	order, _, _ := GetOrder(orderID)
	if order.ConfirmedAt == nil || order.ShippedAt == nil {
		t.Error("confirmed_at and shipped_at should be stamped")
	}

	// delivered is terminal
	if err := UpdateOrderStatus(orderID, models.OrderRejected); err == nil {
		t.Error("delivered → rejected should be rejected")
	}
}

func TestDeleteOrder_OnlyPending(t *testing.T) {
	setupTestDB(t)

	supplierID := seedUser(t, "sup", "supplier")
	itemID := seedItem(t, "SKU-1", 0, 1, 100)
	orderID := seedOrder(t, supplierID, itemID)

	if err := UpdateOrderStatus(orderID, models.OrderConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if err := DeleteOrder(orderID); err == nil {
		t.Error("deleting a confirmed order should fail")
	}
}

func TestAutoRejectStale(t *testing.T) {
	setupTestDB(t)

	supplierID := seedUser(t, "sup", "supplier")
	itemID := seedItem(t, "SKU-1", 0, 1, 100)

	staleID := seedOrder(t, supplierID, itemID)
	DB.Exec("UPDATE orders SET auto_reject_at = ? WHERE id = ?",
		time.Now().AddDate(0, 0, -1).Format(timeFormat), staleID)
	freshID := seedOrder(t, supplierID, itemID)

	ids, err := AutoRejectStale(time.Now())
	if err != nil {
		t.Fatalf("AutoRejectStale failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != staleID {
		t.Errorf("rejected ids = %v, want [%d]", ids, staleID)
	}

	stale, _, _ := GetOrder(staleID)
	fresh, _, _ := GetOrder(freshID)
	if stale.Status != models.OrderRejected {
		t.Errorf("stale order status = %q, want rejected", stale.Status)
	}
	if fresh.Status != models.OrderPending {
		t.Errorf("fresh order status = %q, want pending", fresh.Status)
	}
}

// ── Users ───────────────────────────────────────────────────────────────

func TestUserLifecycle(t *testing.T) {
	setupTestDB(t)

	id := seedUser(t, "owner1", "owner")

	user, err := GetUserByUsername("owner1")
	if err != nil || user == nil {
		t.Fatalf("GetUserByUsername = %v, %v", user, err)
	}
	if user.ID != id || user.Role != "owner" {
		t.Errorf("unexpected user: %+v", user)
	}

	taken, _ := UsernameExists("owner1", "other@example.com", 0)
	if !taken {
		t.Error("UsernameExists should detect the existing username")
	}

	if err := DeleteUser(id); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	user, _ = GetUserByUsername("owner1")
	if user != nil {
		t.Error("inactive user should not resolve for login")
	}
}

func TestListSuppliers(t *testing.T) {
	setupTestDB(t)

	seedUser(t, "sup1", "supplier")
	seedUser(t, "sup2", "supplier")
	seedUser(t, "owner1", "owner")

	suppliers, err := ListSuppliers()
	if err != nil {
		t.Fatalf("ListSuppliers failed: %v", err)
	}
	if len(suppliers) != 2 {
		t.Errorf("got %d suppliers, want 2", len(suppliers))
	}
}

// ── Stats ───────────────────────────────────────────────────────────────

func TestGetDashboardStats(t *testing.T) {
	setupTestDB(t)

	seedUser(t, "sup", "supplier")
	seedItem(t, "LOW-1", 1, 5, 100)
	seedItem(t, "OK-1", 50, 5, 100)

	stats, err := GetDashboardStats()
	if err != nil {
		t.Fatalf("GetDashboardStats failed: %v", err)
	}
	if stats.TotalItems != 2 || stats.LowStockCount != 1 || stats.TotalSuppliers != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	// 51 units at price 10
	if !stats.StockValue.Equal(decimal.NewFromInt(510)) {
		t.Errorf("stock value = %s, want 510", stats.StockValue)
	}
}
