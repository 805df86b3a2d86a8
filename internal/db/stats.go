package db

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats is the headline figures block on the dashboard
type DashboardStats struct {
	TotalItems      int             `json:"total_items"`
	TotalCategories int             `json:"total_categories"`
	TotalSuppliers  int             `json:"total_suppliers"`
	LowStockCount   int             `json:"low_stock_count"`
	PendingOrders   int             `json:"pending_orders"`
	TodayStockIn    int             `json:"today_stock_in"`
	TodayStockOut   int             `json:"today_stock_out"`
	StockValue      decimal.Decimal `json:"stock_value"`
}

// GetDashboardStats gathers the counters shown at the top of the
// dashboard in one round of queries
func GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{StockValue: decimal.Zero}
	today := time.Now().Format("2006-01-02")

	counters := []struct {
		dest  *int
		query string
		args  []interface{}
	}{
		{&stats.TotalItems, "SELECT COUNT(*) FROM items WHERE is_active = 1", nil},
		{&stats.TotalCategories, "SELECT COUNT(*) FROM categories", nil},
		{&stats.TotalSuppliers, "SELECT COUNT(*) FROM users WHERE role = 'supplier' AND is_active = 1", nil},
		{&stats.LowStockCount, "SELECT COUNT(*) FROM items WHERE is_active = 1 AND stock_qty <= min_stock", nil},
		{&stats.PendingOrders, "SELECT COUNT(*) FROM orders WHERE status = 'pending'", nil},
		{&stats.TodayStockIn, "SELECT COALESCE(SUM(qty), 0) FROM stock_in WHERE date = ?", []interface{}{today}},
		{&stats.TodayStockOut, "SELECT COALESCE(SUM(qty), 0) FROM stock_out WHERE date = ?", []interface{}{today}},
	}
	for _, c := range counters {
		if err := DB.QueryRow(c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("dashboard stats: %w", err)
		}
	}

	// Stock value needs exact money math, so the multiplication happens
	// in Go rather than in SQLite's float arithmetic
	rows, err := DB.Query("SELECT stock_qty, price FROM items WHERE is_active = 1")
	if err != nil {
		return nil, fmt.Errorf("dashboard stock value: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var qty int
		var price string
		if err := rows.Scan(&qty, &price); err != nil {
			return nil, err
		}
		p, _ := decimal.NewFromString(price)
		stats.StockValue = stats.StockValue.Add(p.Mul(decimal.NewFromInt(int64(qty))))
	}
	return stats, rows.Err()
}
