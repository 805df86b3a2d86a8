package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stocklens/internal/models"
)

// StockFilter narrows stock transaction listings
type StockFilter struct {
	Search   string
	ItemID   int64
	DateFrom string // YYYY-MM-DD inclusive
	DateTo   string
	Page     int
	PerPage  int
}

func (f StockFilter) whereClause() (string, []interface{}) {
	where := []string{}
	args := []interface{}{}

	if f.Search != "" {
		where = append(where, "(t.transaction_code LIKE ? OR i.name LIKE ? OR i.code LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if f.ItemID > 0 {
		where = append(where, "t.item_id = ?")
		args = append(args, f.ItemID)
	}
	if f.DateFrom != "" {
		where = append(where, "t.date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		where = append(where, "t.date <= ?")
		args = append(args, f.DateTo)
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ── Stock in ────────────────────────────────────────────────────────────

// ListStockIn returns a page of goods-received transactions
func ListStockIn(f StockFilter) ([]models.StockIn, models.Pagination, error) {
	clause, args := f.whereClause()

	var total int
	err := DB.QueryRow(
		"SELECT COUNT(*) FROM stock_in t JOIN items i ON i.id = t.item_id"+clause,
		args...).Scan(&total)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count stock in: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	rows, err := DB.Query(`
		SELECT t.id, t.transaction_code, t.item_id, i.name, i.code,
		       t.supplier_id, COALESCE(u.name, ''), t.qty, t.price,
		       t.total_price, t.date, t.notes, t.created_by, t.created_at
		FROM stock_in t
		JOIN items i ON i.id = t.item_id
		LEFT JOIN users u ON u.id = t.supplier_id`+
		clause+" ORDER BY t.date DESC, t.id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list stock in: %w", err)
	}
	defer rows.Close()

	entries := []models.StockIn{}
	for rows.Next() {
		var e models.StockIn
		var supplierID sql.NullInt64
		var price, totalPrice string
		err := rows.Scan(&e.ID, &e.TransactionCode, &e.ItemID, &e.ItemName,
			&e.ItemCode, &supplierID, &e.SupplierName, &e.Qty, &price,
			&totalPrice, &e.Date, &e.Notes, &e.CreatedBy, &e.CreatedAt)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		if supplierID.Valid {
			e.SupplierID = &supplierID.Int64
		}
		e.Price, _ = decimal.NewFromString(price)
		e.TotalPrice, _ = decimal.NewFromString(totalPrice)
		entries = append(entries, e)
	}
	return entries, paginationFor(page, perPage, total), rows.Err()
}

// CreateStockIn records a goods-received transaction and increments
// the item's stock atomically
func CreateStockIn(e *models.StockIn) (int64, error) {
	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin stock in: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO stock_in
			(transaction_code, item_id, supplier_id, qty, price,
			 total_price, date, notes, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TransactionCode, e.ItemID, e.SupplierID, e.Qty,
		e.Price.String(), e.TotalPrice.String(), e.Date, e.Notes, e.CreatedBy)
	if err != nil {
		return 0, fmt.Errorf("create stock in: %w", err)
	}

	if err := AdjustStock(tx, e.ItemID, e.Qty); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit stock in: %w", err)
	}
	return res.LastInsertId()
}

// DeleteStockIn removes a goods-received transaction and reverses its
// stock effect. Fails if the stock has since been issued.
func DeleteStockIn(id int64) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("begin delete stock in: %w", err)
	}
	defer tx.Rollback()

	var itemID int64
	var qty int
	err = tx.QueryRow("SELECT item_id, qty FROM stock_in WHERE id = ?", id).
		Scan(&itemID, &qty)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("load stock in %d: %w", id, err)
	}

	if err := AdjustStock(tx, itemID, -qty); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM stock_in WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete stock in %d: %w", id, err)
	}
	return tx.Commit()
}

// ── Stock out ───────────────────────────────────────────────────────────

// ListStockOut returns a page of goods-issued transactions
func ListStockOut(f StockFilter) ([]models.StockOut, models.Pagination, error) {
	clause, args := f.whereClause()

	var total int
	err := DB.QueryRow(
		"SELECT COUNT(*) FROM stock_out t JOIN items i ON i.id = t.item_id"+clause,
		args...).Scan(&total)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count stock out: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	rows, err := DB.Query(`
		SELECT t.id, t.transaction_code, t.item_id, i.name, i.code,
		       t.qty, t.purpose, t.recipient, t.date, t.notes,
		       t.created_by, t.created_at
		FROM stock_out t
		JOIN items i ON i.id = t.item_id`+
		clause+" ORDER BY t.date DESC, t.id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list stock out: %w", err)
	}
	defer rows.Close()

	entries := []models.StockOut{}
	for rows.Next() {
		var e models.StockOut
		err := rows.Scan(&e.ID, &e.TransactionCode, &e.ItemID, &e.ItemName,
			&e.ItemCode, &e.Qty, &e.Purpose, &e.Recipient, &e.Date,
			&e.Notes, &e.CreatedBy, &e.CreatedAt)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		entries = append(entries, e)
	}
	return entries, paginationFor(page, perPage, total), rows.Err()
}

// CreateStockOut records a goods-issued transaction and decrements the
// item's stock atomically. Fails when availability is insufficient.
func CreateStockOut(e *models.StockOut) (int64, error) {
	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin stock out: %w", err)
	}
	defer tx.Rollback()

	if err := AdjustStock(tx, e.ItemID, -e.Qty); err != nil {
		return 0, err
	}

	res, err := tx.Exec(`
		INSERT INTO stock_out
			(transaction_code, item_id, qty, purpose, recipient,
			 date, notes, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TransactionCode, e.ItemID, e.Qty, e.Purpose, e.Recipient,
		e.Date, e.Notes, e.CreatedBy)
	if err != nil {
		return 0, fmt.Errorf("create stock out: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit stock out: %w", err)
	}
	return res.LastInsertId()
}

// DeleteStockOut removes a goods-issued transaction and returns its
// quantity to stock
func DeleteStockOut(id int64) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("begin delete stock out: %w", err)
	}
	defer tx.Rollback()

	var itemID int64
	var qty int
	err = tx.QueryRow("SELECT item_id, qty FROM stock_out WHERE id = ?", id).
		Scan(&itemID, &qty)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("load stock out %d: %w", id, err)
	}

	if err := AdjustStock(tx, itemID, qty); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM stock_out WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete stock out %d: %w", id, err)
	}
	return tx.Commit()
}

// ── Aggregates ──────────────────────────────────────────────────────────

// LastTransactionCode returns the highest transaction code with the
// given prefix from the named table, or "" when none exists
func LastTransactionCode(table, prefix string) (string, error) {
	if table != "stock_in" && table != "stock_out" {
		return "", fmt.Errorf("unknown transaction table %q", table)
	}
	var code string
	err := DB.QueryRow(
		"SELECT transaction_code FROM "+table+
			" WHERE transaction_code LIKE ? ORDER BY transaction_code DESC LIMIT 1",
		prefix+"%").Scan(&code)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return code, err
}

// DailyOutflow returns the total issued quantity per day for an item
// over the trailing window, oldest first. Days without movement are
// filled with zero so the series is evenly spaced.
func DailyOutflow(itemID int64, days int) ([]models.Movement, error) {
	if days < 1 {
		days = 1
	}
	since := time.Now().AddDate(0, 0, -(days - 1)).Format("2006-01-02")

	rows, err := DB.Query(`
		SELECT date, SUM(qty) FROM stock_out
		WHERE item_id = ? AND date >= ?
		GROUP BY date`, itemID, since)
	if err != nil {
		return nil, fmt.Errorf("daily outflow for item %d: %w", itemID, err)
	}
	defer rows.Close()

	byDate := map[string]int{}
	for rows.Next() {
		var date string
		var qty int
		if err := rows.Scan(&date, &qty); err != nil {
			return nil, err
		}
		byDate[date] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	movements := make([]models.Movement, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i).Format("2006-01-02")
		movements = append(movements, models.Movement{
			Date:     date,
			StockOut: byDate[date],
			Net:      -byDate[date],
		})
	}
	return movements, nil
}

// MonthlyTotals aggregates all stock movement per month over the
// trailing window, oldest first
func MonthlyTotals(months int) ([]models.MonthlyTotal, error) {
	if months < 1 {
		months = 1
	}
	since := time.Now().AddDate(0, -(months - 1), 0).Format("2006-01") + "-01"

	rows, err := DB.Query(`
		SELECT month, SUM(total_in), SUM(total_out) FROM (
			SELECT substr(date, 1, 7) AS month, SUM(qty) AS total_in, 0 AS total_out
			FROM stock_in WHERE date >= ? GROUP BY month
			UNION ALL
			SELECT substr(date, 1, 7) AS month, 0, SUM(qty)
			FROM stock_out WHERE date >= ? GROUP BY month
		) GROUP BY month ORDER BY month`, since, since)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	defer rows.Close()

	totals := []models.MonthlyTotal{}
	for rows.Next() {
		var t models.MonthlyTotal
		if err := rows.Scan(&t.Month, &t.TotalIn, &t.TotalOut); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
