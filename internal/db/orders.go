package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stocklens/internal/models"
)

// OrderFilter narrows order listings. SupplierID restricts suppliers
// to their own orders.
type OrderFilter struct {
	Status     string
	SupplierID int64
	Page       int
	PerPage    int
}

// ListOrders returns a page of purchase orders with supplier names and
// line counts resolved
func ListOrders(f OrderFilter) ([]models.Order, models.Pagination, error) {
	where := []string{}
	args := []interface{}{}

	if f.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, f.Status)
	}
	if f.SupplierID > 0 {
		where = append(where, "o.supplier_id = ?")
		args = append(args, f.SupplierID)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := DB.QueryRow("SELECT COUNT(*) FROM orders o"+clause, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count orders: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	rows, err := DB.Query(`
		SELECT o.id, o.order_code, o.supplier_id, COALESCE(u.name, ''),
		       COALESCE(u.email, ''), o.status, o.total_amount, o.notes,
		       o.order_date, o.confirmed_at, o.shipped_at, o.auto_reject_at,
		       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id)
		FROM orders o
		LEFT JOIN users u ON u.id = o.supplier_id`+
		clause+" ORDER BY o.order_date DESC, o.id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		orders = append(orders, order)
	}
	return orders, paginationFor(page, perPage, total), rows.Err()
}

// GetOrder returns one order with its line items, or nil if missing
func GetOrder(id int64) (*models.Order, []models.OrderItem, error) {
	row := DB.QueryRow(`
		SELECT o.id, o.order_code, o.supplier_id, COALESCE(u.name, ''),
		       COALESCE(u.email, ''), o.status, o.total_amount, o.notes,
		       o.order_date, o.confirmed_at, o.shipped_at, o.auto_reject_at,
		       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id)
		FROM orders o
		LEFT JOIN users u ON u.id = o.supplier_id
		WHERE o.id = ?`, id)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get order %d: %w", id, err)
	}

	items, err := orderItems(id)
	if err != nil {
		return nil, nil, err
	}
	return &order, items, nil
}

func orderItems(orderID int64) ([]models.OrderItem, error) {
	rows, err := DB.Query(`
		SELECT oi.id, oi.order_id, oi.item_id, i.name, i.code,
		       oi.qty, oi.price, oi.total_price, oi.notes
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = ? ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items for %d: %w", orderID, err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var oi models.OrderItem
		var price, totalPrice string
		err := rows.Scan(&oi.ID, &oi.OrderID, &oi.ItemID, &oi.ItemName,
			&oi.ItemCode, &oi.Qty, &price, &totalPrice, &oi.Notes)
		if err != nil {
			return nil, err
		}
		oi.Price, _ = decimal.NewFromString(price)
		oi.TotalPrice, _ = decimal.NewFromString(totalPrice)
		items = append(items, oi)
	}
	return items, rows.Err()
}

// CreateOrder inserts an order and its lines atomically. Line totals
// and the order total are computed here from quantity and unit price.
func CreateOrder(order *models.Order, lines []models.OrderItem) (int64, error) {
	if len(lines) == 0 {
		return 0, fmt.Errorf("order needs at least one item")
	}

	total := decimal.Zero
	for i := range lines {
		lines[i].TotalPrice = lines[i].Price.Mul(decimal.NewFromInt(int64(lines[i].Qty)))
		total = total.Add(lines[i].TotalPrice)
	}
	order.TotalAmount = total

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO orders
			(order_code, supplier_id, status, total_amount, notes,
			 order_date, auto_reject_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.OrderCode, order.SupplierID, models.OrderPending,
		order.TotalAmount.String(), order.Notes,
		order.OrderDate.Format(timeFormat),
		order.AutoRejectAt.Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("create order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, line := range lines {
		_, err := tx.Exec(`
			INSERT INTO order_items (order_id, item_id, qty, price, total_price, notes)
			VALUES (?, ?, ?, ?, ?, ?)`,
			orderID, line.ItemID, line.Qty,
			line.Price.String(), line.TotalPrice.String(), line.Notes)
		if err != nil {
			return 0, fmt.Errorf("create order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create order: %w", err)
	}
	return orderID, nil
}

// orderTransitions lists the legal status moves
var orderTransitions = map[string][]string{
	models.OrderPending:   {models.OrderConfirmed, models.OrderRejected},
	models.OrderConfirmed: {models.OrderShipped, models.OrderRejected},
	models.OrderShipped:   {models.OrderDelivered},
}

// UpdateOrderStatus advances an order through its lifecycle and stamps
// confirmed_at / shipped_at on the matching transitions
func UpdateOrderStatus(id int64, status string) error {
	var current string
	err := DB.QueryRow("SELECT status FROM orders WHERE id = ?", id).Scan(&current)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("load order %d: %w", id, err)
	}

	allowed := false
	for _, next := range orderTransitions[current] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("cannot move order from %s to %s", current, status)
	}

	query := "UPDATE orders SET status = ? WHERE id = ?"
	switch status {
	case models.OrderConfirmed:
		query = "UPDATE orders SET status = ?, confirmed_at = CURRENT_TIMESTAMP WHERE id = ?"
	case models.OrderShipped:
		query = "UPDATE orders SET status = ?, shipped_at = CURRENT_TIMESTAMP WHERE id = ?"
	}
	if _, err := DB.Exec(query, status, id); err != nil {
		return fmt.Errorf("update order %d status: %w", id, err)
	}
	return nil
}

// DeleteOrder removes a pending order and its lines
func DeleteOrder(id int64) error {
	res, err := DB.Exec(
		"DELETE FROM orders WHERE id = ? AND status = ?", id, models.OrderPending)
	if err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %d is not pending or does not exist", id)
	}
	return nil
}

// AutoRejectStale rejects pending orders whose deadline has passed and
// returns the affected order IDs
func AutoRejectStale(now time.Time) ([]int64, error) {
	cutoff := now.Format(timeFormat)

	rows, err := DB.Query(
		"SELECT id FROM orders WHERE status = ? AND auto_reject_at <= ?",
		models.OrderPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find stale orders: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = DB.Exec(
		"UPDATE orders SET status = ? WHERE status = ? AND auto_reject_at <= ?",
		models.OrderRejected, models.OrderPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("auto reject orders: %w", err)
	}
	return ids, nil
}

func scanOrder(row rowScanner) (models.Order, error) {
	var o models.Order
	var totalAmount string
	var confirmedAt, shippedAt sql.NullTime

	err := row.Scan(&o.ID, &o.OrderCode, &o.SupplierID, &o.SupplierName,
		&o.SupplierEmail, &o.Status, &totalAmount, &o.Notes,
		&o.OrderDate, &confirmedAt, &shippedAt, &o.AutoRejectAt, &o.ItemCount)
	if err != nil {
		return o, err
	}

	o.TotalAmount, _ = decimal.NewFromString(totalAmount)
	if confirmedAt.Valid {
		o.ConfirmedAt = &confirmedAt.Time
	}
	if shippedAt.Valid {
		o.ShippedAt = &shippedAt.Time
	}
	return o, nil
}
