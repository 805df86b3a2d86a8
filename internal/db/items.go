package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stocklens/internal/models"
)

const itemColumns = `
	i.id, i.code, i.name, i.model, i.color, i.size, i.category_id,
	COALESCE(c.name, ''), i.stock_qty, i.min_stock, i.max_stock,
	i.unit, i.price, i.description, i.is_active, i.created_at`

// ItemFilter narrows item listings
type ItemFilter struct {
	Search     string
	CategoryID int64
	LowStock   bool
	Inactive   bool
	Page       int
	PerPage    int
}

// ListItems returns a page of items with their category names resolved
func ListItems(f ItemFilter) ([]models.Item, models.Pagination, error) {
	where := []string{}
	args := []interface{}{}

	if !f.Inactive {
		where = append(where, "i.is_active = 1")
	}
	if f.Search != "" {
		where = append(where, "(i.name LIKE ? OR i.code LIKE ? OR i.model LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if f.CategoryID > 0 {
		where = append(where, "i.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.LowStock {
		where = append(where, "i.stock_qty <= i.min_stock")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM items i" + clause
	if err := DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count items: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage)
	query := "SELECT " + itemColumns + `
		FROM items i
		LEFT JOIN categories c ON c.id = i.category_id` +
		clause + " ORDER BY i.name LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		items = append(items, item)
	}
	return items, paginationFor(page, perPage, total), rows.Err()
}

// GetItem returns one item by ID, active or not
func GetItem(id int64) (*models.Item, error) {
	row := DB.QueryRow("SELECT "+itemColumns+`
		FROM items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.id = ?`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return &item, nil
}

// ItemCodeExists reports whether an item code is already taken,
// optionally excluding one item ID (for updates)
func ItemCodeExists(code string, excludeID int64) (bool, error) {
	return ExistsQuery(
		"SELECT 1 FROM items WHERE code = ? AND id != ?", code, excludeID)
}

// CreateItem inserts a new item and returns its ID
func CreateItem(item *models.Item) (int64, error) {
	res, err := DB.Exec(`
		INSERT INTO items
			(code, name, model, color, size, category_id,
			 stock_qty, min_stock, max_stock, unit, price, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Code, item.Name, item.Model, item.Color, item.Size, item.CategoryID,
		item.StockQty, item.MinStock, item.MaxStock, item.Unit,
		item.Price.String(), item.Description)
	if err != nil {
		return 0, fmt.Errorf("create item: %w", err)
	}
	return res.LastInsertId()
}

// UpdateItem overwrites an item's editable fields. Stock quantity is
// not touched here; it only moves through transactions.
func UpdateItem(item *models.Item) error {
	res, err := DB.Exec(`
		UPDATE items SET
			code = ?, name = ?, model = ?, color = ?, size = ?, category_id = ?,
			min_stock = ?, max_stock = ?, unit = ?, price = ?, description = ?
		WHERE id = ?`,
		item.Code, item.Name, item.Model, item.Color, item.Size, item.CategoryID,
		item.MinStock, item.MaxStock, item.Unit,
		item.Price.String(), item.Description, item.ID)
	if err != nil {
		return fmt.Errorf("update item %d: %w", item.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteItem soft-deletes an item so its transaction history survives
func DeleteItem(id int64) error {
	res, err := DB.Exec("UPDATE items SET is_active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AdjustStock moves an item's stock by delta inside tx. Negative
// deltas fail if they would take the quantity below zero.
func AdjustStock(tx *sql.Tx, itemID int64, delta int) error {
	if delta < 0 {
		var qty int
		err := tx.QueryRow("SELECT stock_qty FROM items WHERE id = ?", itemID).Scan(&qty)
		if err != nil {
			return fmt.Errorf("check stock for item %d: %w", itemID, err)
		}
		if qty+delta < 0 {
			return fmt.Errorf("insufficient stock: have %d, need %d", qty, -delta)
		}
	}
	_, err := tx.Exec("UPDATE items SET stock_qty = stock_qty + ? WHERE id = ?", delta, itemID)
	if err != nil {
		return fmt.Errorf("adjust stock for item %d: %w", itemID, err)
	}
	return nil
}

// LowStockItems returns active items at or below their minimum level
func LowStockItems() ([]models.Item, error) {
	rows, err := DB.Query("SELECT " + itemColumns + `
		FROM items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.is_active = 1 AND i.stock_qty <= i.min_stock
		ORDER BY i.stock_qty ASC`)
	if err != nil {
		return nil, fmt.Errorf("list low stock items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (models.Item, error) {
	var item models.Item
	var categoryID sql.NullInt64
	var price string
	var active int

	err := row.Scan(&item.ID, &item.Code, &item.Name, &item.Model, &item.Color,
		&item.Size, &categoryID, &item.CategoryName, &item.StockQty,
		&item.MinStock, &item.MaxStock, &item.Unit, &price,
		&item.Description, &active, &item.CreatedAt)
	if err != nil {
		return item, err
	}

	if categoryID.Valid {
		item.CategoryID = &categoryID.Int64
	}
	item.Price, _ = decimal.NewFromString(price)
	item.IsActive = active == 1
	return item, nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}
	return page, perPage
}

func paginationFor(page, perPage, total int) models.Pagination {
	pages := total / perPage
	if total%perPage != 0 {
		pages++
	}
	return models.Pagination{Current: page, Total: pages, TotalItems: total}
}
