package db

import (
	"database/sql"
	"fmt"

	"stocklens/internal/models"
)

// ListCategories returns all categories ordered by name
func ListCategories() ([]models.Category, error) {
	rows, err := DB.Query(`
		SELECT id, name, description, created_at
		FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory returns one category, or nil if it does not exist
func GetCategory(id int64) (*models.Category, error) {
	var c models.Category
	err := DB.QueryRow(`
		SELECT id, name, description, created_at
		FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return &c, nil
}

// CreateCategory inserts a category and returns its ID
func CreateCategory(c *models.Category) (int64, error) {
	res, err := DB.Exec(
		"INSERT INTO categories (name, description) VALUES (?, ?)",
		c.Name, c.Description)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	return res.LastInsertId()
}

// UpdateCategory overwrites a category's name and description
func UpdateCategory(c *models.Category) error {
	res, err := DB.Exec(
		"UPDATE categories SET name = ?, description = ? WHERE id = ?",
		c.Name, c.Description, c.ID)
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCategory removes a category unless items still reference it
func DeleteCategory(id int64) error {
	inUse, err := ExistsQuery(
		"SELECT 1 FROM items WHERE category_id = ? AND is_active = 1", id)
	if err != nil {
		return fmt.Errorf("check category usage: %w", err)
	}
	if inUse {
		return fmt.Errorf("category %d still has active items", id)
	}

	res, err := DB.Exec("DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
