package db

import (
	"database/sql"
	"fmt"
	"strings"

	"stocklens/internal/models"
)

const userColumns = `
	id, username, email, role, name, phone, address,
	password_hash, is_active, created_at`

// UserFilter narrows user listings
type UserFilter struct {
	Role    string
	Search  string
	Page    int
	PerPage int
}

// ListUsers returns a page of active accounts
func ListUsers(f UserFilter) ([]models.User, models.Pagination, error) {
	where := []string{"is_active = 1"}
	args := []interface{}{}

	if f.Role != "" {
		where = append(where, "role = ?")
		args = append(args, f.Role)
	}
	if f.Search != "" {
		where = append(where, "(username LIKE ? OR name LIKE ? OR email LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := DB.QueryRow("SELECT COUNT(*) FROM users"+clause, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("count users: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	rows, err := DB.Query("SELECT "+userColumns+" FROM users"+
		clause+" ORDER BY name LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		users = append(users, user)
	}
	return users, paginationFor(page, perPage, total), rows.Err()
}

// GetUser returns one account by ID, or nil if missing
func GetUser(id int64) (*models.User, error) {
	user, err := scanUser(DB.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

// GetUserByUsername returns an active account for login checks
func GetUserByUsername(username string) (*models.User, error) {
	user, err := scanUser(DB.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE username = ? AND is_active = 1",
		username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}
	return &user, nil
}

// UsernameExists reports whether a username or email is already taken,
// optionally excluding one user ID
func UsernameExists(username, email string, excludeID int64) (bool, error) {
	return ExistsQuery(
		"SELECT 1 FROM users WHERE (username = ? OR email = ?) AND id != ?",
		username, email, excludeID)
}

// CreateUser inserts an account and returns its ID
func CreateUser(user *models.User) (int64, error) {
	res, err := DB.Exec(`
		INSERT INTO users (username, email, password_hash, role, name, phone, address)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.Role,
		user.Name, user.Phone, user.Address)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return res.LastInsertId()
}

// UpdateUser overwrites an account's profile fields
func UpdateUser(user *models.User) error {
	res, err := DB.Exec(`
		UPDATE users SET email = ?, role = ?, name = ?, phone = ?, address = ?
		WHERE id = ?`,
		user.Email, user.Role, user.Name, user.Phone, user.Address, user.ID)
	if err != nil {
		return fmt.Errorf("update user %d: %w", user.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword replaces an account's password hash
func UpdatePassword(id int64, hash string) error {
	_, err := DB.Exec("UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return fmt.Errorf("update password for user %d: %w", id, err)
	}
	return nil
}

// DeleteUser soft-deletes an account and drops its sessions
func DeleteUser(id int64) error {
	res, err := DB.Exec("UPDATE users SET is_active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	DB.Exec("DELETE FROM sessions WHERE user_id = ?", id)
	return nil
}

// ListSuppliers returns all active supplier accounts, for order forms
func ListSuppliers() ([]models.User, error) {
	rows, err := DB.Query("SELECT " + userColumns +
		" FROM users WHERE role = 'supplier' AND is_active = 1 ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var active int
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Name,
		&u.Phone, &u.Address, &u.PasswordHash, &active, &u.CreatedAt)
	if err != nil {
		return u, err
	}
	u.IsActive = active == 1
	return u, nil
}
