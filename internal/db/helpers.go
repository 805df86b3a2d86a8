package db

import "database/sql"

const timeFormat = "2006-01-02 15:04:05"

// ExistsQuery checks if a record exists
func ExistsQuery(query string, args ...interface{}) (bool, error) {
	var exists int
	err := DB.QueryRow(query, args...).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
