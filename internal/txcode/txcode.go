// Package txcode generates the human-readable codes stamped on stock
// transactions and purchase orders.
package txcode

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind selects the code prefix
type Kind string

const (
	StockIn  Kind = "IN"
	StockOut Kind = "OUT"
)

// Next builds the next sequential code for a day, e.g.
// TXN-IN-20260830-003. lastCode is the highest existing code for the
// same prefix ("" when the day has no transactions yet); a malformed
// lastCode falls back to a unique non-sequential code rather than
// colliding.
func Next(kind Kind, date time.Time, lastCode string) string {
	prefix := Prefix(kind, date)

	seq := 1
	if lastCode != "" {
		tail := strings.TrimPrefix(lastCode, prefix)
		n, err := strconv.Atoi(tail)
		if err != nil || tail == lastCode {
			return Fallback(kind, date)
		}
		seq = n + 1
	}
	if seq > 999 {
		return Fallback(kind, date)
	}
	return fmt.Sprintf("%s%03d", prefix, seq)
}

// Prefix returns the shared code prefix for one kind and day,
// including the trailing dash
func Prefix(kind Kind, date time.Time) string {
	return fmt.Sprintf("TXN-%s-%s-", kind, date.Format("20060102"))
}

// Fallback produces a unique code when the sequence cannot be derived
func Fallback(kind Kind, date time.Time) string {
	return fmt.Sprintf("TXN-%s-%s-%s",
		kind, date.Format("20060102"), uuid.NewString()[:8])
}

// OrderCode returns a fresh purchase order code
func OrderCode() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
