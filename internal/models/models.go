package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds server configuration
type Config struct {
	Port        string
	DBPath      string
	AdminUser   string
	AdminPass   string
	AuthEnabled bool
}

// User represents an account that can sign in. Roles: admin, owner, supplier.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents an active user session
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Category groups items for filtering and reporting.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Item is one stocked product. Price is a decimal to keep money math
// exact; it is stored as text in SQLite.
type Item struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Model        string          `json:"model,omitempty"`
	Color        string          `json:"color,omitempty"`
	Size         string          `json:"size,omitempty"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	StockQty     int             `json:"stock_qty"`
	MinStock     int             `json:"min_stock"`
	MaxStock     int             `json:"max_stock"`
	Unit         string          `json:"unit"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description,omitempty"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// StockIn is a goods-received transaction. Inserting one increments
// the item's stock; deleting reverses it.
type StockIn struct {
	ID              int64           `json:"id"`
	TransactionCode string          `json:"transaction_code"`
	ItemID          int64           `json:"item_id"`
	ItemName        string          `json:"item_name,omitempty"`
	ItemCode        string          `json:"item_code,omitempty"`
	SupplierID      *int64          `json:"supplier_id,omitempty"`
	SupplierName    string          `json:"supplier_name,omitempty"`
	Qty             int             `json:"qty"`
	Price           decimal.Decimal `json:"price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Date            string          `json:"date"` // YYYY-MM-DD
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       int64           `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// StockOut is a goods-issued transaction.
type StockOut struct {
	ID              int64     `json:"id"`
	TransactionCode string    `json:"transaction_code"`
	ItemID          int64     `json:"item_id"`
	ItemName        string    `json:"item_name,omitempty"`
	ItemCode        string    `json:"item_code,omitempty"`
	Qty             int       `json:"qty"`
	Purpose         string    `json:"purpose"`
	Recipient       string    `json:"recipient,omitempty"`
	Date            string    `json:"date"` // YYYY-MM-DD
	Notes           string    `json:"notes,omitempty"`
	CreatedBy       int64     `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// Order statuses walk pending → confirmed → shipped → delivered, or
// jump to rejected (manually or via the auto-reject job).
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderRejected  = "rejected"
)

// Order is a purchase order sent to a supplier.
type Order struct {
	ID            int64           `json:"id"`
	OrderCode     string          `json:"order_code"`
	SupplierID    int64           `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	SupplierEmail string          `json:"supplier_email,omitempty"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Notes         string          `json:"notes,omitempty"`
	OrderDate     time.Time       `json:"order_date"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty"`
	ShippedAt     *time.Time      `json:"shipped_at,omitempty"`
	AutoRejectAt  time.Time       `json:"auto_reject_at"`
	ItemCount     int             `json:"item_count,omitempty"`
}

// OrderItem is one line of a purchase order.
type OrderItem struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	ItemID     int64           `json:"item_id"`
	ItemName   string          `json:"item_name,omitempty"`
	ItemCode   string          `json:"item_code,omitempty"`
	Qty        int             `json:"qty"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Notes      string          `json:"notes,omitempty"`
}

// Pagination is the envelope returned with every list endpoint.
type Pagination struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	TotalItems int `json:"totalItems"`
}

// Movement is one day of aggregated stock activity for an item,
// the raw material for demand forecasting.
type Movement struct {
	Date     string `json:"date"`
	StockIn  int    `json:"stock_in"`
	StockOut int    `json:"stock_out"`
	Net      int    `json:"net_movement"`
}

// MonthlyTotal is one month of aggregated stock activity across all items.
type MonthlyTotal struct {
	Month    string `json:"month"` // YYYY-MM
	TotalIn  int    `json:"total_in"`
	TotalOut int    `json:"total_out"`
}
