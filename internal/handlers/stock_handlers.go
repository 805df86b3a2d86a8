package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stocklens/internal/db"
	"stocklens/internal/events"
	"stocklens/internal/models"
	"stocklens/internal/txcode"
)

func stockFilterFromQuery(r *http.Request) db.StockFilter {
	q := r.URL.Query()
	itemID, _ := strconv.ParseInt(q.Get("item_id"), 10, 64)
	page, perPage := parsePagination(r)
	return db.StockFilter{
		Search:   q.Get("search"),
		ItemID:   itemID,
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
		Page:     page,
		PerPage:  perPage,
	}
}

// nextTransactionCode derives the next sequential code for today,
// falling back to a unique code when the sequence cannot be read
func nextTransactionCode(table string, kind txcode.Kind) string {
	now := time.Now()
	last, err := db.LastTransactionCode(table, txcode.Prefix(kind, now))
	if err != nil {
		log.Printf("⚠️  Transaction sequence lookup failed: %v", err)
		return txcode.Fallback(kind, now)
	}
	return txcode.Next(kind, now, last)
}

// ─── Stock in ────────────────────────────────────────────────────────────

// ListStockIn returns a page of goods-received transactions.
// GET /api/stock-in
func ListStockIn(w http.ResponseWriter, r *http.Request) {
	entries, pagination, err := db.ListStockIn(stockFilterFromQuery(r))
	if err != nil {
		log.Printf("❌ List stock in: %v", err)
		JSONError(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	ListResponse(w, "transactions", entries, pagination)
}

type stockInRequest struct {
	ItemID     int64  `json:"item_id"`
	SupplierID *int64 `json:"supplier_id"`
	Qty        int    `json:"qty"`
	Price      string `json:"price"`
	Date       string `json:"date"`
	Notes      string `json:"notes"`
}

// CreateStockIn records a goods-received transaction, increments the
// item's stock and announces replenishment when the item climbs back
// above its minimum.
// POST /api/stock-in
func CreateStockIn(w http.ResponseWriter, r *http.Request) {
	var req stockInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ItemID == 0 || req.Qty <= 0 {
		JSONError(w, "item_id and a positive qty are required", http.StatusBadRequest)
		return
	}

	price := decimal.Zero
	if req.Price != "" {
		var err error
		if price, err = decimal.NewFromString(req.Price); err != nil || price.IsNegative() {
			JSONError(w, "price must be a non-negative decimal", http.StatusBadRequest)
			return
		}
	}

	item, err := db.GetItem(req.ItemID)
	if err != nil {
		log.Printf("❌ Load item for stock in: %v", err)
		JSONError(w, "Failed to record transaction", http.StatusInternalServerError)
		return
	}
	if item == nil || !item.IsActive {
		JSONError(w, "Item not found", http.StatusNotFound)
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	entry := &models.StockIn{
		TransactionCode: nextTransactionCode("stock_in", txcode.StockIn),
		ItemID:          req.ItemID,
		SupplierID:      req.SupplierID,
		Qty:             req.Qty,
		Price:           price,
		TotalPrice:      price.Mul(decimal.NewFromInt(int64(req.Qty))),
		Date:            date,
		Notes:           req.Notes,
		CreatedBy:       currentUserID(r),
	}

	id, err := db.CreateStockIn(entry)
	if err != nil {
		log.Printf("❌ Create stock in: %v", err)
		JSONError(w, "Failed to record transaction", http.StatusInternalServerError)
		return
	}

	if item.StockQty <= item.MinStock && item.StockQty+req.Qty > item.MinStock {
		publish(events.Event{
			Type:     events.StockReplenished,
			Severity: events.SeverityInfo,
			ItemCode: item.Code,
			ItemName: item.Name,
			Message: fmt.Sprintf("%s replenished to %d %s",
				item.Name, item.StockQty+req.Qty, item.Unit),
		})
	}

	log.Printf("💾 Stock in: %s +%d (%s)", item.Code, req.Qty, entry.TransactionCode)
	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, map[string]interface{}{
		"id":               id,
		"transaction_code": entry.TransactionCode,
	})
}

// DeleteStockIn removes a goods-received transaction and reverses its
// stock effect.
// DELETE /api/stock-in/{id}
func DeleteStockIn(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	if err := db.DeleteStockIn(id); err != nil {
		if err == sql.ErrNoRows {
			JSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		if strings.Contains(err.Error(), "insufficient stock") {
			JSONError(w, "Stock already issued; cannot reverse this receipt", http.StatusConflict)
			return
		}
		log.Printf("❌ Delete stock in: %v", err)
		JSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "deleted"})
}

// ─── Stock out ───────────────────────────────────────────────────────────

// ListStockOut returns a page of goods-issued transactions.
// GET /api/stock-out
func ListStockOut(w http.ResponseWriter, r *http.Request) {
	entries, pagination, err := db.ListStockOut(stockFilterFromQuery(r))
	if err != nil {
		log.Printf("❌ List stock out: %v", err)
		JSONError(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	ListResponse(w, "transactions", entries, pagination)
}

type stockOutRequest struct {
	ItemID    int64  `json:"item_id"`
	Qty       int    `json:"qty"`
	Purpose   string `json:"purpose"`
	Recipient string `json:"recipient"`
	Date      string `json:"date"`
	Notes     string `json:"notes"`
}

// CreateStockOut records a goods-issued transaction, decrements the
// item's stock and raises low/depleted alerts when thresholds are
// crossed.
// POST /api/stock-out
func CreateStockOut(w http.ResponseWriter, r *http.Request) {
	var req stockOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ItemID == 0 || req.Qty <= 0 {
		JSONError(w, "item_id and a positive qty are required", http.StatusBadRequest)
		return
	}
	if req.Purpose == "" {
		JSONError(w, "purpose is required", http.StatusBadRequest)
		return
	}

	item, err := db.GetItem(req.ItemID)
	if err != nil {
		log.Printf("❌ Load item for stock out: %v", err)
		JSONError(w, "Failed to record transaction", http.StatusInternalServerError)
		return
	}
	if item == nil || !item.IsActive {
		JSONError(w, "Item not found", http.StatusNotFound)
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	entry := &models.StockOut{
		TransactionCode: nextTransactionCode("stock_out", txcode.StockOut),
		ItemID:          req.ItemID,
		Qty:             req.Qty,
		Purpose:         req.Purpose,
		Recipient:       req.Recipient,
		Date:            date,
		Notes:           req.Notes,
		CreatedBy:       currentUserID(r),
	}

	id, err := db.CreateStockOut(entry)
	if err != nil {
		if strings.Contains(err.Error(), "insufficient stock") {
			JSONError(w, err.Error(), http.StatusConflict)
			return
		}
		log.Printf("❌ Create stock out: %v", err)
		JSONError(w, "Failed to record transaction", http.StatusInternalServerError)
		return
	}

	remaining := item.StockQty - req.Qty
	switch {
	case remaining <= 0:
		publish(events.Event{
			Type:     events.StockDepleted,
			Severity: events.SeverityCritical,
			ItemCode: item.Code,
			ItemName: item.Name,
			Message:  fmt.Sprintf("%s is out of stock", item.Name),
		})
	case remaining <= item.MinStock:
		publish(events.Event{
			Type:     events.StockLow,
			Severity: events.SeverityWarning,
			ItemCode: item.Code,
			ItemName: item.Name,
			Message: fmt.Sprintf("%s is low on stock (%d %s left, minimum %d)",
				item.Name, remaining, item.Unit, item.MinStock),
		})
	}

	log.Printf("💾 Stock out: %s -%d (%s)", item.Code, req.Qty, entry.TransactionCode)
	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, map[string]interface{}{
		"id":               id,
		"transaction_code": entry.TransactionCode,
	})
}

// DeleteStockOut removes a goods-issued transaction and returns its
// quantity to stock.
// DELETE /api/stock-out/{id}
func DeleteStockOut(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	if err := db.DeleteStockOut(id); err != nil {
		if err == sql.ErrNoRows {
			JSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Delete stock out: %v", err)
		JSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "deleted"})
}

// RegisterStockRoutes wires the stock transaction endpoints
func RegisterStockRoutes(mux *http.ServeMux, protect, manage func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/stock-in", protect(ListStockIn))
	mux.HandleFunc("POST /api/stock-in", manage(CreateStockIn))
	mux.HandleFunc("DELETE /api/stock-in/{id}", manage(DeleteStockIn))

	mux.HandleFunc("GET /api/stock-out", protect(ListStockOut))
	mux.HandleFunc("POST /api/stock-out", manage(CreateStockOut))
	mux.HandleFunc("DELETE /api/stock-out/{id}", manage(DeleteStockOut))
}
