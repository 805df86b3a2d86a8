package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stocklens/internal/auth"
	"stocklens/internal/db"
	"stocklens/internal/events"
	"stocklens/internal/models"
	"stocklens/internal/settings"
	"stocklens/internal/txcode"
)

// statusEvents maps an order status to the event announced when the
// order reaches it
var statusEvents = map[string]struct {
	eventType events.EventType
	severity  events.Severity
}{
	models.OrderConfirmed: {events.OrderConfirmed, events.SeverityInfo},
	models.OrderShipped:   {events.OrderShipped, events.SeverityInfo},
	models.OrderDelivered: {events.OrderDelivered, events.SeverityInfo},
	models.OrderRejected:  {events.OrderRejected, events.SeverityWarning},
}

// supplierTransitions lists the statuses a supplier may set on their
// own orders. Delivery is confirmed by the store side.
var supplierTransitions = map[string]bool{
	models.OrderConfirmed: true,
	models.OrderShipped:   true,
	models.OrderRejected:  true,
}

// ListOrders returns a page of purchase orders. Suppliers only see
// their own.
// GET /api/orders?status=&page=&per_page=
func ListOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)
	filter := db.OrderFilter{
		Status:  r.URL.Query().Get("status"),
		Page:    page,
		PerPage: perPage,
	}
	if isSupplier(r) {
		filter.SupplierID = currentUserID(r)
	}

	orders, pagination, err := db.ListOrders(filter)
	if err != nil {
		log.Printf("❌ List orders: %v", err)
		JSONError(w, "Failed to list orders", http.StatusInternalServerError)
		return
	}
	ListResponse(w, "orders", orders, pagination)
}

// GetOrder returns one order with its lines. Suppliers may only view
// their own.
// GET /api/orders/{id}
func GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	order, lines, err := db.GetOrder(id)
	if err != nil {
		log.Printf("❌ Get order: %v", err)
		JSONError(w, "Failed to get order", http.StatusInternalServerError)
		return
	}
	if order == nil {
		JSONError(w, "Order not found", http.StatusNotFound)
		return
	}
	if isSupplier(r) && order.SupplierID != currentUserID(r) {
		JSONError(w, "Forbidden", http.StatusForbidden)
		return
	}

	JSONResponse(w, map[string]interface{}{
		"order": order,
		"items": lines,
	})
}

type orderLineRequest struct {
	ItemID int64  `json:"item_id"`
	Qty    int    `json:"qty"`
	Price  string `json:"price"`
	Notes  string `json:"notes"`
}

type orderRequest struct {
	SupplierID int64              `json:"supplier_id"`
	Notes      string             `json:"notes"`
	Items      []orderLineRequest `json:"items"`
}

// CreateOrder places a purchase order with a supplier. Line prices
// default to the item's catalogue price; the auto-reject deadline
// comes from settings.
// POST /api/orders
func CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.SupplierID == 0 {
		JSONError(w, "supplier_id is required", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		JSONError(w, "order needs at least one item", http.StatusBadRequest)
		return
	}

	supplier, err := db.GetUser(req.SupplierID)
	if err != nil {
		log.Printf("❌ Load supplier: %v", err)
		JSONError(w, "Failed to create order", http.StatusInternalServerError)
		return
	}
	if supplier == nil || supplier.Role != "supplier" || !supplier.IsActive {
		JSONError(w, "Supplier not found", http.StatusBadRequest)
		return
	}

	lines := make([]models.OrderItem, 0, len(req.Items))
	for _, l := range req.Items {
		if l.ItemID == 0 || l.Qty <= 0 {
			JSONError(w, "each line needs item_id and a positive qty", http.StatusBadRequest)
			return
		}
		item, err := db.GetItem(l.ItemID)
		if err != nil {
			log.Printf("❌ Load item for order: %v", err)
			JSONError(w, "Failed to create order", http.StatusInternalServerError)
			return
		}
		if item == nil || !item.IsActive {
			JSONError(w, fmt.Sprintf("item %d not found", l.ItemID), http.StatusBadRequest)
			return
		}

		price := item.Price
		if l.Price != "" {
			if price, err = decimal.NewFromString(l.Price); err != nil || price.IsNegative() {
				JSONError(w, "line price must be a non-negative decimal", http.StatusBadRequest)
				return
			}
		}
		lines = append(lines, models.OrderItem{
			ItemID: l.ItemID,
			Qty:    l.Qty,
			Price:  price,
			Notes:  l.Notes,
		})
	}

	rejectDays := settings.GetIntSettingWithDefault(db.DB, "orders", "auto_reject_days", 7)
	now := time.Now().UTC()
	order := &models.Order{
		OrderCode:    txcode.OrderCode(),
		SupplierID:   req.SupplierID,
		Notes:        req.Notes,
		OrderDate:    now,
		AutoRejectAt: now.AddDate(0, 0, rejectDays),
	}

	id, err := db.CreateOrder(order, lines)
	if err != nil {
		log.Printf("❌ Create order: %v", err)
		JSONError(w, "Failed to create order", http.StatusInternalServerError)
		return
	}

	publish(events.Event{
		Type:      events.OrderCreated,
		Severity:  events.SeverityInfo,
		OrderCode: order.OrderCode,
		Message: fmt.Sprintf("Order %s placed with %s (%s)",
			order.OrderCode, supplier.Name, order.TotalAmount.StringFixed(2)),
	})

	log.Printf("✓ Order created: %s for supplier %s", order.OrderCode, supplier.Username)
	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, map[string]interface{}{
		"id":           id,
		"order_code":   order.OrderCode,
		"total_amount": order.TotalAmount,
	})
}

// UpdateOrderStatus advances an order through its lifecycle. Suppliers
// may confirm, ship or reject their own orders; store staff handle the
// rest.
// PUT /api/orders/{id}/status
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		JSONError(w, "status is required", http.StatusBadRequest)
		return
	}

	order, _, err := db.GetOrder(id)
	if err != nil {
		log.Printf("❌ Load order for status change: %v", err)
		JSONError(w, "Failed to update order", http.StatusInternalServerError)
		return
	}
	if order == nil {
		JSONError(w, "Order not found", http.StatusNotFound)
		return
	}

	if session := auth.GetSessionFromContext(r); session != nil && session.Role == "supplier" {
		if order.SupplierID != session.UserID {
			JSONError(w, "Forbidden", http.StatusForbidden)
			return
		}
		if !supplierTransitions[req.Status] {
			JSONError(w, "Suppliers cannot set this status", http.StatusForbidden)
			return
		}
	}

	if err := db.UpdateOrderStatus(id, req.Status); err != nil {
		if strings.Contains(err.Error(), "cannot move order") {
			JSONError(w, err.Error(), http.StatusConflict)
			return
		}
		log.Printf("❌ Update order status: %v", err)
		JSONError(w, "Failed to update order", http.StatusInternalServerError)
		return
	}

	if ev, ok := statusEvents[req.Status]; ok {
		publish(events.Event{
			Type:      ev.eventType,
			Severity:  ev.severity,
			OrderCode: order.OrderCode,
			Message:   fmt.Sprintf("Order %s %s", order.OrderCode, req.Status),
		})
	}

	log.Printf("✓ Order %s → %s", order.OrderCode, req.Status)
	JSONResponse(w, map[string]string{"status": req.Status})
}

// DeleteOrder removes a pending order.
// DELETE /api/orders/{id}
func DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	if err := db.DeleteOrder(id); err != nil {
		if strings.Contains(err.Error(), "not pending") {
			JSONError(w, "Only pending orders can be deleted", http.StatusConflict)
			return
		}
		log.Printf("❌ Delete order: %v", err)
		JSONError(w, "Failed to delete order", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "deleted"})
}

// RegisterOrderRoutes wires the purchase order endpoints. Suppliers
// share the read and status routes; creation and deletion stay with
// store staff.
func RegisterOrderRoutes(mux *http.ServeMux, protect, manage func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/orders", protect(ListOrders))
	mux.HandleFunc("GET /api/orders/{id}", protect(GetOrder))
	mux.HandleFunc("POST /api/orders", manage(CreateOrder))
	mux.HandleFunc("PUT /api/orders/{id}/status", protect(UpdateOrderStatus))
	mux.HandleFunc("DELETE /api/orders/{id}", manage(DeleteOrder))
}
