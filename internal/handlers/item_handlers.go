package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"stocklens/internal/db"
	"stocklens/internal/models"
)

// ListItems returns a page of items.
// GET /api/items?search=&category_id=&low_stock=&inactive=&page=&per_page=
func ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	categoryID, _ := strconv.ParseInt(q.Get("category_id"), 10, 64)
	page, perPage := parsePagination(r)

	items, pagination, err := db.ListItems(db.ItemFilter{
		Search:     q.Get("search"),
		CategoryID: categoryID,
		LowStock:   q.Get("low_stock") == "true",
		Inactive:   q.Get("inactive") == "true",
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		log.Printf("❌ List items: %v", err)
		JSONError(w, "Failed to list items", http.StatusInternalServerError)
		return
	}
	ListResponse(w, "items", items, pagination)
}

// GetItem returns one item.
// GET /api/items/{id}
func GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	item, err := db.GetItem(id)
	if err != nil {
		log.Printf("❌ Get item: %v", err)
		JSONError(w, "Failed to get item", http.StatusInternalServerError)
		return
	}
	if item == nil {
		JSONError(w, "Item not found", http.StatusNotFound)
		return
	}
	JSONResponse(w, item)
}

// itemRequest is the create/update payload for an item
type itemRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Model       string `json:"model"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	CategoryID  *int64 `json:"category_id"`
	StockQty    int    `json:"stock_qty"`
	MinStock    int    `json:"min_stock"`
	MaxStock    int    `json:"max_stock"`
	Unit        string `json:"unit"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

func (req *itemRequest) toItem() (*models.Item, error) {
	if req.Code == "" || req.Name == "" {
		return nil, errors.New("code and name are required")
	}
	price := decimal.Zero
	if req.Price != "" {
		var err error
		if price, err = decimal.NewFromString(req.Price); err != nil {
			return nil, errors.New("price must be a decimal number")
		}
	}
	if price.IsNegative() {
		return nil, errors.New("price cannot be negative")
	}
	if req.MinStock < 0 || req.MaxStock < 0 {
		return nil, errors.New("stock levels cannot be negative")
	}
	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}
	return &models.Item{
		Code:        req.Code,
		Name:        req.Name,
		Model:       req.Model,
		Color:       req.Color,
		Size:        req.Size,
		CategoryID:  req.CategoryID,
		StockQty:    req.StockQty,
		MinStock:    req.MinStock,
		MaxStock:    req.MaxStock,
		Unit:        unit,
		Price:       price,
		Description: req.Description,
	}, nil
}

// CreateItem adds an item to the catalogue.
// POST /api/items
func CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	item, err := req.toItem()
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	taken, err := db.ItemCodeExists(item.Code, 0)
	if err != nil {
		log.Printf("❌ Check item code: %v", err)
		JSONError(w, "Failed to create item", http.StatusInternalServerError)
		return
	}
	if taken {
		JSONError(w, "Item code already exists", http.StatusConflict)
		return
	}

	id, err := db.CreateItem(item)
	if err != nil {
		log.Printf("❌ Create item: %v", err)
		JSONError(w, "Failed to create item", http.StatusInternalServerError)
		return
	}

	log.Printf("✓ Item created: %s (%s)", item.Name, item.Code)
	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, map[string]interface{}{"id": id, "code": item.Code})
}

// UpdateItem overwrites an item's editable fields. Stock quantity only
// moves through transactions, never here.
// PUT /api/items/{id}
func UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	item, err := req.toItem()
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	item.ID = id

	taken, err := db.ItemCodeExists(item.Code, id)
	if err != nil {
		log.Printf("❌ Check item code: %v", err)
		JSONError(w, "Failed to update item", http.StatusInternalServerError)
		return
	}
	if taken {
		JSONError(w, "Item code already exists", http.StatusConflict)
		return
	}

	if err := db.UpdateItem(item); err != nil {
		if err == sql.ErrNoRows {
			JSONError(w, "Item not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Update item: %v", err)
		JSONError(w, "Failed to update item", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "updated"})
}

// DeleteItem soft-deletes an item; its transaction history survives.
// DELETE /api/items/{id}
func DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	if err := db.DeleteItem(id); err != nil {
		if err == sql.ErrNoRows {
			JSONError(w, "Item not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Delete item: %v", err)
		JSONError(w, "Failed to delete item", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "deleted"})
}

// LowStock returns every active item at or below its minimum level.
// GET /api/items/low-stock
func LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := db.LowStockItems()
	if err != nil {
		log.Printf("❌ Low stock list: %v", err)
		JSONError(w, "Failed to list low stock items", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, items)
}

// RegisterItemRoutes wires the item endpoints. Mutations require the
// stricter wrapper.
func RegisterItemRoutes(mux *http.ServeMux, protect, manage func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/items", protect(ListItems))
	mux.HandleFunc("GET /api/items/low-stock", protect(LowStock))
	mux.HandleFunc("GET /api/items/{id}", protect(GetItem))
	mux.HandleFunc("POST /api/items", manage(CreateItem))
	mux.HandleFunc("PUT /api/items/{id}", manage(UpdateItem))
	mux.HandleFunc("DELETE /api/items/{id}", manage(DeleteItem))
}
