package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"stocklens/internal/db"
	"stocklens/internal/models"
)

// ListCategories returns all categories.
// GET /api/categories
func ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := db.ListCategories()
	if err != nil {
		log.Printf("❌ List categories: %v", err)
		JSONError(w, "Failed to list categories", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, categories)
}

// GetCategory returns one category.
// GET /api/categories/{id}
func GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid category ID", http.StatusBadRequest)
		return
	}

	category, err := db.GetCategory(id)
	if err != nil {
		log.Printf("❌ Get category: %v", err)
		JSONError(w, "Failed to get category", http.StatusInternalServerError)
		return
	}
	if category == nil {
		JSONError(w, "Category not found", http.StatusNotFound)
		return
	}
	JSONResponse(w, category)
}

// CreateCategory adds a category.
// POST /api/categories
func CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.Category
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		JSONError(w, "name is required", http.StatusBadRequest)
		return
	}

	id, err := db.CreateCategory(&req)
	if err != nil {
		log.Printf("❌ Create category: %v", err)
		JSONError(w, "Failed to create category", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, map[string]interface{}{"id": id, "name": req.Name})
}

// UpdateCategory renames a category.
// PUT /api/categories/{id}
func UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid category ID", http.StatusBadRequest)
		return
	}

	var req models.Category
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		JSONError(w, "name is required", http.StatusBadRequest)
		return
	}
	req.ID = id

	if err := db.UpdateCategory(&req); err != nil {
		if err == sql.ErrNoRows {
			JSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Update category: %v", err)
		JSONError(w, "Failed to update category", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "updated"})
}

// DeleteCategory removes a category unless items still reference it.
// DELETE /api/categories/{id}
func DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid category ID", http.StatusBadRequest)
		return
	}

	if err := db.DeleteCategory(id); err != nil {
		if err == sql.ErrNoRows {
			JSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		if strings.Contains(err.Error(), "still has active items") {
			JSONError(w, "Category still has active items", http.StatusConflict)
			return
		}
		log.Printf("❌ Delete category: %v", err)
		JSONError(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "deleted"})
}

// RegisterCategoryRoutes wires the category endpoints
func RegisterCategoryRoutes(mux *http.ServeMux, protect, manage func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/categories", protect(ListCategories))
	mux.HandleFunc("GET /api/categories/{id}", protect(GetCategory))
	mux.HandleFunc("POST /api/categories", manage(CreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", manage(UpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", manage(DeleteCategory))
}
