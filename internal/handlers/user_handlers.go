package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"stocklens/internal/auth"
	"stocklens/internal/db"
	"stocklens/internal/models"
)

var validRoles = map[string]bool{
	"admin":    true,
	"owner":    true,
	"supplier": true,
}

// ListUsers returns a page of active accounts.
// GET /api/users?role=&search=&page=&per_page=
func ListUsers(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)
	users, pagination, err := db.ListUsers(db.UserFilter{
		Role:    r.URL.Query().Get("role"),
		Search:  r.URL.Query().Get("search"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		log.Printf("❌ List users: %v", err)
		JSONError(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	ListResponse(w, "users", users, pagination)
}

// GetUser returns one account.
// GET /api/users/{id}
func GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := db.GetUser(id)
	if err != nil {
		log.Printf("❌ Get user: %v", err)
		JSONError(w, "Failed to get user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		JSONError(w, "User not found", http.StatusNotFound)
		return
	}
	JSONResponse(w, user)
}

type userRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// CreateUser adds an account with any role. Unlike public
// registration, admins may create other admins.
// POST /api/users
func CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		JSONError(w, "username, email and password are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		JSONError(w, "password must be at least 6 characters", http.StatusBadRequest)
		return
	}
	if !validRoles[req.Role] {
		JSONError(w, "role must be admin, owner or supplier", http.StatusBadRequest)
		return
	}

	taken, err := db.UsernameExists(req.Username, req.Email, 0)
	if err != nil {
		log.Printf("❌ Check username: %v", err)
		JSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if taken {
		JSONError(w, "Username or email already taken", http.StatusConflict)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Hash password: %v", err)
		JSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	id, err := db.CreateUser(&models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Name:         req.Name,
		Phone:        req.Phone,
		Address:      req.Address,
	})
	if err != nil {
		log.Printf("❌ Create user: %v", err)
		JSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	log.Printf("👤 User created: %s (%s)", req.Username, req.Role)
	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, map[string]interface{}{"id": id, "username": req.Username})
}

// UpdateUser overwrites an account's profile fields. Passwords move
// through the dedicated endpoint only.
// PUT /api/users/{id}
func UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		JSONError(w, "email is required", http.StatusBadRequest)
		return
	}
	if !validRoles[req.Role] {
		JSONError(w, "role must be admin, owner or supplier", http.StatusBadRequest)
		return
	}

	existing, err := db.GetUser(id)
	if err != nil {
		log.Printf("❌ Load user: %v", err)
		JSONError(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		JSONError(w, "User not found", http.StatusNotFound)
		return
	}

	taken, err := db.UsernameExists(existing.Username, req.Email, id)
	if err != nil {
		log.Printf("❌ Check email: %v", err)
		JSONError(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	if taken {
		JSONError(w, "Email already taken", http.StatusConflict)
		return
	}

	existing.Email = req.Email
	existing.Role = req.Role
	existing.Name = req.Name
	existing.Phone = req.Phone
	existing.Address = req.Address

	if err := db.UpdateUser(existing); err != nil {
		if err == sql.ErrNoRows {
			JSONError(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Update user: %v", err)
		JSONError(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "updated"})
}

// DeleteUser soft-deletes an account and drops its sessions. Admins
// cannot delete themselves.
// DELETE /api/users/{id}
func DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		JSONError(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	if id == currentUserID(r) {
		JSONError(w, "You cannot delete your own account", http.StatusConflict)
		return
	}

	if err := db.DeleteUser(id); err != nil {
		if err == sql.ErrNoRows {
			JSONError(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Delete user: %v", err)
		JSONError(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, map[string]string{"status": "deleted"})
}

// ListSuppliers returns all active supplier accounts, for order forms.
// GET /api/suppliers
func ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := db.ListSuppliers()
	if err != nil {
		log.Printf("❌ List suppliers: %v", err)
		JSONError(w, "Failed to list suppliers", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, suppliers)
}

// RegisterUserRoutes wires the account management endpoints. The
// supplier list is shared; everything else is admin territory.
func RegisterUserRoutes(mux *http.ServeMux, protect, adminOnly func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/suppliers", protect(ListSuppliers))

	mux.HandleFunc("GET /api/users", adminOnly(ListUsers))
	mux.HandleFunc("GET /api/users/{id}", adminOnly(GetUser))
	mux.HandleFunc("POST /api/users", adminOnly(CreateUser))
	mux.HandleFunc("PUT /api/users/{id}", adminOnly(UpdateUser))
	mux.HandleFunc("DELETE /api/users/{id}", adminOnly(DeleteUser))
}
