package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"stocklens/internal/db"
	"stocklens/internal/models"
)

// isSecureRequest checks if the request came over HTTPS (directly or via reverse proxy)
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	return strings.EqualFold(proto, "https")
}

// Status returns authentication status
func Status(config models.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromRequest(r)

		var username, role string
		if session != nil {
			username = session.Username
			role = session.Role
		}

		jsonResponse(w, map[string]interface{}{
			"auth_enabled":  config.AuthEnabled,
			"authenticated": session != nil,
			"username":      username,
			"role":          role,
		})
	}
}

// Login handles user authentication
func Login(config models.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !config.AuthEnabled {
			jsonResponse(w, map[string]interface{}{
				"success": true,
				"message": "Authentication disabled",
			})
			return
		}

		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}

		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			jsonError(w, "Invalid request", http.StatusBadRequest)
			return
		}

		user, err := db.GetUserByUsername(creds.Username)
		if err != nil || user == nil || !CheckPassword(user.PasswordHash, creds.Password) {
			jsonError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}

		token, expiresAt, err := CreateSession(user.ID)
		if err != nil {
			jsonError(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "session",
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			Secure:   isSecureRequest(r),
			SameSite: http.SameSiteLaxMode,
		})

		log.Printf("🔓 Login: %s (%s)", user.Username, user.Role)
		jsonResponse(w, map[string]interface{}{
			"success":  true,
			"token":    token,
			"username": user.Username,
			"role":     user.Role,
			"name":     user.Name,
		})
	}
}

// Logout handles user logout
func Logout(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromRequest(r)
	if session != nil {
		DeleteSession(session.Token)
		log.Printf("🔒 Logout: %s", session.Username)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})

	jsonResponse(w, map[string]string{"status": "logged_out"})
}

// Register creates a self-service account. Roles are restricted so
// nobody can sign themselves up as an administrator.
func Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" {
		jsonError(w, "Username and email are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		jsonError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}
	if req.Role != "owner" && req.Role != "supplier" {
		jsonError(w, "Role must be owner or supplier", http.StatusBadRequest)
		return
	}

	taken, err := db.UsernameExists(req.Username, req.Email, 0)
	if err != nil {
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}
	if taken {
		jsonError(w, "Username or email already taken", http.StatusConflict)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		jsonError(w, "Failed to hash password", http.StatusInternalServerError)
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
		jsonError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	log.Printf("👤 Registered: %s (%s)", req.Username, req.Role)
	w.WriteHeader(http.StatusCreated)
	jsonResponse(w, map[string]interface{}{"id": id, "username": req.Username})
}

// Profile returns the signed-in user's account details
func Profile(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r)
	if session == nil {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := db.GetUser(session.UserID)
	if err != nil || user == nil {
		jsonError(w, "User not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, user)
}

// UpdateProfile lets the signed-in user edit their own contact details
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r)
	if session == nil {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := db.GetUser(session.UserID)
	if err != nil || user == nil {
		jsonError(w, "User not found", http.StatusNotFound)
		return
	}

	var req struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.Email != "" {
		user.Email = strings.TrimSpace(req.Email)
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	user.Phone = req.Phone
	user.Address = req.Address

	if err := db.UpdateUser(user); err != nil {
		jsonError(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, user)
}

// ChangePassword handles password changes
func ChangePassword(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r)
	if session == nil {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if len(req.NewPassword) < 6 {
		jsonError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	user, err := db.GetUser(session.UserID)
	if err != nil || user == nil {
		jsonError(w, "User not found", http.StatusNotFound)
		return
	}
	if !CheckPassword(user.PasswordHash, req.CurrentPassword) {
		jsonError(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	newHash, err := HashPassword(req.NewPassword)
	if err != nil {
		jsonError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}
	if err := db.UpdatePassword(session.UserID, newHash); err != nil {
		jsonError(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	log.Printf("🔑 Password changed: %s", session.Username)
	jsonResponse(w, map[string]string{"status": "password_changed"})
}

// RegisterAuthRoutes wires the authentication endpoints
func RegisterAuthRoutes(mux *http.ServeMux, config models.Config, limit func(http.HandlerFunc) http.HandlerFunc) {
	protect := func(next http.HandlerFunc) http.HandlerFunc {
		return Middleware(config, next)
	}
	if limit == nil {
		limit = func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	mux.HandleFunc("GET /api/auth/status", Status(config))
	mux.HandleFunc("POST /api/auth/login", limit(Login(config)))
	mux.HandleFunc("POST /api/auth/logout", Logout)
	mux.HandleFunc("POST /api/auth/register", limit(Register))
	mux.HandleFunc("GET /api/auth/profile", protect(Profile))
	mux.HandleFunc("PUT /api/auth/profile", protect(UpdateProfile))
	mux.HandleFunc("POST /api/auth/change-password", protect(ChangePassword))
}

func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️  Failed to encode JSON response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
