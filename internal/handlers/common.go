package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"stocklens/internal/auth"
	"stocklens/internal/events"
	"stocklens/internal/models"
)

// Bus is set from main.go so handlers can announce stock and order
// changes. Publishing stays optional; a nil bus is skipped.
var Bus *events.Bus

func publish(e events.Event) {
	if Bus != nil {
		Bus.Publish(e)
	}
}

// JSONResponse sends a JSON response
func JSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️  Failed to encode JSON response: %v", err)
	}
}

// JSONError sends a JSON error response
func JSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ListResponse wraps list payloads with their pagination envelope
func ListResponse(w http.ResponseWriter, key string, data interface{}, p models.Pagination) {
	JSONResponse(w, map[string]interface{}{
		key:          data,
		"pagination": p,
	})
}

// parseID extracts a path parameter as an int64
func parseID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// parsePagination reads page/per_page query parameters. Out-of-range
// values are normalized by the storage layer.
func parsePagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return page, perPage
}

// currentUserID returns the requesting user's ID, or 0 when auth is
// disabled and no session is attached
func currentUserID(r *http.Request) int64 {
	if session := auth.GetSessionFromContext(r); session != nil {
		return session.UserID
	}
	return 0
}

// isSupplier reports whether the request comes from a supplier account
func isSupplier(r *http.Request) bool {
	session := auth.GetSessionFromContext(r)
	return session != nil && session.Role == "supplier"
}
