// internal/auth/auth_test.go
package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"stocklens/internal/db"
	"stocklens/internal/models"
)

func setupAuthTest(t *testing.T) models.Config {
	t.Helper()
	if err := db.Init(":memory:"); err != nil {
		t.Fatalf("Failed to init test database: %v", err)
	}
	t.Cleanup(func() { db.DB.Close() })
	return models.Config{AuthEnabled: true}
}

func createTestUser(t *testing.T, username, password, role string) int64 {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	id, err := db.CreateUser(&models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Name:         username,
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return id
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	a := GenerateToken()
	b := GenerateToken()
	if len(a) != 64 {
		t.Errorf("token length = %d, want 64", len(a))
	}
	if a == b {
		t.Error("consecutive tokens collide")
	}
}

func TestSessionLifecycle(t *testing.T) {
	setupAuthTest(t)
	userID := createTestUser(t, "alice", "password", "owner")

	token, _, err := CreateSession(userID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	session := GetSession(token)
	if session == nil {
		t.Fatal("fresh session not found")
	}
	if session.Username != "alice" || session.Role != "owner" {
		t.Errorf("unexpected session: %+v", session)
	}

	DeleteSession(token)
	if GetSession(token) != nil {
		t.Error("deleted session still resolves")
	}

	if GetSession("") != nil {
		t.Error("empty token should not resolve")
	}
}

func TestSession_InactiveUserRejected(t *testing.T) {
	setupAuthTest(t)
	userID := createTestUser(t, "bob", "password", "owner")
	token, _, _ := CreateSession(userID)

	if err := db.DeleteUser(userID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if GetSession(token) != nil {
		t.Error("session for deactivated user still resolves")
	}
}

func TestMiddleware_RejectsAnonymous(t *testing.T) {
	config := setupAuthTest(t)

	handler := Middleware(config, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/api/items", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddleware_AcceptsBearerToken(t *testing.T) {
	config := setupAuthTest(t)
	userID := createTestUser(t, "alice", "password", "admin")
	token, _, _ := CreateSession(userID)

	var seen *models.Session
	handler := Middleware(config, func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionFromContext(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/items", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.UserID != userID {
		t.Errorf("session not stored in context: %+v", seen)
	}
}

func TestMiddleware_AuthDisabledPassesThrough(t *testing.T) {
	setupAuthTest(t)
	config := models.Config{AuthEnabled: false}

	handler := Middleware(config, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/api/items", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	config := setupAuthTest(t)

	adminID := createTestUser(t, "admin1", "password", "admin")
	supplierID := createTestUser(t, "sup1", "password", "supplier")
	adminToken, _, _ := CreateSession(adminID)
	supplierToken, _, _ := CreateSession(supplierID)

	handler := RequireRole(config, "admin", "owner")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"admin allowed", adminToken, http.StatusOK},
		{"supplier forbidden", supplierToken, http.StatusForbidden},
		{"anonymous unauthorized", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/items", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
