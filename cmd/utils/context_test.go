package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func initTestKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-signing-key")
	if err := InitSigningKey(); err != nil {
		t.Fatalf("InitSigningKey: %v", err)
	}
}

func TestInitSigningKey_Missing(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	if err := InitSigningKey(); err == nil {
		t.Error("expected error when SECRET_KEY is unset")
	}
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	initTestKey(t)

	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	initTestKey(t)

	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	initTestKey(t)

	token, err := GenerateJWT(42, "doctor")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	var gotUserID uint
	var gotRole string
	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r)
		gotRole, _ = GetRoleFromContext(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUserID != 42 {
		t.Errorf("got user ID %d, want 42", gotUserID)
	}
	if gotRole != "doctor" {
		t.Errorf("got role %q, want %q", gotRole, "doctor")
	}
}

func TestRequireRoles_Allowed(t *testing.T) {
	initTestKey(t)

	token, err := GenerateJWT(7, "admin")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	handler := RequireRoles(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, "admin")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireRoles_WrongRole(t *testing.T) {
	initTestKey(t)

	token, err := GenerateJWT(7, "patient")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	handler := RequireRoles(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}, "admin")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequireRoles_UnauthenticatedNeverSeesRoleCheck(t *testing.T) {
	initTestKey(t)

	handler := RequireRoles(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}, "admin")

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/", nil))

	// Authentication fails before authorization is ever considered.
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
