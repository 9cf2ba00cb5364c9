package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	RoleKey   contextKey = "role"
)

// Tokens are valid for seven days from issuance.
const TokenValidity = 7 * 24 * time.Hour

var jwtSecretKey []byte

// InitSigningKey loads the JWT signing key from the environment. The server
// refuses to start without it.
func InitSigningKey() error {
	key := os.Getenv("SECRET_KEY")
	if key == "" {
		return errors.New("SECRET_KEY environment variable is not set")
	}
	jwtSecretKey = []byte(key)
	return nil
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateJWT(userID uint, role string) (string, error) {
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenValidity)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecretKey)
}

func GetUserIDFromContext(r *http.Request) (uint, error) {
	userID, ok := r.Context().Value(UserIDKey).(uint)
	if !ok {
		return 0, errors.New("user ID not found in context")
	}
	return userID, nil
}

func GetRoleFromContext(r *http.Request) (string, error) {
	role, ok := r.Context().Value(RoleKey).(string)
	if !ok {
		return "", errors.New("role not found in context")
	}
	return role, nil
}

// AuthMiddleware verifies the bearer token and injects the caller's user ID
// and role into the request context.
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return jwtSecretKey, nil
		})

		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			http.Error(w, "Invalid user ID in token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, uint(userID))
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		next(w, r.WithContext(ctx))
	}
}

// RequireRoles authenticates first, then checks the caller's role against the
// allowed set. An unauthenticated caller never reaches the role check.
func RequireRoles(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		role, err := GetRoleFromContext(r)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				next(w, r)
				return
			}
		}
		http.Error(w, "Access denied", http.StatusForbidden)
	})
}
