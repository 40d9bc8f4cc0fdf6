package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/NuncEstBibendum/agrolink-api/internal/config"
)

type AuthContextKey string

const UserIDContextKey AuthContextKey = "userID"

// TokenManager issues and verifies the HS256 access/refresh token pair.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     time.Duration(cfg.AccessExpMinutes) * time.Minute,
		refreshTTL:    time.Duration(cfg.RefreshExpHours) * time.Hour,
	}
}

// Generate returns a signed access token and refresh token for the user.
func (m *TokenManager) Generate(userID uuid.UUID) (string, string, error) {
	now := time.Now()
	accessClaims := jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     now.Add(m.accessTTL).Unix(),
		"iat":     now.Unix(),
	}
	refreshClaims := jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     now.Add(m.refreshTTL).Unix(),
		"iat":     now.Unix(),
	}

	accessString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(m.accessSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(m.refreshSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return accessString, refreshString, nil
}

// VerifyAccess parses an access token and returns the user id it carries.
func (m *TokenManager) VerifyAccess(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.accessSecret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token or claims")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid token claims: user_id not found or invalid type")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID in token claims: %w", err)
	}
	return userID, nil
}

// FromRequest extracts the caller identity from the Authorization header, or
// from a `token` query parameter for websocket upgrades where clients cannot
// always set headers.
func (m *TokenManager) FromRequest(r *http.Request) (uuid.UUID, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if q := r.URL.Query().Get("token"); q != "" {
			return m.VerifyAccess(q)
		}
		return uuid.Nil, fmt.Errorf("authorization header required")
	}
	bearerToken := strings.Split(authHeader, " ")
	if len(bearerToken) != 2 || strings.ToLower(bearerToken[0]) != "bearer" {
		return uuid.Nil, fmt.Errorf("invalid authorization header format")
	}
	return m.VerifyAccess(bearerToken[1])
}

// Require rejects the request with 401 unless a valid access token is
// presented, and stores the resolved user id in the request context.
func (m *TokenManager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.FromRequest(r)
		if err != nil {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), UserIDContextKey, userID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDContextKey)
	userIDStr, ok := val.(string)
	if !ok {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}
