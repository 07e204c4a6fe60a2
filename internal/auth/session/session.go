// Package session resolves the caller's live session from a bearer JWT.
// The wider product owns login and session policy; the export pipeline only
// needs the {identity, role} pair, or nil when there is no valid session.
package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is a caller's role as carried in the session token.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleDispatcher Role = "DISPATCHER"
	RoleAccountant Role = "ACCOUNTANT"
	RoleCustomer   Role = "CUSTOMER"
)

// Session is the resolved caller.
type Session struct {
	Identity string
	Role     Role
}

// Claims are the JWT claims the wider product mints at login.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service validates session tokens.
type Service struct {
	signingKey []byte
}

func New(signingKey string) *Service {
	return &Service{signingKey: []byte(signingKey)}
}

// Lookup resolves the session from the request's Authorization header.
// Returns nil when there is no session or the token is invalid; the caller
// decides whether that is an error.
func (s *Service) Lookup(r *http.Request) *Session {
	authHeader := r.Header.Get("Authorization")
	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || tokenString == "" {
		return nil
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil
	}

	return &Session{
		Identity: claims.UserID,
		Role:     Role(claims.Role),
	}
}

// Mint creates a signed session token. Exists for the wider product's login
// flow and for tests; the export pipeline itself never mints sessions.
func (s *Service) Mint(userID string, role Role, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}
