// internal/handlers/middleware/auth.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ammerola/tindahan-be/internal/pkg/logger"
)

type authContextKey string

const (
	authKeyUserID  authContextKey = "auth_user_id"
	authKeyRole    authContextKey = "auth_role"
	authKeyStoreID authContextKey = "auth_store_id"
)

// Roles recognized in token claims
const (
	RoleOwner   = "owner"
	RoleCashier = "cashier"
)

// Claims carries the identity a POS client authenticates with. StoreID is
// empty for single-store deployments.
type Claims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	StoreID string `json:"store_id,omitempty"`
	jwt.RegisteredClaims
}

// Authenticate validates the Bearer token and stores the caller identity in
// the request context.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w, "Missing bearer token")
				return
			}

			tokenStr := strings.TrimPrefix(auth, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				unauthorized(w, "Invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				unauthorized(w, "Invalid user identity in token")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, authKeyUserID, userID)
			ctx = context.WithValue(ctx, authKeyRole, claims.Role)
			ctx = context.WithValue(ctx, logger.ContextKeyUserID, claims.UserID)

			if claims.StoreID != "" {
				if storeID, err := uuid.Parse(claims.StoreID); err == nil {
					ctx = context.WithValue(ctx, authKeyStoreID, storeID)
					ctx = context.WithValue(ctx, logger.ContextKeyStoreID, claims.StoreID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not in the allowed
// set. It must run after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := Role(r.Context())
			if _, ok := allowed[role]; !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"Insufficient role"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IssueToken signs a token for the given identity. Used by the seeder and by
// tests; a real identity provider would replace it.
func IssueToken(secret string, userID uuid.UUID, role string, storeID *uuid.UUID, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	if storeID != nil {
		claims.StoreID = storeID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// UserID returns the authenticated user, if any.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(authKeyUserID).(uuid.UUID)
	return id, ok
}

// Role returns the authenticated caller's role, or empty.
func Role(ctx context.Context) string {
	role, _ := ctx.Value(authKeyRole).(string)
	return role
}

// StoreID returns the store scope of the authenticated caller, or nil when
// the caller is not store-scoped.
func StoreID(ctx context.Context) *uuid.UUID {
	if id, ok := ctx.Value(authKeyStoreID).(uuid.UUID); ok {
		return &id
	}
	return nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
