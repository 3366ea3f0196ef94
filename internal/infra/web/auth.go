package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"photoframe-saas/internal/domain"
)

// ===== Session/JWT primitives =====

type AuthManager struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthManager(secret string, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{secret: []byte(secret), ttl: ttl}
}

type SessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Mint issues a signed session token for a user id.
func (a *AuthManager) Mint(userID, email, role string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseFromRequest extracts and verifies the bearer token.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*SessionClaims, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return nil, errors.New("missing token")
	}
	tok := strings.TrimSpace(hdr[7:])

	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ===== Identity middleware =====

type identityKey struct{}

type Identity struct {
	UserID  string
	Email   string
	IsAdmin bool
}

func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// requireUser authenticates the caller and stores the identity in context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		id := Identity{
			UserID:  claims.Subject,
			Email:   claims.Email,
			IsAdmin: claims.Role == "admin",
		}
		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// isAdmin reports whether the caller may act on other users' resources:
// the token carries the admin role, the profile is flagged admin, or the
// email matches the configured admin identity.
func (s *Server) isAdmin(ctx context.Context, id Identity) bool {
	if id.IsAdmin {
		return true
	}
	if s.adminEmail != "" && strings.EqualFold(id.Email, s.adminEmail) {
		return true
	}
	u, err := s.users.FindByID(ctx, nil, id.UserID)
	return err == nil && u.IsAdmin
}

// requireAdmin gates a route on isAdmin.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.requireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !s.isAdmin(r.Context(), id) {
			writeError(w, http.StatusForbidden, domain.ErrForbidden.Error())
			return
		}
		next.ServeHTTP(w, r)
	}))
}
