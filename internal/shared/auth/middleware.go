// Package auth guards the hub's internal APIs. The SAML frontend and the
// saml-soap-proxy authenticate with short-lived JWTs issued out of band;
// end users never call these APIs directly.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/identity-federation/hub/internal/shared/config"
)

type contextKey string

const (
	CallerContextKey contextKey = "caller"
)

// Caller identifies the internal service that presented the token
type Caller struct {
	Service string   `json:"sub"`
	Scopes  []string `json:"scopes"`
}

// Claims extends JWT claims with hub-specific data
type Claims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scopes"`
}

// Middleware authenticates the bearer token and stores the caller on the
// request context.
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := authenticate(r, cfg)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), CallerContextKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, cfg config.AuthConfig) (*Caller, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errors.New("missing authorization header")
	}
	scheme, tokenString, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return nil, errors.New("invalid authorization header format")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return &Caller{Service: claims.Subject, Scopes: claims.Scopes}, nil
}

// GetCaller extracts the calling service from request context
func GetCaller(ctx context.Context) *Caller {
	caller, ok := ctx.Value(CallerContextKey).(*Caller)
	if !ok {
		return nil
	}
	return caller
}

// RequireScopes creates middleware that requires specific scopes
func RequireScopes(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := GetCaller(r.Context())
			if caller == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			for _, required := range scopes {
				if !hasScope(caller.Scopes, required) {
					writeError(w, http.StatusForbidden, "insufficient scope")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HasScope checks if the caller holds a specific scope
func (c *Caller) HasScope(scope string) bool {
	return hasScope(c.Scopes, scope)
}

func hasScope(callerScopes []string, required string) bool {
	for _, scope := range callerScopes {
		if scope == required {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
