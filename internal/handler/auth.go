package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/prodavnica/storefront/internal/domain/user"
)

// userKey is the context key for the authenticated user.
type userKey struct{}

// KeyResolver resolves an API key hash to its owning user.
type KeyResolver interface {
	FindUserByKeyHash(ctx context.Context, hash string) (*user.User, error)
}

// Authenticator resolves the current user from an HMAC-peppered API key.
// The core never reads ambient session state; handlers receive identity
// through the request context only.
type Authenticator struct {
	resolver KeyResolver
	pepper   []byte
}

// NewAuthenticator creates an Authenticator with the given resolver and
// HMAC pepper.
func NewAuthenticator(resolver KeyResolver, pepper []byte) *Authenticator {
	return &Authenticator{resolver: resolver, pepper: pepper}
}

// Middleware authenticates the request via the api_key header and stores the
// resolved user in the context. Missing or unknown keys get 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		mac := hmac.New(sha256.New, a.pepper)
		mac.Write([]byte(key))
		hash := hex.EncodeToString(mac.Sum(nil))

		u, err := a.resolver.FindUserByKeyHash(r.Context(), hash)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext extracts the authenticated user set by Middleware.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey{}).(*user.User)
	return u, ok
}
