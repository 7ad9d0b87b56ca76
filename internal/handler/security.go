package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/platewise/dineflow/internal/domain/auth"
)

// APIKeyAuth authenticates admin requests via HMAC-SHA256 hashed API keys
// carried in the Authorization header ("Bearer <key>" or the raw key).
type APIKeyAuth struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewAPIKeyAuth creates an APIKeyAuth with the given repository and HMAC
// pepper. The pepper keeps a leaked key table from being reversible by
// plain SHA-256 lookup.
func NewAPIKeyAuth(apikeys auth.Repository, pepper []byte) *APIKeyAuth {
	return &APIKeyAuth{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Require wraps next, rejecting requests without a valid API key.
func (a *APIKeyAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := bearerToken(r)
		if key == "" {
			unauthorized(w)
			return
		}

		mac := hmac.New(sha256.New, a.pepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := a.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			unauthorized(w)
			return
		}

		// Constant-time comparison guards against timing side-channels even
		// though the lookup already succeeded.
		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			unauthorized(w)
			return
		}

		if !info.HasScope(auth.ScopeManageOffers) {
			forbidden(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return header
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"code":401,"message":"unauthorized"}`))
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"code":403,"message":"missing required scope"}`))
}
