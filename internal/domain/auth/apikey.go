// Package auth defines API key identities for the admin surface.
package auth

import "context"

// ScopeManageOffers allows authoring offers through the admin API.
const ScopeManageOffers = "manage_offers"

// APIKeyInfo is a validated admin API key and its granted scopes.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key grants the named scope.
func (k *APIKeyInfo) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Repository looks up active API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
