package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platewise/dineflow/internal/domain/auth"
)

// ErrAPIKeyNotFound is returned when no active key matches the given hash.
var ErrAPIKeyNotFound = errors.New("api key not found")

// APIKeyRepository validates admin API keys by their HMAC hash.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

var _ auth.Repository = (*APIKeyRepository)(nil)

func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	const query = `
		SELECT id, key_hash, name, scopes
		FROM api_keys
		WHERE key_hash = $1 AND is_active`

	var info auth.APIKeyInfo
	err := r.pool.QueryRow(ctx, query, hash).Scan(&info.ID, &info.KeyHash, &info.Name, &info.Scopes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query api key")
	}
	return &info, nil
}
