package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prodavnica/storefront/internal/domain/user"
)

const getUserByKeyHashSQL = `SELECT u.id, u.email, u.name
	FROM api_keys k
	JOIN users u ON u.id = k.user_id
	WHERE k.key_hash = $1 AND k.active = TRUE`

// ErrKeyNotFound is returned when no active API key matches the hash.
var ErrKeyNotFound = errors.New("api key not found")

// APIKeyRepository resolves active API keys to their owning user.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindUserByKeyHash looks up the user owning an active API key by the key's
// HMAC-SHA256 hash.
func (r *APIKeyRepository) FindUserByKeyHash(ctx context.Context, hash string) (*user.User, error) {
	var u user.User
	err := r.pool.QueryRow(ctx, getUserByKeyHashSQL, hash).Scan(&u.ID, &u.Email, &u.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "find api key by hash")
	}
	return &u, nil
}
