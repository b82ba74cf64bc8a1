package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
)

// TokenRepository handles refresh token data access
type TokenRepository struct {
	db database.Database
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db database.Database) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a new refresh token hash
func (r *TokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	query := `
		CREATE refresh_token CONTENT {
			user_id: $user_id,
			token_hash: $token_hash,
			expires_on: <datetime>$expires_on,
			created_on: time::now()
		}
	`
	raw, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"user_id":    token.UserID,
		"token_hash": token.TokenHash,
		"expires_on": datetime(token.ExpiresOn),
	})
	if err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	created, err := decodeRecord[model.RefreshToken](raw)
	if err != nil {
		return err
	}
	token.ID = created.ID
	token.CreatedOn = created.CreatedOn
	return nil
}

// GetByHash retrieves a refresh token by its hash
func (r *TokenRepository) GetByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	return decodeOne[model.RefreshToken](r.db.QueryOne(ctx,
		`SELECT * FROM refresh_token WHERE token_hash = $hash LIMIT 1`,
		map[string]interface{}{"hash": hash}))
}

// MarkUsed consumes a token. It returns database.ErrConflict when the token
// was already used or revoked, so only one concurrent refresh wins.
func (r *TokenRepository) MarkUsed(ctx context.Context, id string) error {
	query := `UPDATE type::record($id) SET used_on = time::now()
		WHERE used_on = NONE AND revoked_on = NONE RETURN id`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return fmt.Errorf("consuming refresh token: %w", err)
	}
	if len(statementResult(results, 0)) == 0 {
		return database.ErrConflict
	}
	return nil
}

// RevokeAllForUser revokes every live refresh token of a user
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `UPDATE refresh_token SET revoked_on = time::now() WHERE user_id = $user_id AND revoked_on = NONE`
	return r.db.Execute(ctx, query, map[string]interface{}{"user_id": userID})
}

// DeleteExpired removes tokens that expired before cutoff
func (r *TokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) error {
	return r.db.Execute(ctx, `DELETE refresh_token WHERE expires_on < <datetime>$cutoff`,
		map[string]interface{}{"cutoff": datetime(cutoff)})
}
