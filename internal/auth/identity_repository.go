// AngelaMos | 2026
// identity_repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/storefront/internal/core"
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetByProviderSubject(ctx context.Context, provider, subject string) (*Identity, error)
	LinkProvider(ctx context.Context, id, provider, subject string) error
	ConfirmEmail(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type identityRepository struct {
	db core.DBTX
}

func NewIdentityRepository(db core.DBTX) IdentityRepository {
	return &identityRepository{db: db}
}

const identityColumns = `
	id, email, password_hash, provider, provider_subject, full_name,
	avatar_url, email_confirmed_at, token_version, created_at, updated_at`

func (r *identityRepository) Create(ctx context.Context, identity *Identity) error {
	identity.Email = strings.ToLower(identity.Email)

	query := `
		INSERT INTO identities (
			id, email, password_hash, provider, provider_subject,
			full_name, avatar_url, email_confirmed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING token_version, created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		identity.Provider,
		identity.ProviderSubject,
		identity.FullName,
		identity.AvatarURL,
		identity.EmailConfirmedAt,
	)
	err := row.Scan(&identity.TokenVersion, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create identity: %w", core.ClassifyPgError(err))
	}

	return nil
}

func (r *identityRepository) get(
	ctx context.Context,
	where string,
	args ...any,
) (*Identity, error) {
	query := `SELECT` + identityColumns + `
		FROM identities
		WHERE ` + where

	var identity Identity
	err := r.db.GetContext(ctx, &identity, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get identity: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}

	return &identity, nil
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*Identity, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.get(ctx, "email = $1", strings.ToLower(email))
}

func (r *identityRepository) GetByProviderSubject(
	ctx context.Context,
	provider, subject string,
) (*Identity, error) {
	return r.get(ctx, "provider = $1 AND provider_subject = $2", provider, subject)
}

// LinkProvider attaches a federated subject to an existing email identity.
// A federated provider vouches for the email, so it also counts as confirmed.
func (r *identityRepository) LinkProvider(
	ctx context.Context,
	id, provider, subject string,
) error {
	query := `
		UPDATE identities
		SET provider = $2,
			provider_subject = $3,
			email_confirmed_at = COALESCE(email_confirmed_at, NOW()),
			updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "link provider", query, id, provider, subject)
}

func (r *identityRepository) ConfirmEmail(ctx context.Context, id string) error {
	query := `
		UPDATE identities
		SET email_confirmed_at = COALESCE(email_confirmed_at, NOW()),
			updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "confirm email", query, id)
}

func (r *identityRepository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE identities
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *identityRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	query := `
		UPDATE identities
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "increment token version", query, id)
}

func (r *identityRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete identity", `DELETE FROM identities WHERE id = $1`, id)
}

func (r *identityRepository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, core.ClassifyPgError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
