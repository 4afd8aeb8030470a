package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/ashmortar/htmx-kit/domain"
)

// IdentityRepository implements domain.IdentityRepository.
type IdentityRepository struct {
	pool *pgxpool.Pool
}

func NewIdentityRepository(pool *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

const (
	userColumns         = `id, status, created_at, updated_at`
	prefixedUserColumns = `u.id, u.status, u.created_at, u.updated_at`
)

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

const credentialColumns = `id, user_id, type, external_id, value, refresh_token, expires_at, created_at, updated_at`

func scanCredential(row pgx.Row) (*domain.Credential, error) {
	var (
		c         domain.Credential
		expiresAt *time.Time
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Type, &c.ExternalID, &c.Value, &c.RefreshToken, &expiresAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if expiresAt != nil {
		c.ExpiresAt = *expiresAt
	}
	return &c, nil
}

// FindUserByCredential matches the owner of the credential with the given
// unique (type, external_id).
func (r *IdentityRepository) FindUserByCredential(ctx context.Context, credType domain.CredentialType, externalID string) (*domain.User, error) {
	query := `
		SELECT ` + prefixedUserColumns + ` FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE c.type = $1 AND c.external_id = $2`

	user, err := scanUser(r.pool.QueryRow(ctx, query, credType, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding user by credential: %w", err)
	}
	return user, nil
}

// FindUserByEmail matches a user by a PII row of type email with the given
// value. The match is restricted to the email type so that non-email
// attributes holding an email-shaped string never collide. (type, value) is
// not unique on pii, so ties break to the oldest account.
func (r *IdentityRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + prefixedUserColumns + ` FROM users u
		JOIN pii p ON p.user_id = u.id
		WHERE p.type = 'email' AND p.value = $1
		ORDER BY u.created_at
		LIMIT 1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	return user, nil
}

// GetCredential looks up a credential by its unique (type, external_id).
func (r *IdentityRepository) GetCredential(ctx context.Context, credType domain.CredentialType, externalID string) (*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE type = $1 AND external_id = $2`
	cred, err := scanCredential(r.pool.QueryRow(ctx, query, credType, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting credential: %w", err)
	}
	return cred, nil
}

// GetIdentity loads the full aggregate for a user: the user row, its
// credential of the given type, and all PII rows.
func (r *IdentityRepository) GetIdentity(ctx context.Context, userID string, credType domain.CredentialType) (*domain.Identity, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	// A user can hold several credentials of one type when distinct provider
	// accounts reconciled onto it through the email match; the
	// most-recently-written row is the one that authenticated this request.
	cred, err := scanCredential(r.pool.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE user_id = $1 AND type = $2 ORDER BY updated_at DESC LIMIT 1`,
		userID, credType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting credential for user: %w", err)
	}

	pii, err := r.piiForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.Identity{User: *user, Credential: *cred, PII: pii}, nil
}

// GetUserWithPii loads a user and its PII rows; sessions resolve through
// this, so no credential is attached.
func (r *IdentityRepository) GetUserWithPii(ctx context.Context, userID string) (*domain.User, []domain.Pii, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("getting user: %w", err)
	}
	pii, err := r.piiForUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, pii, nil
}

func (r *IdentityRepository) piiForUser(ctx context.Context, userID string) ([]domain.Pii, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, type, value, created_at, updated_at FROM pii WHERE user_id = $1 ORDER BY type`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing pii: %w", err)
	}
	defer rows.Close()

	var out []domain.Pii
	for rows.Next() {
		var p domain.Pii
		if err := rows.Scan(&p.ID, &p.UserID, &p.Type, &p.Value, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning pii: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pii: %w", err)
	}
	return out, nil
}

// CreateIdentity inserts a new user plus its initial PII rows and credential
// in one transaction. A racing writer that commits the same credential or
// email first makes the insert fail with a unique violation, which surfaces
// as domain.ErrDuplicateIdentity.
func (r *IdentityRepository) CreateIdentity(ctx context.Context, user *domain.User, pii []domain.PiiAttr, cred *domain.Credential) (*domain.Identity, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Status == "" {
		user.Status = domain.UserStatusUnverified
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO users (id, status) VALUES ($1, $2) RETURNING created_at, updated_at`,
			user.ID, user.Status).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}
		for _, attr := range pii {
			if _, err := tx.Exec(ctx,
				`INSERT INTO pii (id, user_id, type, value) VALUES ($1, $2, $3, $4)`,
				uuid.NewString(), user.ID, attr.Type, attr.Value); err != nil {
				return fmt.Errorf("inserting pii %s: %w", attr.Type, err)
			}
		}
		return insertCredential(ctx, tx, user.ID, cred)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Str("credential_type", string(cred.Type)).Msg("identity created")
	return r.GetIdentity(ctx, user.ID, cred.Type)
}

func insertCredential(ctx context.Context, tx pgx.Tx, userID string, cred *domain.Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	cred.UserID = userID
	var expiresAt *time.Time
	if !cred.ExpiresAt.IsZero() {
		expiresAt = &cred.ExpiresAt
	}
	if err := tx.QueryRow(ctx,
		`INSERT INTO credentials (id, user_id, type, external_id, value, refresh_token, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		cred.ID, userID, cred.Type, cred.ExternalID, cred.Value, cred.RefreshToken, expiresAt,
	).Scan(&cred.CreatedAt, &cred.UpdatedAt); err != nil {
		return fmt.Errorf("inserting credential: %w", err)
	}
	return nil
}

// UpsertIdentity refreshes an existing user from inbound provider data:
// every PII attribute is upserted by (type, user_id) and the credential by
// (type, external_id), all inside one transaction so readers never observe
// updated PII without the matching credential state.
func (r *IdentityRepository) UpsertIdentity(ctx context.Context, userID string, pii []domain.PiiAttr, cred *domain.Credential) (*domain.Identity, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, attr := range pii {
			if _, err := tx.Exec(ctx,
				`INSERT INTO pii (id, user_id, type, value) VALUES ($1, $2, $3, $4)
				 ON CONFLICT (type, user_id)
				 DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
				uuid.NewString(), userID, attr.Type, attr.Value); err != nil {
				return fmt.Errorf("upserting pii %s: %w", attr.Type, err)
			}
		}

		if cred.ID == "" {
			cred.ID = uuid.NewString()
		}
		var expiresAt *time.Time
		if !cred.ExpiresAt.IsZero() {
			expiresAt = &cred.ExpiresAt
		}
		// COALESCE keeps an earlier refresh token when the provider omits
		// it on later exchanges.
		if _, err := tx.Exec(ctx,
			`INSERT INTO credentials (id, user_id, type, external_id, value, refresh_token, expires_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (type, external_id)
			 DO UPDATE SET
				value = EXCLUDED.value,
				refresh_token = COALESCE(EXCLUDED.refresh_token, credentials.refresh_token),
				expires_at = EXCLUDED.expires_at,
				updated_at = now()`,
			cred.ID, userID, cred.Type, cred.ExternalID, cred.Value, cred.RefreshToken, expiresAt); err != nil {
			return fmt.Errorf("upserting credential: %w", err)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, err
	}

	return r.GetIdentity(ctx, userID, cred.Type)
}

var _ domain.IdentityRepository = (*IdentityRepository)(nil)
