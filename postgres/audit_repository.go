package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashmortar/htmx-kit/domain"
)

// LoginAttemptRepository implements domain.LoginAttemptRepository.
type LoginAttemptRepository struct {
	pool *pgxpool.Pool
}

func NewLoginAttemptRepository(pool *pgxpool.Pool) *LoginAttemptRepository {
	return &LoginAttemptRepository{pool: pool}
}

func (r *LoginAttemptRepository) Record(ctx context.Context, attempt *domain.LoginAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO login_attempts (id, user_id, email, success)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		attempt.ID, attempt.UserID, attempt.Email, attempt.Success,
	).Scan(&attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording login attempt: %w", err)
	}
	return nil
}

var _ domain.LoginAttemptRepository = (*LoginAttemptRepository)(nil)

// VerificationTokenRepository implements domain.VerificationTokenRepository.
type VerificationTokenRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationTokenRepository(pool *pgxpool.Pool) *VerificationTokenRepository {
	return &VerificationTokenRepository{pool: pool}
}

func (r *VerificationTokenRepository) Create(ctx context.Context, token *domain.VerificationToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO verification_tokens (id, user_id, token, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		token.ID, token.UserID, token.Token, token.ExpiresAt,
	).Scan(&token.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting verification token: %w", err)
	}
	return nil
}

// Consume marks the token used and flips the owning user to verified, in one
// transaction. Expired or already-consumed tokens yield ErrNotFound.
func (r *VerificationTokenRepository) Consume(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	var user *domain.User
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var userID string
		err := tx.QueryRow(ctx,
			`UPDATE verification_tokens SET consumed_at = $2
			 WHERE token = $1 AND consumed_at IS NULL AND expires_at > $2
			 RETURNING user_id`, token, now,
		).Scan(&userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("consuming verification token: %w", err)
		}

		user, err = scanUser(tx.QueryRow(ctx,
			`UPDATE users SET status = $2, updated_at = now() WHERE id = $1
			 RETURNING `+userColumns, userID, domain.UserStatusVerified))
		if err != nil {
			return fmt.Errorf("verifying user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

var _ domain.VerificationTokenRepository = (*VerificationTokenRepository)(nil)
