// Package services holds the business logic between the HTTP handlers and
// the repositories: identity reconciliation, local auth, and sessions.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ashmortar/htmx-kit/domain"
)

const (
	// passwordTTL models the password rotation policy; enforcement of
	// rotation itself happens elsewhere.
	passwordTTL = 90 * 24 * time.Hour

	verificationTokenTTL = 24 * time.Hour
)

// dummyPasswordHash is a valid bcrypt hash of a random string nobody knows.
// Sign-in attempts against unknown emails verify the supplied password
// against it so both failure modes cost one bcrypt comparison.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// ReconcileInput is one inbound authentication event from a trusted OAuth
// callback: the credential to bind and the PII the provider shared.
type ReconcileInput struct {
	Credential domain.Credential
	PII        []domain.PiiAttr
}

// ReconciliationService maps inbound authentication events onto exactly one
// user aggregate, creating or updating as needed. The existence check ahead
// of each write is advisory; the database uniqueness constraints are the
// authority, and the service absorbs the race by retrying the match once
// when an insert loses.
type ReconciliationService struct {
	identities domain.IdentityRepository
	attempts   domain.LoginAttemptRepository
	tokens     domain.VerificationTokenRepository
	roles      domain.RoleRepository
	hasher     PasswordHasher
	now        func() time.Time
}

func NewReconciliationService(
	identities domain.IdentityRepository,
	attempts domain.LoginAttemptRepository,
	tokens domain.VerificationTokenRepository,
	roles domain.RoleRepository,
	hasher PasswordHasher,
) *ReconciliationService {
	return &ReconciliationService{
		identities: identities,
		attempts:   attempts,
		tokens:     tokens,
		roles:      roles,
		hasher:     hasher,
		now:        time.Now,
	}
}

// Reconcile handles the OAuth path: match an existing user, update it, or
// create a fresh user aggregate when nothing matches.
func (s *ReconciliationService) Reconcile(ctx context.Context, in ReconcileInput) (*domain.Identity, error) {
	pii := dedupePii(in.PII)
	email := emailOf(pii)

	user, err := s.matchUser(ctx, &in.Credential, email)
	switch {
	case err == nil:
		return s.identities.UpsertIdentity(ctx, user.ID, pii, &in.Credential)

	case errors.Is(err, domain.ErrNotFound):
		ident, createErr := s.identities.CreateIdentity(ctx, &domain.User{Status: domain.UserStatusUnverified}, pii, &in.Credential)
		if errors.Is(createErr, domain.ErrDuplicateIdentity) {
			// Lost the race against a concurrent reconciliation of the same
			// identity: the row exists now, so take the update path.
			user, retryErr := s.matchUser(ctx, &in.Credential, email)
			if retryErr != nil {
				return nil, fmt.Errorf("re-matching after duplicate identity: %w", retryErr)
			}
			return s.identities.UpsertIdentity(ctx, user.ID, pii, &in.Credential)
		}
		if createErr != nil {
			return nil, createErr
		}
		s.assignDefaultRole(ctx, ident.User.ID)
		return ident, nil

	default:
		return nil, err
	}
}

// matchUser resolves the inbound event to an existing user. The credential's
// unique (type, external id) binding always wins; the type-scoped email
// match runs only when no credential row exists, so an email that moved
// between provider accounts can never re-route an established credential to
// a different user.
func (s *ReconciliationService) matchUser(ctx context.Context, cred *domain.Credential, email string) (*domain.User, error) {
	user, err := s.identities.FindUserByCredential(ctx, cred.Type, cred.ExternalID)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return user, err
	}
	if email == "" {
		return nil, domain.ErrNotFound
	}
	return s.identities.FindUserByEmail(ctx, email)
}

// SignInLocal resolves a local (email, password) pair to an identity.
// Unknown email and wrong password are indistinguishable to the caller:
// both burn one bcrypt comparison and return ErrInvalidCredentials.
func (s *ReconciliationService) SignInLocal(ctx context.Context, email, password string) (*domain.Identity, error) {
	cred, err := s.identities.GetCredential(ctx, domain.CredentialTypePassword, email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = s.hasher.Verify(dummyPasswordHash, password)
		s.recordAttempt(ctx, nil, email, false)
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.hasher.Verify(cred.Value, password); err != nil {
		s.recordAttempt(ctx, &cred.UserID, email, false)
		return nil, domain.ErrInvalidCredentials
	}

	ident, err := s.identities.GetIdentity(ctx, cred.UserID, domain.CredentialTypePassword)
	if err != nil {
		return nil, err
	}
	s.recordAttempt(ctx, &cred.UserID, email, true)
	return ident, nil
}

// RegisterLocal creates a new local account: user (unverified), email PII,
// and a password credential expiring after the rotation window, plus a
// verification token for the external verification flow. A duplicate email
// yields ErrEmailTaken whether it is caught by the advisory lookup or by
// the unique constraint.
func (s *ReconciliationService) RegisterLocal(ctx context.Context, email, password string) (*domain.Identity, error) {
	if _, err := s.identities.GetCredential(ctx, domain.CredentialTypePassword, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	cred := domain.Credential{
		Type:       domain.CredentialTypePassword,
		ExternalID: email,
		Value:      hash,
		ExpiresAt:  s.now().Add(passwordTTL),
	}
	pii := []domain.PiiAttr{{Type: domain.PiiTypeEmail, Value: email}}

	ident, err := s.identities.CreateIdentity(ctx, &domain.User{Status: domain.UserStatusUnverified}, pii, &cred)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	s.assignDefaultRole(ctx, ident.User.ID)

	token, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("minting verification token: %w", err)
	}
	if err := s.tokens.Create(ctx, &domain.VerificationToken{
		UserID:    ident.User.ID,
		Token:     token,
		ExpiresAt: s.now().Add(verificationTokenTTL),
	}); err != nil {
		return nil, err
	}

	return ident, nil
}

func (s *ReconciliationService) assignDefaultRole(ctx context.Context, userID string) {
	// Role assignment failing must not lose an otherwise-created account.
	if err := s.roles.AssignRole(ctx, userID, domain.RoleUser); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to assign default role")
	}
}

func (s *ReconciliationService) recordAttempt(ctx context.Context, userID *string, email string, success bool) {
	attempt := &domain.LoginAttempt{UserID: userID, Email: email, Success: success}
	if err := s.attempts.Record(ctx, attempt); err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to record login attempt")
	}
}

// dedupePii drops empty values and keeps the last occurrence per type, so
// the upsert never conflicts with itself inside one transaction.
func dedupePii(in []domain.PiiAttr) []domain.PiiAttr {
	byType := make(map[domain.PiiType]string, len(in))
	order := make([]domain.PiiType, 0, len(in))
	for _, attr := range in {
		if attr.Value == "" {
			continue
		}
		if _, seen := byType[attr.Type]; !seen {
			order = append(order, attr.Type)
		}
		byType[attr.Type] = attr.Value
	}
	out := make([]domain.PiiAttr, 0, len(order))
	for _, t := range order {
		out = append(out, domain.PiiAttr{Type: t, Value: byType[t]})
	}
	return out
}

func emailOf(pii []domain.PiiAttr) string {
	for _, attr := range pii {
		if attr.Type == domain.PiiTypeEmail {
			return attr.Value
		}
	}
	return ""
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
