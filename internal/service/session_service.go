package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/observability"
	"github.com/mswierczewski/socialwall/internal/repository"
	"github.com/mswierczewski/socialwall/internal/security"
)

const (
	AuthorizationHeader = "Authorization"
	AuthorizationPrefix = "Bearer "
)

// Principal is an already-authenticated user handed to Issue.
type Principal struct {
	ID          string
	Authorities []string
}

// Identity is the per-request authenticated identity reconstructed from a
// validated token. It is derived, never persisted, and never stored in a
// process-global.
type Identity struct {
	UserID      string   `json:"user_id"`
	Authorities []string `json:"authorities"`
}

func (id Identity) HasAuthority(name string) bool {
	for _, a := range id.Authorities {
		if a == name {
			return true
		}
	}
	return false
}

// SessionService issues, validates, and revokes session tokens. The token
// record store is the single source of truth for revocation; the signature
// alone never makes a token acceptable.
type SessionService struct {
	tokens   repository.TokenRepository
	users    repository.UserRepository
	codec    *security.TokenCodec
	validity time.Duration
	now      func() time.Time
}

func NewSessionService(tokens repository.TokenRepository, users repository.UserRepository, codec *security.TokenCodec, validity time.Duration) *SessionService {
	return &SessionService{
		tokens:   tokens,
		users:    users,
		codec:    codec,
		validity: validity,
		now:      time.Now,
	}
}

// Issue signs a token for the principal bound to the request fingerprint and
// persists its record. Concurrent issuances for the same owner are
// independent; each stays valid until individually revoked.
func (s *SessionService) Issue(ctx context.Context, principal Principal, fp security.Fingerprint) (string, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.validity)

	claims := security.NewSessionClaims(principal.ID, principal.Authorities, fp, issuedAt, expiresAt)
	token, err := s.codec.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("encode session token: %w", err)
	}

	record := &domain.AuthToken{
		Token:     token,
		UserID:    principal.ID,
		ExpiresAt: expiresAt,
		IsValid:   true,
	}
	if err := s.tokens.Create(record); err != nil {
		return "", fmt.Errorf("persist session token: %w", err)
	}
	return token, nil
}

// TokenFromHeader extracts the bearer token. A missing header or one without
// the prefix means no token; the caller proceeds as anonymous.
func TokenFromHeader(h http.Header) (string, bool) {
	value := h.Get(AuthorizationHeader)
	if !strings.HasPrefix(value, AuthorizationPrefix) {
		return "", false
	}
	return strings.TrimPrefix(value, AuthorizationPrefix), true
}

// Validate runs the ordered check pipeline. Each check short-circuits:
//
//  1. signature and expiry (cheapest, rejects garbage before any store I/O)
//  2. record present and still valid
//  3. subject still references an existing user
//  4. IP claim matches the current request
//  5. user agent claim matches the current request
//
// Fingerprint checks run last: they are hardening against token theft, not
// core trust.
func (s *SessionService) Validate(ctx context.Context, token string, fp security.Fingerprint) (*Identity, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		observability.RecordTokenValidation(ctx, "malformed")
		return nil, ErrTokenInvalid
	}

	record, err := s.tokens.FindByToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			observability.RecordTokenValidation(ctx, "revoked")
			return nil, ErrTokenRevoked
		}
		return nil, fmt.Errorf("load token record: %w", err)
	}
	if !record.IsValid {
		observability.RecordTokenValidation(ctx, "revoked")
		return nil, ErrTokenRevoked
	}

	exists, err := s.users.ExistsByID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("check token subject: %w", err)
	}
	if !exists {
		observability.RecordTokenValidation(ctx, "principal_not_found")
		return nil, ErrUserNotFound
	}

	if fp.IP != claims.IP {
		observability.RecordTokenValidation(ctx, "fingerprint_mismatch")
		return nil, ErrFingerprintMismatch
	}
	if fp.UserAgent != claims.UserAgent {
		observability.RecordTokenValidation(ctx, "fingerprint_mismatch")
		return nil, ErrFingerprintMismatch
	}

	observability.RecordTokenValidation(ctx, "valid")
	return &Identity{UserID: claims.Subject, Authorities: claims.Authorities}, nil
}

// RevokeToken flips one token record to invalid. Missing or already revoked
// records are a success, not an error.
func (s *SessionService) RevokeToken(ctx context.Context, token string) error {
	return s.tokens.RevokeByToken(token)
}

// RevokeAllForUser invalidates every valid token of the owner in a single
// conditional bulk update, so a "sign out everywhere" cannot miss a token
// racing between a read and a write.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	return s.tokens.RevokeAllByUserID(userID)
}

// SignOut revokes the presented token, or every token of its owner when
// allDevices is set. The owner comes from the token's own claims; a token
// that no longer decodes can still only kill itself.
func (s *SessionService) SignOut(ctx context.Context, token string, allDevices bool) error {
	if allDevices {
		if claims, err := s.codec.Decode(token); err == nil {
			_, err := s.RevokeAllForUser(ctx, claims.Subject)
			return err
		}
	}
	return s.RevokeToken(ctx, token)
}

// PruneExpired removes token records whose expiry has elapsed. Only the
// background janitor deletes records; revocation never does.
func (s *SessionService) PruneExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(s.now())
}
