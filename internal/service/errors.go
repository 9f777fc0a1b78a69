package service

import (
	"errors"

	"github.com/mswierczewski/socialwall/internal/security"
)

// Session validation failure kinds. They are distinguishable internally for
// audit and metrics, but the HTTP layer presents all of them as the same 401
// so a stolen-token probe learns nothing about which check tripped.
var (
	ErrTokenInvalid        = security.ErrInvalidToken
	ErrTokenRevoked        = errors.New("token revoked")
	ErrUserNotFound        = errors.New("user not found")
	ErrFingerprintMismatch = errors.New("fingerprint mismatch")
)

// ErrBadCredentials covers unknown username/email, wrong password, and
// disabled accounts with one outward message to avoid enumeration.
var ErrBadCredentials = errors.New("bad credentials")

var (
	ErrUserAlreadyExists        = errors.New("username or email already taken")
	ErrVerificationTokenInvalid = errors.New("verification token invalid or expired")
	ErrNotOwner                 = errors.New("operation not permitted for this user")
	ErrPostNotFound             = errors.New("post not found")
	ErrCommentNotFound          = errors.New("comment not found")
)
