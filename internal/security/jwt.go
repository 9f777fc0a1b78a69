package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the fixed claim set carried by every session token:
// the owner id (subject), issuance and expiry timestamps, the client
// fingerprint captured at issuance, and a snapshot of the owner's
// authorities. Authorities are not re-derived at validation time.
type SessionClaims struct {
	IP          string   `json:"ip"`
	UserAgent   string   `json:"ua"`
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenCodec signs and verifies session tokens with a single shared
// symmetric key. The same key is used for both directions; rotation is not
// supported.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Encode signs the claims into the compact serialized token string.
func (c *TokenCodec) Encode(claims SessionClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the signature and expiry and returns the structured
// claims. Tokens with a wrong signing method, a failed signature check, an
// elapsed expiry, or missing required claims all come back as
// ErrInvalidToken.
func (c *TokenCodec) Decode(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing algorithm")
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// NewSessionClaims builds the claim set issued at sign-in.
func NewSessionClaims(userID string, authorities []string, fp Fingerprint, issuedAt time.Time, expiresAt time.Time) SessionClaims {
	return SessionClaims{
		IP:          fp.IP,
		UserAgent:   fp.UserAgent,
		Authorities: authorities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}
