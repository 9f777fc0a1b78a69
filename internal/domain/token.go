package domain

import "time"

// AuthToken is the persisted record for one issued session token. The store
// is the authority for revocation: a token string without a matching record
// is invalid no matter what its signature says.
//
// IsValid starts true and is flipped to false exactly once by revocation;
// nothing ever sets it back. Expired and revoked records are retained for
// audit and removed only by the janitor.
type AuthToken struct {
	Token     string    `gorm:"primaryKey;size:600" json:"-"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	IsValid   bool      `gorm:"not null;default:true" json:"is_valid"`
	CreatedAt time.Time `json:"created_at"`
}

// VerificationToken is a single-use account activation token, delivered by
// mail at sign-up and deleted once redeemed.
type VerificationToken struct {
	Token     string    `gorm:"primaryKey;size:36" json:"-"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
