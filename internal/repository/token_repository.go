package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/observability"

	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("auth token not found")

// TokenRepository is the session service's record store. Revocation is a
// one-way flip of is_valid; both revoke operations are idempotent and treat
// missing records as success.
type TokenRepository interface {
	Create(token *domain.AuthToken) error
	FindByToken(token string) (*domain.AuthToken, error)
	RevokeByToken(token string) error
	RevokeAllByUserID(userID string) (int64, error)
	DeleteExpired(olderThan time.Time) (int64, error)
}

type GormTokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) TokenRepository { return &GormTokenRepository{db: db} }

func (r *GormTokenRepository) Create(token *domain.AuthToken) error {
	err := r.db.Create(token).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "auth_token", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "auth_token", "create", "success")
	return nil
}

func (r *GormTokenRepository) FindByToken(token string) (*domain.AuthToken, error) {
	var record domain.AuthToken
	err := r.db.Where("token = ?", token).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "auth_token", "find_by_token", "not_found")
			return nil, ErrTokenNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "auth_token", "find_by_token", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "auth_token", "find_by_token", "success")
	return &record, nil
}

func (r *GormTokenRepository) RevokeByToken(token string) error {
	err := r.db.Model(&domain.AuthToken{}).
		Where("token = ? AND is_valid = ?", token, true).
		Update("is_valid", false).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "auth_token", "revoke_by_token", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "auth_token", "revoke_by_token", "success")
	return nil
}

// RevokeAllByUserID flips every valid token of the owner in one conditional
// bulk update. No read-modify-write, so a token issued mid-revocation is
// either caught by the UPDATE or stays fully valid.
func (r *GormTokenRepository) RevokeAllByUserID(userID string) (int64, error) {
	res := r.db.Model(&domain.AuthToken{}).
		Where("user_id = ? AND is_valid = ?", userID, true).
		Update("is_valid", false)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "auth_token", "revoke_all_by_user_id", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "auth_token", "revoke_all_by_user_id", "success")
	return res.RowsAffected, nil
}

func (r *GormTokenRepository) DeleteExpired(olderThan time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", olderThan).Delete(&domain.AuthToken{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "auth_token", "delete_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "auth_token", "delete_expired", "success")
	return res.RowsAffected, nil
}
