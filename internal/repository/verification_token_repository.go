package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/observability"

	"gorm.io/gorm"
)

var ErrVerificationTokenNotFound = errors.New("verification token not found")

type VerificationTokenRepository interface {
	Create(token *domain.VerificationToken) error
	FindByToken(token string) (*domain.VerificationToken, error)
	DeleteByToken(token string) error
	DeleteExpired(olderThan time.Time) (int64, error)
}

type GormVerificationTokenRepository struct{ db *gorm.DB }

func NewVerificationTokenRepository(db *gorm.DB) VerificationTokenRepository {
	return &GormVerificationTokenRepository{db: db}
}

func (r *GormVerificationTokenRepository) Create(token *domain.VerificationToken) error {
	err := r.db.Create(token).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "verification_token", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification_token", "create", "success")
	return nil
}

func (r *GormVerificationTokenRepository) FindByToken(token string) (*domain.VerificationToken, error) {
	var record domain.VerificationToken
	err := r.db.Where("token = ?", token).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "verification_token", "find_by_token", "not_found")
			return nil, ErrVerificationTokenNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "verification_token", "find_by_token", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification_token", "find_by_token", "success")
	return &record, nil
}

func (r *GormVerificationTokenRepository) DeleteByToken(token string) error {
	err := r.db.Where("token = ?", token).Delete(&domain.VerificationToken{}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "verification_token", "delete_by_token", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "verification_token", "delete_by_token", "success")
	return nil
}

func (r *GormVerificationTokenRepository) DeleteExpired(olderThan time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", olderThan).Delete(&domain.VerificationToken{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "verification_token", "delete_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "verification_token", "delete_expired", "success")
	return res.RowsAffected, nil
}
