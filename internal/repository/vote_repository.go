package repository

import (
	"context"
	"errors"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrVoteNotFound = errors.New("vote not found")

type VoteCounts struct {
	Up   int64 `json:"up"`
	Down int64 `json:"down"`
}

type VoteRepository interface {
	Upsert(vote *domain.Vote) error
	DeleteForUser(userID, targetID, targetType string) (bool, error)
	CountsForTarget(targetID, targetType string) (VoteCounts, error)
	FindForUser(userID, targetID, targetType string) (*domain.Vote, error)
}

type GormVoteRepository struct{ db *gorm.DB }

func NewVoteRepository(db *gorm.DB) VoteRepository { return &GormVoteRepository{db: db} }

// Upsert casts or replaces the user's vote on a target; the composite unique
// index on (user, target, target type) drives the conflict clause.
func (r *GormVoteRepository) Upsert(vote *domain.Vote) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_id"}, {Name: "target_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(vote).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "vote", "upsert", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "vote", "upsert", "success")
	return nil
}

func (r *GormVoteRepository) DeleteForUser(userID, targetID, targetType string) (bool, error) {
	res := r.db.Where("user_id = ? AND target_id = ? AND target_type = ?", userID, targetID, targetType).
		Delete(&domain.Vote{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "vote", "delete_for_user", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "vote", "delete_for_user", "success")
	return res.RowsAffected > 0, nil
}

func (r *GormVoteRepository) CountsForTarget(targetID, targetType string) (VoteCounts, error) {
	var counts VoteCounts
	err := r.db.Model(&domain.Vote{}).
		Where("target_id = ? AND target_type = ? AND value = ?", targetID, targetType, domain.VoteUp).
		Count(&counts.Up).Error
	if err == nil {
		err = r.db.Model(&domain.Vote{}).
			Where("target_id = ? AND target_type = ? AND value = ?", targetID, targetType, domain.VoteDown).
			Count(&counts.Down).Error
	}
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "vote", "counts_for_target", "error")
		return VoteCounts{}, err
	}
	observability.RecordRepositoryOperation(context.Background(), "vote", "counts_for_target", "success")
	return counts, nil
}

func (r *GormVoteRepository) FindForUser(userID, targetID, targetType string) (*domain.Vote, error) {
	var v domain.Vote
	err := r.db.Where("user_id = ? AND target_id = ? AND target_type = ?", userID, targetID, targetType).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "vote", "find_for_user", "not_found")
			return nil, ErrVoteNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "vote", "find_for_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "vote", "find_for_user", "success")
	return &v, nil
}
