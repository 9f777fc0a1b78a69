package repository

import (
	"context"
	"errors"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/observability"

	"gorm.io/gorm"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepository interface {
	Create(comment *domain.Comment) error
	FindByID(id string) (*domain.Comment, error)
	ListByPost(postID string, req PageRequest) (PageResult[domain.Comment], error)
	DeleteByIDForAuthor(authorID, commentID string) (bool, error)
}

type GormCommentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) CommentRepository { return &GormCommentRepository{db: db} }

func (r *GormCommentRepository) Create(comment *domain.Comment) error {
	err := r.db.Create(comment).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "comment", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "comment", "create", "success")
	return nil
}

func (r *GormCommentRepository) FindByID(id string) (*domain.Comment, error) {
	var c domain.Comment
	err := r.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "comment", "find_by_id", "not_found")
			return nil, ErrCommentNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "comment", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "comment", "find_by_id", "success")
	return &c, nil
}

func (r *GormCommentRepository) ListByPost(postID string, req PageRequest) (PageResult[domain.Comment], error) {
	req = normalizePageRequest(req)
	result := PageResult[domain.Comment]{Page: req.Page, PageSize: req.PageSize}

	base := r.db.Model(&domain.Comment{}).Where("post_id = ?", postID)
	if err := base.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "comment", "list_by_post", "error")
		return PageResult[domain.Comment]{}, err
	}

	offset := (req.Page - 1) * req.PageSize
	err := base.Order("created_at ASC").Offset(offset).Limit(req.PageSize).Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "comment", "list_by_post", "error")
		return PageResult[domain.Comment]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, req.PageSize)
	observability.RecordRepositoryOperation(context.Background(), "comment", "list_by_post", "success")
	return result, nil
}

func (r *GormCommentRepository) DeleteByIDForAuthor(authorID, commentID string) (bool, error) {
	res := r.db.Where("id = ? AND author_id = ?", commentID, authorID).Delete(&domain.Comment{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "comment", "delete_by_id_for_author", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "comment", "delete_by_id_for_author", "success")
	return res.RowsAffected > 0, nil
}
