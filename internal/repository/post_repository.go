package repository

import (
	"context"
	"errors"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/observability"

	"gorm.io/gorm"
)

var ErrPostNotFound = errors.New("post not found")

type PostRepository interface {
	Create(post *domain.Post) error
	FindByID(id string) (*domain.Post, error)
	DeleteByIDForAuthor(authorID, postID string) (bool, error)
	ListByAuthor(authorID string, req PageRequest) (PageResult[domain.Post], error)
	ListFeedForUser(userID string, req PageRequest) (PageResult[domain.Post], error)
}

type GormPostRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &GormPostRepository{db: db} }

func (r *GormPostRepository) Create(post *domain.Post) error {
	err := r.db.Create(post).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "post", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "post", "create", "success")
	return nil
}

func (r *GormPostRepository) FindByID(id string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.Preload("Images").Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "post", "find_by_id", "not_found")
			return nil, ErrPostNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "post", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "post", "find_by_id", "success")
	return &p, nil
}

func (r *GormPostRepository) DeleteByIDForAuthor(authorID, postID string) (bool, error) {
	res := r.db.Where("id = ? AND author_id = ?", postID, authorID).Delete(&domain.Post{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "post", "delete_by_id_for_author", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "post", "delete_by_id_for_author", "success")
	return res.RowsAffected > 0, nil
}

func (r *GormPostRepository) ListByAuthor(authorID string, req PageRequest) (PageResult[domain.Post], error) {
	base := r.db.Model(&domain.Post{}).Where("author_id = ?", authorID)
	return r.page(base, req, "list_by_author")
}

// ListFeedForUser returns posts by authors the user follows, newest first.
func (r *GormPostRepository) ListFeedForUser(userID string, req PageRequest) (PageResult[domain.Post], error) {
	base := r.db.Model(&domain.Post{}).
		Joins("JOIN follows f ON f.followee_id = posts.author_id").
		Where("f.follower_id = ?", userID)
	return r.page(base, req, "list_feed_for_user")
}

func (r *GormPostRepository) page(base *gorm.DB, req PageRequest, op string) (PageResult[domain.Post], error) {
	req = normalizePageRequest(req)
	result := PageResult[domain.Post]{Page: req.Page, PageSize: req.PageSize}

	if err := base.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "post", op, "error")
		return PageResult[domain.Post]{}, err
	}

	offset := (req.Page - 1) * req.PageSize
	err := base.Preload("Images").
		Order("posts.created_at DESC").
		Offset(offset).Limit(req.PageSize).
		Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "post", op, "error")
		return PageResult[domain.Post]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, req.PageSize)
	observability.RecordRepositoryOperation(context.Background(), "post", op, "success")
	return result, nil
}
