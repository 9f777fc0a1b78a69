package repository

import (
	"context"
	"errors"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/observability"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Create(user *domain.User) error
	Update(user *domain.User) error
	FindByID(id string) (*domain.User, error)
	FindByUsernameOrEmail(login string) (*domain.User, error)
	ExistsByID(id string) (bool, error)
	ExistsByUsername(username string) (bool, error)
	ExistsByEmail(email string) (bool, error)
	SearchByName(name string, req PageRequest) (PageResult[domain.User], error)
	Follow(followerID, followeeID string) (bool, error)
	Unfollow(followerID, followeeID string) (bool, error)
	IsFollowing(followerID, followeeID string) (bool, error)
	ListFollowers(userID string) ([]domain.User, error)
	ListFollowing(userID string) ([]domain.User, error)
	UpdateProfile(profile *domain.Profile) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) Create(user *domain.User) error {
	err := r.db.Create(user).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return nil
}

func (r *GormUserRepository) Update(user *domain.User) error {
	err := r.db.Save(user).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update", "success")
	return nil
}

func (r *GormUserRepository) FindByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.db.Preload("Roles").Preload("Profile").Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByUsernameOrEmail(login string) (*domain.User, error) {
	var u domain.User
	err := r.db.Preload("Roles").Preload("Profile").
		Where("username = ? OR email = ?", login, login).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_login", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_login", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_login", "success")
	return &u, nil
}

func (r *GormUserRepository) ExistsByID(id string) (bool, error) {
	return r.exists("id = ?", id)
}

func (r *GormUserRepository) ExistsByUsername(username string) (bool, error) {
	return r.exists("username = ?", username)
}

func (r *GormUserRepository) ExistsByEmail(email string) (bool, error) {
	return r.exists("email = ?", email)
}

func (r *GormUserRepository) exists(query string, arg string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Where(query, arg).Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "exists", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "exists", "success")
	return count > 0, nil
}

func (r *GormUserRepository) SearchByName(name string, req PageRequest) (PageResult[domain.User], error) {
	req = normalizePageRequest(req)
	result := PageResult[domain.User]{Page: req.Page, PageSize: req.PageSize}

	pattern := name + "%"
	base := r.db.Model(&domain.User{}).
		Joins("JOIN profiles p ON p.user_id = users.id").
		Where("users.username LIKE ? OR p.first_name LIKE ? OR p.last_name LIKE ?", pattern, pattern, pattern)

	if err := base.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "search_by_name", "error")
		return PageResult[domain.User]{}, err
	}

	offset := (req.Page - 1) * req.PageSize
	err := base.Preload("Profile").
		Order("users.username ASC").
		Offset(offset).Limit(req.PageSize).
		Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "search_by_name", "error")
		return PageResult[domain.User]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, req.PageSize)
	observability.RecordRepositoryOperation(context.Background(), "user", "search_by_name", "success")
	return result, nil
}

// Follow reports whether a new relationship was created; following someone
// twice is a no-op.
func (r *GormUserRepository) Follow(followerID, followeeID string) (bool, error) {
	existing, err := r.IsFollowing(followerID, followeeID)
	if err != nil {
		return false, err
	}
	if existing {
		return false, nil
	}
	err = r.db.Create(&domain.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "follow", "create", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "follow", "create", "success")
	return true, nil
}

func (r *GormUserRepository) Unfollow(followerID, followeeID string) (bool, error) {
	res := r.db.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&domain.Follow{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "follow", "delete", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "follow", "delete", "success")
	return res.RowsAffected > 0, nil
}

func (r *GormUserRepository) IsFollowing(followerID, followeeID string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "follow", "is_following", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "follow", "is_following", "success")
	return count > 0, nil
}

func (r *GormUserRepository) ListFollowers(userID string) ([]domain.User, error) {
	var users []domain.User
	err := r.db.Preload("Profile").
		Joins("JOIN follows f ON f.follower_id = users.id").
		Where("f.followee_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "follow", "list_followers", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "follow", "list_followers", "success")
	return users, nil
}

func (r *GormUserRepository) ListFollowing(userID string) ([]domain.User, error) {
	var users []domain.User
	err := r.db.Preload("Profile").
		Joins("JOIN follows f ON f.followee_id = users.id").
		Where("f.follower_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "follow", "list_following", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "follow", "list_following", "success")
	return users, nil
}

func (r *GormUserRepository) UpdateProfile(profile *domain.Profile) error {
	err := r.db.Save(profile).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "profile", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "profile", "update", "success")
	return nil
}
