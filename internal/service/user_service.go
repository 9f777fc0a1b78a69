package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/repository"
	"github.com/mswierczewski/socialwall/internal/storage"
)

var (
	ErrSelfFollow    = errors.New("users cannot follow themselves")
	ErrUsernameTaken = errors.New("username is already taken")
)

type UserInfo struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Gender         string     `json:"gender"`
	City           string     `json:"city,omitempty"`
	Country        string     `json:"country,omitempty"`
	Description    string     `json:"description,omitempty"`
	FollowerCount  int        `json:"follower_count"`
	FollowingCount int        `json:"following_count"`
}

// EditProfileInput replaces the editable part of a user's profile. Username,
// FirstName and LastName must be set; the remaining fields overwrite what is
// stored, so an empty value clears the field.
type EditProfileInput struct {
	Username    string
	FirstName   string
	LastName    string
	BirthDate   *time.Time
	City        string
	Country     string
	Description string
}

type UserBasicInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserService struct {
	users  repository.UserRepository
	files  storage.FileStore
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, files storage.FileStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, files: files, logger: logger}
}

func (s *UserService) Info(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	followers, err := s.users.ListFollowers(userID)
	if err != nil {
		return nil, err
	}
	following, err := s.users.ListFollowing(userID)
	if err != nil {
		return nil, err
	}
	return &UserInfo{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		FirstName:      user.Profile.FirstName,
		LastName:       user.Profile.LastName,
		BirthDate:      user.Profile.BirthDate,
		Gender:         user.Profile.Gender,
		City:           user.Profile.City,
		Country:        user.Profile.Country,
		Description:    user.Profile.Description,
		FollowerCount:  len(followers),
		FollowingCount: len(following),
	}, nil
}

// EditProfile applies the requested profile changes. A username change is
// checked against existing accounts first.
func (s *UserService) EditProfile(ctx context.Context, userID string, in EditProfileInput) (*UserInfo, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if in.Username != user.Username {
		taken, err := s.users.ExistsByUsername(in.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
		user.Username = in.Username
		if err := s.users.Update(user); err != nil {
			return nil, fmt.Errorf("update username: %w", err)
		}
	}

	user.Profile.UserID = user.ID
	user.Profile.FirstName = in.FirstName
	user.Profile.LastName = in.LastName
	user.Profile.BirthDate = in.BirthDate
	user.Profile.City = in.City
	user.Profile.Country = in.Country
	user.Profile.Description = in.Description
	if err := s.users.UpdateProfile(&user.Profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Info(ctx, userID)
}

func (s *UserService) BasicInfo(ctx context.Context, userID string) (*UserBasicInfo, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return basicInfo(user), nil
}

func (s *UserService) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.users.ExistsByUsername(username)
}

func (s *UserService) Search(ctx context.Context, name string, req repository.PageRequest) ([]UserBasicInfo, error) {
	page, err := s.users.SearchByName(name, req)
	if err != nil {
		return nil, err
	}
	infos := make([]UserBasicInfo, 0, len(page.Items))
	for i := range page.Items {
		infos = append(infos, *basicInfo(&page.Items[i]))
	}
	return infos, nil
}

func (s *UserService) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	if followerID == followeeID {
		return false, ErrSelfFollow
	}
	exists, err := s.users.ExistsByID(followeeID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrUserNotFound
	}
	return s.users.Follow(followerID, followeeID)
}

func (s *UserService) Unfollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	return s.users.Unfollow(followerID, followeeID)
}

func (s *UserService) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	return s.users.IsFollowing(followerID, followeeID)
}

func (s *UserService) Followers(ctx context.Context, userID string) ([]UserBasicInfo, error) {
	users, err := s.users.ListFollowers(userID)
	if err != nil {
		return nil, err
	}
	return basicInfos(users), nil
}

func (s *UserService) Following(ctx context.Context, userID string) ([]UserBasicInfo, error) {
	users, err := s.users.ListFollowing(userID)
	if err != nil {
		return nil, err
	}
	return basicInfos(users), nil
}

// UploadProfileImage records the image metadata and hands the bytes to the
// blob store in the background; the caller does not wait for the store.
func (s *UserService) UploadProfileImage(ctx context.Context, userID string, file storage.File) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	user.Profile.UserID = user.ID
	user.Profile.ImageKey = user.ID
	user.Profile.ImageContent = file.ContentType
	if err := s.users.UpdateProfile(&user.Profile); err != nil {
		return fmt.Errorf("update profile image metadata: %w", err)
	}

	go func() {
		if err := s.files.Save(context.Background(), storage.BucketProfileImages, user.ID, file); err != nil {
			s.logger.Error("profile image upload failed", "user_id", user.ID, "error", err)
		}
	}()
	return nil
}

func (s *UserService) DownloadProfileImage(ctx context.Context, userID string) (storage.File, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return storage.File{}, ErrUserNotFound
		}
		return storage.File{}, err
	}
	if user.Profile.ImageKey == "" {
		return storage.File{}, storage.ErrFileNotFound
	}
	return s.files.Load(ctx, storage.BucketProfileImages, user.Profile.ImageKey)
}

func basicInfo(u *domain.User) *UserBasicInfo {
	return &UserBasicInfo{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.Profile.FirstName,
		LastName:  u.Profile.LastName,
	}
}

func basicInfos(users []domain.User) []UserBasicInfo {
	infos := make([]UserBasicInfo, 0, len(users))
	for i := range users {
		infos = append(infos, *basicInfo(&users[i]))
	}
	return infos
}
