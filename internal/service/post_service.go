package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/repository"
	"github.com/mswierczewski/socialwall/internal/storage"
)

type PostView struct {
	ID        string                `json:"id"`
	AuthorID  string                `json:"author_id"`
	Content   string                `json:"content"`
	ImageIDs  []string              `json:"image_ids"`
	Votes     repository.VoteCounts `json:"votes"`
	CreatedAt time.Time             `json:"created_at"`
}

type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	votes    repository.VoteRepository
	files    storage.FileStore
	logger   *slog.Logger
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	votes repository.VoteRepository,
	files storage.FileStore,
	logger *slog.Logger,
) *PostService {
	return &PostService{posts: posts, comments: comments, votes: votes, files: files, logger: logger}
}

// CreatePost persists the post and queues image blobs to the store in the
// background; image upload failures are logged and do not fail the post.
func (s *PostService) CreatePost(ctx context.Context, authorID, content string, images []storage.File) (*PostView, error) {
	post := &domain.Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Content:  content,
	}
	pending := make(map[string]storage.File, len(images))
	for _, img := range images {
		imageID := uuid.NewString()
		post.Images = append(post.Images, domain.PostImage{
			ID:          imageID,
			PostID:      post.ID,
			Key:         post.ID + "/" + imageID,
			ContentType: img.ContentType,
		})
		pending[post.ID+"/"+imageID] = img
	}
	if err := s.posts.Create(post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	for key, file := range pending {
		go func(key string, file storage.File) {
			if err := s.files.Save(context.Background(), storage.BucketPostImages, key, file); err != nil {
				s.logger.Error("post image upload failed", "post_id", post.ID, "key", key, "error", err)
			}
		}(key, file)
	}
	return s.view(post)
}

func (s *PostService) GetPost(ctx context.Context, postID string) (*PostView, error) {
	post, err := s.posts.FindByID(postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return s.view(post)
}

func (s *PostService) DownloadPostImage(ctx context.Context, postID, imageID string) (storage.File, error) {
	post, err := s.posts.FindByID(postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return storage.File{}, ErrPostNotFound
		}
		return storage.File{}, err
	}
	for _, img := range post.Images {
		if img.ID == imageID {
			return s.files.Load(ctx, storage.BucketPostImages, img.Key)
		}
	}
	return storage.File{}, storage.ErrFileNotFound
}

// DeletePost removes the post when the caller authored it. Image blobs are
// deleted in the background.
func (s *PostService) DeletePost(ctx context.Context, callerID, postID string) error {
	post, err := s.posts.FindByID(postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	if post.AuthorID != callerID {
		return ErrNotOwner
	}
	deleted, err := s.posts.DeleteByIDForAuthor(callerID, postID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPostNotFound
	}
	for _, img := range post.Images {
		go func(key string) {
			if err := s.files.Delete(context.Background(), storage.BucketPostImages, key); err != nil {
				s.logger.Error("post image delete failed", "post_id", postID, "key", key, "error", err)
			}
		}(img.Key)
	}
	return nil
}

func (s *PostService) PostsByUser(ctx context.Context, userID string, req repository.PageRequest) ([]PostView, error) {
	page, err := s.posts.ListByAuthor(userID, req)
	if err != nil {
		return nil, err
	}
	return s.views(page.Items)
}

// FeedForUser returns posts authored by users the caller follows.
func (s *PostService) FeedForUser(ctx context.Context, userID string, req repository.PageRequest) ([]PostView, error) {
	page, err := s.posts.ListFeedForUser(userID, req)
	if err != nil {
		return nil, err
	}
	return s.views(page.Items)
}

func (s *PostService) AddComment(ctx context.Context, authorID, postID, content string) (*domain.Comment, error) {
	if _, err := s.posts.FindByID(postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	comment := &domain.Comment{
		ID:       uuid.NewString(),
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.comments.Create(comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (s *PostService) GetComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	comment, err := s.comments.FindByID(commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (s *PostService) CommentsForPost(ctx context.Context, postID string, req repository.PageRequest) ([]domain.Comment, error) {
	page, err := s.comments.ListByPost(postID, req)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *PostService) DeleteComment(ctx context.Context, callerID, commentID string) error {
	comment, err := s.comments.FindByID(commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.AuthorID != callerID {
		return ErrNotOwner
	}
	deleted, err := s.comments.DeleteByIDForAuthor(callerID, commentID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCommentNotFound
	}
	return nil
}

// Vote casts or replaces the caller's vote; value is VoteUp or VoteDown.
func (s *PostService) Vote(ctx context.Context, userID, targetID, targetType string, value int8) (repository.VoteCounts, error) {
	if err := s.checkVoteTarget(targetID, targetType); err != nil {
		return repository.VoteCounts{}, err
	}
	if value != domain.VoteUp && value != domain.VoteDown {
		return repository.VoteCounts{}, fmt.Errorf("invalid vote value %d", value)
	}
	vote := &domain.Vote{
		ID:         uuid.NewString(),
		UserID:     userID,
		TargetID:   targetID,
		TargetType: targetType,
		Value:      value,
	}
	if err := s.votes.Upsert(vote); err != nil {
		return repository.VoteCounts{}, err
	}
	return s.votes.CountsForTarget(targetID, targetType)
}

func (s *PostService) Unvote(ctx context.Context, userID, targetID, targetType string) (repository.VoteCounts, error) {
	if err := s.checkVoteTarget(targetID, targetType); err != nil {
		return repository.VoteCounts{}, err
	}
	if _, err := s.votes.DeleteForUser(userID, targetID, targetType); err != nil {
		return repository.VoteCounts{}, err
	}
	return s.votes.CountsForTarget(targetID, targetType)
}

// VoteSummary is the vote tally on a post plus the caller's own vote, empty
// when the caller has not voted.
type VoteSummary struct {
	repository.VoteCounts
	UserVote string `json:"user_vote,omitempty"`
}

func (s *PostService) VotesForPost(ctx context.Context, userID, postID string) (VoteSummary, error) {
	if err := s.checkVoteTarget(postID, domain.VoteTargetPost); err != nil {
		return VoteSummary{}, err
	}
	counts, err := s.votes.CountsForTarget(postID, domain.VoteTargetPost)
	if err != nil {
		return VoteSummary{}, err
	}
	summary := VoteSummary{VoteCounts: counts}
	vote, err := s.votes.FindForUser(userID, postID, domain.VoteTargetPost)
	switch {
	case err == nil:
		if vote.Value == domain.VoteUp {
			summary.UserVote = "UPVOTE"
		} else {
			summary.UserVote = "DOWNVOTE"
		}
	case errors.Is(err, repository.ErrVoteNotFound):
	default:
		return VoteSummary{}, err
	}
	return summary, nil
}

func (s *PostService) checkVoteTarget(targetID, targetType string) error {
	switch targetType {
	case domain.VoteTargetPost:
		if _, err := s.posts.FindByID(targetID); err != nil {
			if errors.Is(err, repository.ErrPostNotFound) {
				return ErrPostNotFound
			}
			return err
		}
	case domain.VoteTargetComment:
		if _, err := s.comments.FindByID(targetID); err != nil {
			if errors.Is(err, repository.ErrCommentNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
	default:
		return fmt.Errorf("invalid vote target type %q", targetType)
	}
	return nil
}

func (s *PostService) view(post *domain.Post) (*PostView, error) {
	counts, err := s.votes.CountsForTarget(post.ID, domain.VoteTargetPost)
	if err != nil {
		return nil, err
	}
	imageIDs := make([]string, 0, len(post.Images))
	for _, img := range post.Images {
		imageIDs = append(imageIDs, img.ID)
	}
	return &PostView{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		ImageIDs:  imageIDs,
		Votes:     counts,
		CreatedAt: post.CreatedAt,
	}, nil
}

func (s *PostService) views(posts []domain.Post) ([]PostView, error) {
	views := make([]PostView, 0, len(posts))
	for i := range posts {
		v, err := s.view(&posts[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}
