package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/http/middleware"
	"github.com/mswierczewski/socialwall/internal/http/response"
	"github.com/mswierczewski/socialwall/internal/service"
	"github.com/mswierczewski/socialwall/internal/storage"
)

const maxPostFormBytes = 20 << 20

type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type commentRequest struct {
	Content string `json:"content"`
}

type voteRequest struct {
	TargetID   string `json:"targetId"`
	TargetType string `json:"targetType"`
	VoteType   string `json:"voteType"`
}

// Create accepts a multipart form: a "content" text field plus any number of
// "images" file parts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	if err := r.ParseMultipartForm(maxPostFormBytes); err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_FORM", "malformed multipart form", nil)
		return
	}
	content := r.FormValue("content")
	if content == "" {
		response.Error(w, r, http.StatusBadRequest, "MISSING_FIELDS", "content is required", nil)
		return
	}

	var images []storage.File
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			part, err := header.Open()
			if err != nil {
				response.Error(w, r, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file", nil)
				return
			}
			data, err := io.ReadAll(io.LimitReader(part, maxImageBytes+1))
			part.Close()
			if err != nil {
				response.Error(w, r, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file", nil)
				return
			}
			if len(data) > maxImageBytes {
				response.Error(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "uploaded file exceeds the size limit", nil)
				return
			}
			images = append(images, storage.File{Data: data, ContentType: header.Header.Get("Content-Type")})
		}
	}

	view, err := h.posts.CreatePost(r.Context(), identity.UserID, content, images)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not create post", nil)
		return
	}
	response.JSON(w, r, http.StatusCreated, view)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.posts.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, view)
}

func (h *PostHandler) DownloadImage(w http.ResponseWriter, r *http.Request) {
	file, err := h.posts.DownloadPostImage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "imageId"))
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "image not found", nil)
			return
		}
		writePostError(w, r, err)
		return
	}
	response.Blob(w, file.ContentType, file.Data)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	if err := h.posts.DeletePost(r.Context(), identity.UserID, chi.URLParam(r, "id")); err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *PostHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	views, err := h.posts.PostsByUser(r.Context(), chi.URLParam(r, "id"), pageRequest(r))
	if err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, views)
}

// Feed returns posts from users the caller follows, newest first.
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	views, err := h.posts.FeedForUser(r.Context(), identity.UserID, pageRequest(r))
	if err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, views)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		response.Error(w, r, http.StatusBadRequest, "MISSING_FIELDS", "content is required", nil)
		return
	}
	comment, err := h.posts.AddComment(r.Context(), identity.UserID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, comment)
}

func (h *PostHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.posts.CommentsForPost(r.Context(), chi.URLParam(r, "id"), pageRequest(r))
	if err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, comments)
}

func (h *PostHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.posts.GetComment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, comment)
}

func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	if err := h.posts.DeleteComment(r.Context(), identity.UserID, chi.URLParam(r, "id")); err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *PostHandler) Vote(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return
	}
	var value int8
	switch req.VoteType {
	case "UPVOTE":
		value = domain.VoteUp
	case "DOWNVOTE":
		value = domain.VoteDown
	default:
		response.Error(w, r, http.StatusBadRequest, "INVALID_VOTE", "voteType must be UPVOTE or DOWNVOTE", nil)
		return
	}
	targetType, ok := voteTargetType(req.TargetType)
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "INVALID_VOTE", "targetType must be POST or COMMENT", nil)
		return
	}
	counts, err := h.posts.Vote(r.Context(), identity.UserID, req.TargetID, targetType, value)
	if err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, counts)
}

func (h *PostHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	targetType, ok := voteTargetType(chi.URLParam(r, "targetType"))
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "INVALID_VOTE", "targetType must be POST or COMMENT", nil)
		return
	}
	counts, err := h.posts.Unvote(r.Context(), identity.UserID, chi.URLParam(r, "id"), targetType)
	if err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, counts)
}

// VotesByPost returns the post's tally together with the caller's own vote.
func (h *PostHandler) VotesByPost(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	summary, err := h.posts.VotesForPost(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writePostError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, summary)
}

func voteTargetType(raw string) (string, bool) {
	switch strings.ToLower(raw) {
	case domain.VoteTargetPost:
		return domain.VoteTargetPost, true
	case domain.VoteTargetComment:
		return domain.VoteTargetComment, true
	default:
		return "", false
	}
}

func writePostError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
	case errors.Is(err, service.ErrCommentNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "comment not found", nil)
	case errors.Is(err, service.ErrNotOwner):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "only the author can do that", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "request failed", nil)
	}
}
