package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mswierczewski/socialwall/internal/http/middleware"
	"github.com/mswierczewski/socialwall/internal/http/response"
	"github.com/mswierczewski/socialwall/internal/repository"
	"github.com/mswierczewski/socialwall/internal/service"
	"github.com/mswierczewski/socialwall/internal/storage"
)

const maxImageBytes = 5 << 20

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.users.Info(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, info)
}

func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	info, err := h.users.Info(r.Context(), identity.UserID)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, info)
}

func (h *UserHandler) BasicInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.users.BasicInfo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, info)
}

func (h *UserHandler) FindByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	infos, err := h.users.Search(r.Context(), name, pageRequest(r))
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not search users", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, infos)
}

func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	followed, err := h.users.Follow(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrSelfFollow) {
			response.Error(w, r, http.StatusBadRequest, "SELF_FOLLOW", "cannot follow yourself", nil)
			return
		}
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"following": true, "changed": followed})
}

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	unfollowed, err := h.users.Unfollow(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"following": false, "changed": unfollowed})
}

func (h *UserHandler) IsFollowing(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	following, err := h.users.IsFollowing(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"following": following})
}

func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	infos, err := h.users.Followers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, infos)
}

func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	infos, err := h.users.Following(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, infos)
}

type editProfileRequest struct {
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	BirthDate   string `json:"birthDate"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Description string `json:"description"`
}

// EditProfile replaces the caller's profile. BirthDate is a YYYY-MM-DD date;
// an empty string clears it.
func (h *UserHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	var req editProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return
	}
	if req.Username == "" || req.FirstName == "" || req.LastName == "" {
		response.Error(w, r, http.StatusBadRequest, "MISSING_FIELDS", "username, firstName and lastName are required", nil)
		return
	}
	var birthDate *time.Time
	if req.BirthDate != "" {
		parsed, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "INVALID_DATE", "birthDate must be YYYY-MM-DD", nil)
			return
		}
		birthDate = &parsed
	}

	info, err := h.users.EditProfile(r.Context(), identity.UserID, service.EditProfileInput{
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		BirthDate:   birthDate,
		City:        req.City,
		Country:     req.Country,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			response.Error(w, r, http.StatusConflict, "USERNAME_TAKEN", "username is already taken", nil)
			return
		}
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, info)
}

func (h *UserHandler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	file, ok := readMultipartImage(w, r, "image")
	if !ok {
		return
	}
	if err := h.users.UploadProfileImage(r.Context(), identity.UserID, file); err != nil {
		writeUserError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]bool{"uploaded": true})
}

func (h *UserHandler) DownloadProfileImage(w http.ResponseWriter, r *http.Request) {
	file, err := h.users.DownloadProfileImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "profile image not found", nil)
			return
		}
		writeUserError(w, r, err)
		return
	}
	response.Blob(w, file.ContentType, file.Data)
}

func writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrUserNotFound) {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		return
	}
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "request failed", nil)
}

// pageRequest reads ?page= and ?pageSize=; the repository clamps the values.
func pageRequest(r *http.Request) repository.PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	return repository.PageRequest{Page: page, PageSize: size}
}

// readMultipartImage pulls one image part out of a multipart form. Writes the
// error response itself when the form is unusable.
func readMultipartImage(w http.ResponseWriter, r *http.Request, field string) (storage.File, bool) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_FORM", "malformed multipart form", nil)
		return storage.File{}, false
	}
	part, header, err := r.FormFile(field)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "MISSING_FILE", "missing file field "+field, nil)
		return storage.File{}, false
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, maxImageBytes+1))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file", nil)
		return storage.File{}, false
	}
	if len(data) > maxImageBytes {
		response.Error(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "uploaded file exceeds the size limit", nil)
		return storage.File{}, false
	}
	return storage.File{Data: data, ContentType: header.Header.Get("Content-Type")}, true
}
