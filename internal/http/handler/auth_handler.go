package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mswierczewski/socialwall/internal/http/middleware"
	"github.com/mswierczewski/socialwall/internal/http/response"
	"github.com/mswierczewski/socialwall/internal/observability"
	"github.com/mswierczewski/socialwall/internal/security"
	"github.com/mswierczewski/socialwall/internal/service"
)

type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

func NewAuthHandler(auth *service.AuthService, users *service.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

type signInRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type signOutRequest struct {
	OnAllDevices bool `json:"onAllDevices"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return
	}
	if req.Username == "" || req.Password == "" || req.Email == "" {
		response.Error(w, r, http.StatusBadRequest, "MISSING_FIELDS", "username, password and email are required", nil)
		return
	}

	user, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			response.Error(w, r, http.StatusConflict, "USER_EXISTS", "username or email already taken", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not complete sign up", nil)
		return
	}
	observability.Audit(r, "user_signed_up", "user_id", user.ID)
	response.JSON(w, r, http.StatusCreated, map[string]string{"id": user.ID, "username": user.Username})
}

// SignIn verifies credentials and returns the session token both in the
// Authorization response header and in the body. Every credential failure is
// the same 401.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed request body", nil)
		return
	}

	fp := security.FingerprintFromRequest(r)
	token, user, err := h.auth.SignIn(r.Context(), req.Login, req.Password, fp)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "bad credentials", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not complete sign in", nil)
		return
	}
	observability.Audit(r, "user_signed_in", "user_id", user.ID)
	w.Header().Set(service.AuthorizationHeader, service.AuthorizationPrefix+token)
	response.JSON(w, r, http.StatusOK, map[string]string{"token": token, "user_id": user.ID})
}

// SignOut revokes the presented token, or every token of the caller when the
// body carries onAllDevices. Requests without a token succeed as a no-op.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	var req signOutRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	token, _ := middleware.TokenFromContext(r.Context())
	if err := h.auth.SignOut(r.Context(), token, req.OnAllDevices); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not complete sign out", nil)
		return
	}
	observability.Audit(r, "user_signed_out", "all_devices", req.OnAllDevices)
	response.JSON(w, r, http.StatusOK, map[string]bool{"signed_out": true})
}

func (h *AuthHandler) ActivateAccount(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := h.auth.ActivateAccount(r.Context(), token); err != nil {
		if errors.Is(err, service.ErrVerificationTokenInvalid) {
			response.Error(w, r, http.StatusNotFound, "INVALID_TOKEN", "verification token is invalid or expired", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not activate account", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"activated": true})
}

func (h *AuthHandler) ExistsByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	exists, err := h.users.ExistsByUsername(r.Context(), username)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not check username", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"exists": exists})
}
