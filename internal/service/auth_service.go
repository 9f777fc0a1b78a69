package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/observability"
	"github.com/mswierczewski/socialwall/internal/repository"
	"github.com/mswierczewski/socialwall/internal/security"
)

type SignUpRequest struct {
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    string     `json:"gender"`
}

// AuthService handles registration, credential verification, sign-out, and
// account activation. Token issuance and validation live in SessionService;
// this layer is the authentication entry point in front of it.
type AuthService struct {
	users                repository.UserRepository
	verifications        repository.VerificationTokenRepository
	sessions             *SessionService
	mail                 MailSender
	logger               *slog.Logger
	baseURL              string
	verificationValidity time.Duration
	now                  func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	verifications repository.VerificationTokenRepository,
	sessions *SessionService,
	mail MailSender,
	logger *slog.Logger,
	baseURL string,
	verificationValidity time.Duration,
) *AuthService {
	return &AuthService{
		users:                users,
		verifications:        verifications,
		sessions:             sessions,
		mail:                 mail,
		logger:               logger,
		baseURL:              baseURL,
		verificationValidity: verificationValidity,
		now:                  time.Now,
	}
}

// SignUp registers a disabled account and queues the verification mail.
// Mail delivery is fire-and-forget; its outcome never fails the sign-up.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*domain.User, error) {
	usernameTaken, err := s.users.ExistsByUsername(req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	emailTaken, err := s.users.ExistsByEmail(req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if usernameTaken || emailTaken {
		observability.RecordSignUp("conflict")
		s.logger.InfoContext(ctx, "sign up rejected",
			"username_taken", usernameTaken, "email_taken", emailTaken)
		return nil, ErrUserAlreadyExists
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Enabled:      false,
		Roles:        []domain.UserRole{{Role: domain.RoleUser}},
		Profile: domain.Profile{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			BirthDate: req.BirthDate,
			Gender:    req.Gender,
		},
	}
	if err := s.users.Create(user); err != nil {
		observability.RecordSignUp("error")
		return nil, fmt.Errorf("create user: %w", err)
	}

	verification := &domain.VerificationToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.verificationValidity),
	}
	if err := s.verifications.Create(verification); err != nil {
		return nil, fmt.Errorf("create verification token: %w", err)
	}

	activationURL := fmt.Sprintf("%s/api/auth/activateAccount/%s", s.baseURL, verification.Token)
	go func() {
		if err := s.mail.SendVerificationMail(context.Background(), user.Email, user.Username, activationURL); err != nil {
			s.logger.Error("verification mail delivery failed", "user_id", user.ID, "error", err)
		}
	}()

	observability.RecordSignUp("success")
	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// SignIn verifies credentials and issues a session token bound to the
// request fingerprint. Unknown login, wrong password, and disabled accounts
// all surface as the same ErrBadCredentials; the audit log keeps them apart.
func (s *AuthService) SignIn(ctx context.Context, login, password string, fp security.Fingerprint) (string, *domain.User, error) {
	user, err := s.users.FindByUsernameOrEmail(login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordSignIn("unknown_user")
			return "", nil, ErrBadCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !security.CheckPassword(user.PasswordHash, password) {
		observability.RecordSignIn("wrong_password")
		return "", nil, ErrBadCredentials
	}
	if !user.Enabled {
		observability.RecordSignIn("account_disabled")
		return "", nil, ErrBadCredentials
	}

	token, err := s.sessions.Issue(ctx, Principal{ID: user.ID, Authorities: user.Authorities()}, fp)
	if err != nil {
		observability.RecordSignIn("error")
		return "", nil, err
	}
	observability.RecordSignIn("success")
	s.logger.InfoContext(ctx, "user signed in", "user_id", user.ID)
	return token, user, nil
}

// SignOut revokes the presented token or every token of its owner. A request
// without a token is a no-op success.
func (s *AuthService) SignOut(ctx context.Context, token string, allDevices bool) error {
	if token == "" {
		return nil
	}
	scope := "one"
	if allDevices {
		scope = "all_devices"
	}
	if err := s.sessions.SignOut(ctx, token, allDevices); err != nil {
		observability.RecordSignOut(scope, "error")
		return err
	}
	observability.RecordSignOut(scope, "success")
	return nil
}

// ActivateAccount enables the user referenced by a verification token and
// consumes the token.
func (s *AuthService) ActivateAccount(ctx context.Context, token string) error {
	verification, err := s.verifications.FindByToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationTokenNotFound) {
			return ErrVerificationTokenInvalid
		}
		return fmt.Errorf("find verification token: %w", err)
	}
	if verification.ExpiresAt.Before(s.now()) {
		_ = s.verifications.DeleteByToken(token)
		return ErrVerificationTokenInvalid
	}

	user, err := s.users.FindByID(verification.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrVerificationTokenInvalid
		}
		return fmt.Errorf("find user: %w", err)
	}
	user.Enabled = true
	if err := s.users.Update(user); err != nil {
		return fmt.Errorf("enable user: %w", err)
	}
	if err := s.verifications.DeleteByToken(token); err != nil {
		return fmt.Errorf("consume verification token: %w", err)
	}
	s.logger.InfoContext(ctx, "account activated", "user_id", user.ID)
	return nil
}
