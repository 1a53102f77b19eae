package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/shared"
	"github.com/gymcore/gymcore/internal/users"
)

// ErrTrainerNotSelfAssignable rejects onboarding as a trainer; trainers are
// appointed by gym owners.
var ErrTrainerNotSelfAssignable = errors.New("trainer role is assigned by a gym owner")

// Service wraps authentication business rules.
type Service struct {
	users  users.Repository
	logger *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo users.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: repo, logger: logger}
}

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	FullName     string
	MobileNumber string
	Username     string
	Password     string
	Email        *string
	Gender       *string
	AgeOrDOB     *string
	City         *string
}

// Register creates an account without a role. A mobile number that is
// already on file is rejected, including accounts an owner enrolled without
// a password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*users.User, error) {
	in.MobileNumber = users.NormalizeMobile(in.MobileNumber)
	if in.Username == "" {
		in.Username = in.MobileNumber
	}

	existing, err := s.users.FindByMobile(ctx, in.MobileNumber)
	switch {
	case err == nil:
		s.event("register", "mobile_taken", slog.Int64("user_id", existing.ID))
		return nil, users.ErrMobileTaken
	case errors.Is(err, users.ErrNotFound):
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if in.City != nil {
		city := users.NormalizeCity(*in.City)
		in.City = &city
	}
	user, err := s.users.Create(ctx, users.NewUser{
		FullName:     in.FullName,
		MobileNumber: in.MobileNumber,
		Username:     in.Username,
		Email:        in.Email,
		Gender:       in.Gender,
		AgeOrDOB:     in.AgeOrDOB,
		City:         in.City,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, users.ErrMobileTaken) || errors.Is(err, users.ErrUsernameTaken) {
			s.event("register", "duplicate")
		}
		return nil, err
	}
	s.event("register", "created", slog.Int64("user_id", user.ID))
	return user, nil
}

// Authenticate validates mobile/password credentials. Every failure yields
// shared.ErrInvalidCredentials; the reason is only logged.
func (s *Service) Authenticate(ctx context.Context, mobile, password string) (*users.User, error) {
	user, err := s.users.FindByMobile(ctx, users.NormalizeMobile(mobile))
	if err != nil {
		_, _ = VerifyPassword(dummyHash, password)
		if errors.Is(err, users.ErrNotFound) {
			s.event("login_failed", "unknown_user")
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.CanLogin() {
		_, _ = VerifyPassword(dummyHash, password)
		s.event("login_failed", "no_password", slog.Int64("user_id", user.ID))
		return nil, shared.ErrInvalidCredentials
	}
	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Error("verify password", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, shared.ErrInvalidCredentials
	}
	if !ok {
		s.event("login_failed", "bad_password", slog.Int64("user_id", user.ID))
		return nil, shared.ErrInvalidCredentials
	}
	s.event("login", "success", slog.Int64("user_id", user.ID))
	return user, nil
}

// CurrentUser loads the user behind a session.
func (s *Service) CurrentUser(ctx context.Context, id int64) (*users.User, error) {
	if id == 0 {
		return nil, httpx.ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, httpx.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// ChooseRole completes onboarding. The role can be set once; repeating the
// same choice is a no-op.
func (s *Service) ChooseRole(ctx context.Context, id int64, role users.Role) (*users.User, error) {
	switch role {
	case users.RoleOwner, users.RoleMember:
	case users.RoleTrainer:
		return nil, ErrTrainerNotSelfAssignable
	default:
		return nil, httpx.Invalid("role", "must be one of owner, member")
	}
	user, err := s.users.AssignRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, users.ErrRoleAlreadySet) {
			s.event("role_change_denied", "already_set", slog.Int64("user_id", id))
		}
		return nil, err
	}
	s.event("role_set", string(role), slog.Int64("user_id", id))
	return user, nil
}

func (s *Service) event(event, reason string, attrs ...any) {
	args := append([]any{slog.String("event", event), slog.String("reason", reason)}, attrs...)
	s.logger.Info("auth_event", args...)
}
