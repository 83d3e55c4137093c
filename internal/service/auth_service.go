package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/models"
	"github.com/noah-isme/examprep-api/internal/repository"
	"github.com/noah-isme/examprep-api/internal/security"
)

const minPasswordLength = 6

// AuthService manages accounts and sessions.
type AuthService interface {
	Signup(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error)
	Signin(ctx context.Context, payload dto.SigninRequest) (dto.AuthResponse, error)
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
	ResolveIdentity(ctx context.Context, token string) (models.User, error)
	TokenTTL() time.Duration
}

type authService struct {
	users     repository.UserRepository
	passwords security.PasswordHasher
	tokens    *security.TokenIssuer
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(users repository.UserRepository, passwords security.PasswordHasher, tokens *security.TokenIssuer, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Signup(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.UserName = strings.TrimSpace(payload.UserName)
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	payload.Role = strings.ToLower(strings.TrimSpace(payload.Role))

	if payload.Name == "" || payload.UserName == "" || payload.Email == "" || payload.Password == "" {
		return dto.AuthResponse{}, newValidationError("All fields are required")
	}
	if payload.Role == "" {
		payload.Role = models.RoleStudent
	}
	if !models.IsValidRole(payload.Role) {
		return dto.AuthResponse{}, newValidationError("Invalid role. Must be student or teacher")
	}
	if len(payload.Password) < minPasswordLength {
		return dto.AuthResponse{}, newValidationError("Password should be at least %d characters", minPasswordLength)
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	if taken, err := s.users.ExistsByEmail(ctx, payload.Email); err != nil {
		return dto.AuthResponse{}, err
	} else if taken {
		return dto.AuthResponse{}, ErrDuplicateEmail
	}
	if taken, err := s.users.ExistsByUserName(ctx, payload.UserName); err != nil {
		return dto.AuthResponse{}, err
	} else if taken {
		return dto.AuthResponse{}, ErrDuplicateUsername
	}

	hash, err := s.passwords.Hash(payload.Password)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{
		Name:         payload.Name,
		UserName:     payload.UserName,
		Email:        payload.Email,
		PasswordHash: hash,
		Role:         payload.Role,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthResponse{}, s.duplicateCause(ctx, payload.Email)
		}
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("account created")
	return s.session(user)
}

func (s *authService) Signin(ctx context.Context, payload dto.SigninRequest) (dto.AuthResponse, error) {
	payload.UserName = strings.TrimSpace(payload.UserName)
	if payload.UserName == "" || payload.Password == "" {
		return dto.AuthResponse{}, newValidationError("All fields are required")
	}

	user, err := s.users.GetByUserName(ctx, payload.UserName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := s.passwords.Verify(user.PasswordHash, payload.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	return s.session(user)
}

func (s *authService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

// ResolveIdentity verifies a session token and loads the account it names.
func (s *authService) ResolveIdentity(ctx context.Context, token string) (models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return models.User{}, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUnauthenticated
		}
		return models.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *authService) session(user models.User) (dto.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{User: dto.NewUserResponse(user), Token: token}, nil
}

func (s *authService) duplicateCause(ctx context.Context, email string) error {
	if taken, err := s.users.ExistsByEmail(ctx, email); err == nil && taken {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}
