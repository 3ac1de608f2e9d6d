package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Payphone-Digital/accounts/internal/dto"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/repository"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/validation"
	"golang.org/x/crypto/bcrypt"
)

var errEmailTaken = errors.New("email already exists")

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

type UserService struct {
	repoUser   *repository.UserRepository
	tokenCache *TokenCache
}

func NewUserService(repo *repository.UserRepository, tokenCache *TokenCache) *UserService {
	if tokenCache == nil {
		tokenCache = NewTokenCache(nil, 0)
	}
	return &UserService{repoUser: repo, tokenCache: tokenCache}
}

// List returns every user, newest first
func (s *UserService) List(ctx context.Context) ([]dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UserService.List")

	users, err := s.repoUser.List(ctx)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list users").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return dto.NewUserResponses(users), nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UserService.GetByID")

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	response := dto.NewUserResponse(user)
	return &response, nil
}

// CreateUser creates a new user with hashed password
func (s *UserService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UserService.CreateUser")

	email := NormalizeEmail(req.Email)
	if err := s.validateEmail(ctx, email, nil); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hashPassword(req.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, passwordTooLongError(err)
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to hash password").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashedPassword,
	}

	if err := s.repoUser.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, emailTakenError()
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User created successfully").
		Uint("user_id", user.ID).
		Log()

	response := dto.NewUserResponse(user)
	return &response, nil
}

// UpdateUser applies a partial update. Absent fields are left untouched and
// the password is rehashed only when supplied.
func (s *UserService) UpdateUser(ctx context.Context, id uint, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UserService.UpdateUser")

	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{}, 3)
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if err := s.validateEmail(ctx, email, &id); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if req.Password != nil {
		hashedPassword, err := s.hashPassword(*req.Password)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, passwordTooLongError(err)
		}
		if err != nil {
			logger.ErrorWithContext(ctx, "Failed to hash password").
				Uint("user_id", id).
				Err(err).
				Log()
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		fields["password"] = hashedPassword
	}

	if err := s.repoUser.Update(ctx, id, fields); err != nil {
		switch {
		case repository.IsUniqueViolation(err):
			return nil, emailTakenError()
		case repository.IsNotFound(err):
			return nil, apperrors.ErrUserNotFound
		default:
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	updatedUser, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "User updated successfully").
		Uint("user_id", id).
		Bool("password_changed", req.Password != nil).
		Log()

	response := dto.NewUserResponse(updatedUser)
	return &response, nil
}

// DeleteUser removes the user permanently together with its tokens
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "service", "UserService.DeleteUser")

	tokenIDs, err := s.repoUser.Delete(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	s.tokenCache.Invalidate(ctx, tokenIDs...)

	logger.InfoWithContext(ctx, "User deleted successfully").
		Uint("user_id", id).
		Int("revoked_tokens", len(tokenIDs)).
		Log()

	return nil
}

func (s *UserService) find(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repoUser.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return user, nil
}

// passwordTooLongError reports a password past bcrypt's byte limit as a
// field error rather than a server fault.
func passwordTooLongError(err error) error {
	limit := strconv.Itoa(maxPasswordBytes)
	return apperrors.WrapError(apperrors.NewValidationError("password", validation.Message("password", "bytesmax", limit)), err)
}

// hashPassword hashes password using bcrypt
func (s *UserService) hashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// validateEmail checks the normalized email is not held by another user.
// The unique index still has the final say under concurrent writes.
func (s *UserService) validateEmail(ctx context.Context, email string, excludeID *uint) error {
	existingUser, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, fmt.Errorf("failed to check email availability: %w", err))
	}

	if excludeID != nil && existingUser.ID == *excludeID {
		return nil
	}

	logger.WarnWithContext(ctx, "Email validation failed").
		Uint("existing_user_id", existingUser.ID).
		Log()
	return emailTakenError()
}

func emailTakenError() error {
	return apperrors.WrapError(
		apperrors.NewValidationError("email", validation.Message("email", "unique", "")),
		errEmailTaken,
	)
}
