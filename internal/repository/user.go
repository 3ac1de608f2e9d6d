package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Payphone-Digital/accounts/internal/model"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserRepository.GetByID")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var user model.User
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		if IsNotFound(result.Error) {
			logger.DebugWithContext(ctx, "User not found").
				Uint("user_id", id).
				Duration(duration).
				Log()
		} else {
			logger.ErrorWithContext(ctx, "Failed to get user by ID").
				Uint("user_id", id).
				Duration(duration).
				Err(result.Error).
				Log()
		}
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		Uint("user_id", id).
		Duration(duration).
		Log()

	return &user, nil
}

// GetByEmail finds a user by an already normalized email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserRepository.GetByEmail")

	start := time.Now()
	var user model.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		if !IsNotFound(result.Error) {
			logger.ErrorWithContext(ctx, "Failed to get user by email").
				Duration(duration).
				Err(result.Error).
				Log()
		}
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully by email").
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return &user, nil
}

// List returns every user, newest first. Ties on created_at fall back to id.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserRepository.List")

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch users").
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, err
	}

	logger.DebugWithContext(ctx, "Users retrieved successfully").
		Int("returned_count", len(users)).
		Duration(time.Since(start)).
		Log()

	return users, nil
}

// Create inserts a user. A taken email surfaces as ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserRepository.Create")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			logger.WarnWithContext(ctx, "User email already taken").
				Duration(duration).
				Log()
			return fmt.Errorf("%w: %v", ErrDuplicateKey, result.Error)
		}
		logger.ErrorWithContext(ctx, "Failed to create user").
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created successfully").
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return nil
}

// Update writes only the given columns. Keys are column names.
func (r *UserRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserRepository.Update")

	if len(fields) == 0 {
		return nil
	}

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	duration := time.Since(start)

	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			logger.WarnWithContext(ctx, "User email already taken").
				Uint("user_id", id).
				Duration(duration).
				Log()
			return fmt.Errorf("%w: %v", ErrDuplicateKey, result.Error)
		}
		logger.ErrorWithContext(ctx, "Failed to update user").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user found to update").
			Uint("user_id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User updated successfully").
		Uint("user_id", id).
		Int("field_count", len(fields)).
		Duration(duration).
		Log()

	return nil
}

// Delete removes the user and all of its tokens in one transaction and
// returns the ids of the tokens that went with it.
func (r *UserRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "UserRepository.Delete")

	start := time.Now()
	var tokenIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PersonalAccessToken{}).Where("user_id = ?", id).Pluck("id", &tokenIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.PersonalAccessToken{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		if IsNotFound(err) {
			logger.WarnWithContext(ctx, "No user found to delete").
				Uint("user_id", id).
				Log()
		} else {
			logger.ErrorWithContext(ctx, "Failed to delete user").
				Uint("user_id", id).
				Duration(duration).
				Err(err).
				Log()
		}
		return nil, err
	}

	logger.InfoWithContext(ctx, "User deleted successfully").
		Uint("user_id", id).
		Int("revoked_tokens", len(tokenIDs)).
		Duration(duration).
		Log()

	return tokenIDs, nil
}
