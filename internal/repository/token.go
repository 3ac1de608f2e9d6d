package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/accounts/internal/model"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"gorm.io/gorm"
)

// maxReplaceAttempts bounds retries when concurrent logins race for one slot.
const maxReplaceAttempts = 3

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// ReplaceForUser evicts every token in the (user, name) slot and inserts
// token in the same transaction. It returns the ids that were evicted.
// A unique violation means another login won the race, so the whole
// transaction is retried against the new slot owner.
func (r *TokenRepository) ReplaceForUser(ctx context.Context, token *model.PersonalAccessToken) ([]uint, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "TokenRepository.ReplaceForUser")

	start := time.Now()
	var (
		evicted []uint
		err     error
	)
	for attempt := 1; attempt <= maxReplaceAttempts; attempt++ {
		evicted, err = r.replaceOnce(ctx, token)
		if err == nil || !IsUniqueViolation(err) {
			break
		}
		logger.WarnWithContext(ctx, "Token slot contended, retrying").
			Uint("user_id", token.UserID).
			String("token_name", token.Name).
			Int("attempt", attempt).
			Log()
	}
	duration := time.Since(start)

	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to replace token").
			Uint("user_id", token.UserID).
			String("token_name", token.Name).
			Duration(duration).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Token issued").
		Uint("user_id", token.UserID).
		Uint("token_id", token.ID).
		String("token_name", token.Name).
		Int("evicted_count", len(evicted)).
		Duration(duration).
		Log()

	return evicted, nil
}

func (r *TokenRepository) replaceOnce(ctx context.Context, token *model.PersonalAccessToken) ([]uint, error) {
	var evicted []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PersonalAccessToken{}).
			Where("user_id = ? AND name = ?", token.UserID, token.Name).
			Pluck("id", &evicted).Error; err != nil {
			return err
		}
		if len(evicted) > 0 {
			if err := tx.Where("id IN ?", evicted).Delete(&model.PersonalAccessToken{}).Error; err != nil {
				return err
			}
		}
		token.ID = 0
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, err
	}
	return evicted, nil
}

func (r *TokenRepository) FindByID(ctx context.Context, id uint) (*model.PersonalAccessToken, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "TokenRepository.FindByID")

	var token model.PersonalAccessToken
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&token).Error; err != nil {
		if !IsNotFound(err) {
			logger.ErrorWithContext(ctx, "Failed to get token by ID").
				Uint("token_id", id).
				Err(err).
				Log()
		}
		return nil, err
	}
	return &token, nil
}

// FindByHash looks a token up by the stored SHA-256 of its secret.
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*model.PersonalAccessToken, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "TokenRepository.FindByHash")

	var token model.PersonalAccessToken
	if err := r.db.WithContext(ctx).Where("token = ?", hash).First(&token).Error; err != nil {
		if !IsNotFound(err) {
			logger.ErrorWithContext(ctx, "Failed to get token by hash").
				Err(err).
				Log()
		}
		return nil, err
	}
	return &token, nil
}

// DeleteByID removes one token. Deleting a missing token is not an error.
func (r *TokenRepository) DeleteByID(ctx context.Context, id uint) (bool, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "TokenRepository.DeleteByID")

	start := time.Now()
	result := r.db.WithContext(ctx).Delete(&model.PersonalAccessToken{}, id)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete token").
			Uint("token_id", id).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return false, result.Error
	}

	logger.InfoWithContext(ctx, "Token deleted").
		Uint("token_id", id).
		Int64("rows_affected", result.RowsAffected).
		Duration(time.Since(start)).
		Log()

	return result.RowsAffected > 0, nil
}

// TouchLastUsed records when a token last authenticated a request.
// It reports false when the row no longer exists.
func (r *TokenRepository) TouchLastUsed(ctx context.Context, id uint, at time.Time) (bool, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "TokenRepository.TouchLastUsed")

	result := r.db.WithContext(ctx).Model(&model.PersonalAccessToken{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at)
	if result.Error != nil {
		logger.WarnWithContext(ctx, "Failed to record token usage").
			Uint("token_id", id).
			Err(result.Error).
			Log()
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountForUser returns how many tokens a user holds under name.
func (r *TokenRepository) CountForUser(ctx context.Context, userID uint, name string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PersonalAccessToken{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error
	return count, err
}
