package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/dto"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/repository"
	"github.com/Payphone-Digital/accounts/pkg/clock"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// equalizer keeps unknown-email logins as slow as wrong-password ones.
func equalizer() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}

type AuthService struct {
	users  *repository.UserRepository
	tokens *repository.TokenRepository
	cache  *TokenCache
	clock  clock.Clock
	cfg    config.AuthConfig
}

func NewAuthService(users *repository.UserRepository, tokens *repository.TokenRepository, cache *TokenCache, clk clock.Clock, cfg config.AuthConfig) *AuthService {
	if cache == nil {
		cache = NewTokenCache(nil, 0)
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		cache:  cache,
		clock:  clk,
		cfg:    cfg,
	}
}

// ExpiresAt computes the expiry of a login token issued at now.
func ExpiresAt(now time.Time, rememberMe bool, cfg config.AuthConfig) time.Time {
	now = now.UTC()
	if rememberMe {
		return now.AddDate(0, 0, cfg.RememberExpiryDays)
	}
	return now.Add(time.Duration(cfg.DefaultExpiryHours) * time.Hour)
}

// VerifyCredentials returns the user owning email when password matches.
// Unknown email and wrong password fail identically.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.VerifyCredentials")

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		_ = bcrypt.CompareHashAndPassword(equalizer(), []byte(password))
		logger.InfoWithContext(ctx, "Authentication failed").
			String("reason", "unknown_email").
			Log()
		return nil, apperrors.ErrAuthenticationFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logger.WarnWithContext(ctx, "Authentication failed").
			String("reason", "password_mismatch").
			Uint("user_id", user.ID).
			Log()
		return nil, apperrors.ErrAuthenticationFailed
	}

	return user, nil
}

// IssueToken replaces the user's token in the configured slot and returns
// the plaintext once.
func (s *AuthService) IssueToken(ctx context.Context, user *model.User, rememberMe bool) (*dto.LoginResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.IssueToken")

	expiresAt := ExpiresAt(s.clock.Now(), rememberMe, s.cfg)

	secret, err := generateSecret()
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to generate token secret").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	abilities, err := json.Marshal([]string{constants.TokenAbilityAll})
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	token := &model.PersonalAccessToken{
		UserID:    user.ID,
		Name:      s.cfg.TokenName,
		Token:     hashSecret(secret),
		Abilities: datatypes.JSON(abilities),
		ExpiresAt: expiresAt,
	}

	evicted, err := s.tokens.ReplaceForUser(ctx, token)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	s.cache.Invalidate(ctx, evicted...)

	logger.InfoWithContext(ctx, "Login token issued").
		Uint("user_id", user.ID).
		Uint("token_id", token.ID).
		Bool("remember_me", rememberMe).
		Time("expires_at", expiresAt).
		Log()

	return &dto.LoginResponse{
		Token:     formatPlainText(s.cfg.TokenPrefix, token.ID, secret),
		TokenType: constants.TokenTypeBearer,
		ExpiresAt: dto.FormatExpiry(expiresAt),
		User:      dto.NewUserResponse(user),
	}, nil
}

// Login verifies the credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.IssueToken(ctx, user, req.Remember())
}

// Authenticate resolves a presented bearer value to its token and owner.
// Every rejection is ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*model.User, *model.PersonalAccessToken, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.Authenticate")

	parsed, ok := parsePlainText(s.cfg.TokenPrefix, bearer)
	if !ok {
		return nil, nil, apperrors.ErrUnauthenticated
	}

	token, err := s.lookup(ctx, parsed)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	if token.Expired(now) {
		logger.DebugWithContext(ctx, "Rejected expired token").
			Uint("token_id", token.ID).
			Log()
		return nil, nil, apperrors.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			s.cache.Invalidate(ctx, token.ID)
			return nil, nil, apperrors.ErrUnauthenticated
		}
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	// A cached copy can outlive its row, e.g. a revoke between the database
	// read and the cache fill. The row decides.
	touched, err := s.tokens.TouchLastUsed(ctx, token.ID, now)
	if err == nil && !touched {
		s.cache.Invalidate(ctx, token.ID)
		logger.DebugWithContext(ctx, "Rejected token without a stored row").
			Uint("token_id", token.ID).
			Log()
		return nil, nil, apperrors.ErrUnauthenticated
	}

	return user, token, nil
}

func (s *AuthService) lookup(ctx context.Context, parsed parsedToken) (*model.PersonalAccessToken, error) {
	hash := hashSecret(parsed.Secret)

	if !parsed.HasID {
		token, err := s.tokens.FindByHash(ctx, hash)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, apperrors.ErrUnauthenticated
			}
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		return token, nil
	}

	token, hit := s.cache.Get(ctx, parsed.ID)
	if !hit {
		var err error
		token, err = s.tokens.FindByID(ctx, parsed.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, apperrors.ErrUnauthenticated
			}
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		s.cache.Put(ctx, token, s.clock.Now())
	}

	if !hashesEqual(token.Token, hash) {
		return nil, apperrors.ErrUnauthenticated
	}
	return token, nil
}

// Revoke deletes exactly the given token.
func (s *AuthService) Revoke(ctx context.Context, token *model.PersonalAccessToken) error {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.Revoke")

	if token == nil {
		return apperrors.ErrUnauthenticated
	}
	if _, err := s.tokens.DeleteByID(ctx, token.ID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	s.cache.Invalidate(ctx, token.ID)

	logger.InfoWithContext(ctx, "Token revoked").
		Uint("token_id", token.ID).
		Uint("user_id", token.UserID).
		Log()
	return nil
}

// NormalizeEmail is applied on every write and lookup of an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
