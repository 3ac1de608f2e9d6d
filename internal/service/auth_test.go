package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Payphone-Digital/accounts/internal/dto"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func createUser(t *testing.T, f *fixture, name, email, password string) *dto.UserResponse {
	t.Helper()
	u, err := f.user.CreateUser(context.Background(), &dto.CreateUserRequest{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return u
}

func TestExpiresAt(t *testing.T) {
	cfg := testAuthConfig()

	short := ExpiresAt(testNow, false, cfg)
	long := ExpiresAt(testNow, true, cfg)

	assert.Equal(t, testNow.Add(2*time.Hour), short)
	assert.Equal(t, testNow.AddDate(0, 0, 30), long)
	assert.True(t, long.After(short))
}

func TestLogin_IssuesUsableToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := createUser(t, f, "Jane", "jane@example.com", "password123")

	res, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, "2024-05-01T14:00:00Z", res.ExpiresAt)
	assert.Equal(t, created.ID, res.User.ID)
	assert.Equal(t, "jane@example.com", res.User.Email)

	user, token, err := f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, "auth_token", token.Name)

	var stored model.PersonalAccessToken
	require.NoError(t, f.db.First(&stored, token.ID).Error)
	assert.NotContains(t, res.Token, stored.Token, "only the hash may be persisted")
	assert.JSONEq(t, `["*"]`, string(stored.Abilities))
	require.NotNil(t, stored.LastUsedAt)
}

func TestLogin_RememberMeUsesDays(t *testing.T) {
	f := newFixture(t)
	createUser(t, f, "Jane", "jane@example.com", "password123")

	res, err := f.auth.Login(context.Background(), &dto.LoginRequest{
		Email: "jane@example.com", Password: "password123", RememberMe: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-31T12:00:00Z", res.ExpiresAt)
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	createUser(t, f, "Jane", "Jane@Example.com", "password123")

	_, err := f.auth.Login(context.Background(), &dto.LoginRequest{Email: " JANE@example.COM ", Password: "password123"})
	assert.NoError(t, err)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createUser(t, f, "Jane", "jane@example.com", "password123")

	_, wrongPassword := f.auth.Login(ctx, &dto.LoginRequest{Email: "jane@example.com", Password: "nope-nope"})
	_, unknownEmail := f.auth.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "password123"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.ErrorIs(t, wrongPassword, apperrors.ErrAuthenticationFailed)
	assert.ErrorIs(t, unknownEmail, apperrors.ErrAuthenticationFailed)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, apperrors.ToHTTPStatus(wrongPassword), apperrors.ToHTTPStatus(unknownEmail))
}

func TestLogin_RepeatedLoginKeepsOneTokenPerSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := createUser(t, f, "Jane", "jane@example.com", "password123")
	req := &dto.LoginRequest{Email: "jane@example.com", Password: "password123"}

	first, err := f.auth.Login(ctx, req)
	require.NoError(t, err)
	_, _, err = f.auth.Authenticate(ctx, first.Token)
	require.NoError(t, err, "warms the cache for the first token")

	second, err := f.auth.Login(ctx, req)
	require.NoError(t, err)
	third, err := f.auth.Login(ctx, req)
	require.NoError(t, err)

	count, err := f.tokens.CountForUser(ctx, created.ID, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, _, err = f.auth.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, _, err = f.auth.Authenticate(ctx, second.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, _, err = f.auth.Authenticate(ctx, third.Token)
	assert.NoError(t, err)
}

func TestAuthenticate_RejectsExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createUser(t, f, "Jane", "jane@example.com", "password123")

	res, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	f.clock.Advance(2*time.Hour - time.Second)
	_, _, err = f.auth.Authenticate(ctx, res.Token)
	assert.NoError(t, err)

	f.clock.Advance(time.Second)
	_, _, err = f.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAuthenticate_RejectsGarbage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createUser(t, f, "Jane", "jane@example.com", "password123")
	res, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	for _, bearer := range []string{"", "garbage", "999|whatever", res.Token + "x", "abc|def"} {
		_, _, err := f.auth.Authenticate(ctx, bearer)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated, bearer)
	}
}

func TestAuthenticate_AcceptsBareSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createUser(t, f, "Jane", "jane@example.com", "password123")
	res, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	parsed, ok := parsePlainText("", res.Token)
	require.True(t, ok)

	_, _, err = f.auth.Authenticate(ctx, parsed.Secret)
	assert.NoError(t, err)
}

func TestAuthenticate_HonoursTokenPrefix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := testAuthConfig()
	cfg.TokenPrefix = "acc_"
	auth := NewAuthService(f.users, f.tokens, nil, f.clock, cfg)
	createUser(t, f, "Jane", "jane@example.com", "password123")

	res, err := auth.Login(ctx, &dto.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Regexp(t, `^acc_\d+\|[A-Za-z0-9]{40}$`, res.Token)

	_, _, err = auth.Authenticate(ctx, res.Token)
	assert.NoError(t, err)
}

func TestRevoke_DeletesOnlyPresentedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jane := createUser(t, f, "Jane", "jane@example.com", "password123")
	createUser(t, f, "John", "john@example.com", "password123")

	janeLogin, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	johnLogin, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "john@example.com", Password: "password123"})
	require.NoError(t, err)

	other := &model.PersonalAccessToken{UserID: jane.ID, Name: "cli", Token: hashSecret("cli-secret"), ExpiresAt: testNow.Add(time.Hour)}
	_, err = f.tokens.ReplaceForUser(ctx, other)
	require.NoError(t, err)

	_, token, err := f.auth.Authenticate(ctx, janeLogin.Token)
	require.NoError(t, err)
	require.True(t, f.cache.has(tokenCacheKey(token.ID)))

	require.NoError(t, f.auth.Revoke(ctx, token))
	assert.False(t, f.cache.has(tokenCacheKey(token.ID)))

	_, _, err = f.auth.Authenticate(ctx, janeLogin.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, _, err = f.auth.Authenticate(ctx, johnLogin.Token)
	assert.NoError(t, err)
	_, _, err = f.auth.Authenticate(ctx, formatPlainText("", other.ID, "cli-secret"))
	assert.NoError(t, err)
}

func TestAuthenticate_RevokeDuringCacheFillStaysRevoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createUser(t, f, "Jane", "jane@example.com", "password123")

	login, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	parsed, ok := parsePlainText("", login.Token)
	require.True(t, ok)
	token, err := f.tokens.FindByID(ctx, parsed.ID)
	require.NoError(t, err)

	// The row is read, then revoked, then the stale copy reaches the cache.
	f.cache.beforeSet = func() {
		require.NoError(t, f.auth.Revoke(ctx, token))
	}

	_, _, err = f.auth.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.False(t, f.cache.has(tokenCacheKey(token.ID)))

	_, _, err = f.auth.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAuthenticate_FailedInvalidateDoesNotKeepTokenAlive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createUser(t, f, "Jane", "jane@example.com", "password123")

	login, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	_, token, err := f.auth.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	require.True(t, f.cache.has(tokenCacheKey(token.ID)))

	f.cache.delErr = errors.New("connection reset")
	require.NoError(t, f.auth.Revoke(ctx, token))
	require.True(t, f.cache.has(tokenCacheKey(token.ID)))

	_, _, err = f.auth.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
