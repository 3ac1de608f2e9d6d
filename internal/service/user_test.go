package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Payphone-Digital/accounts/internal/dto"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func strPtr(s string) *string { return &s }

func storedUser(t *testing.T, f *fixture, id uint) model.User {
	t.Helper()
	var u model.User
	require.NoError(t, f.db.First(&u, id).Error)
	return u
}

func TestCreateUser_HashesPassword(t *testing.T) {
	f := newFixture(t)
	created := createUser(t, f, "  Jane Doe ", " Jane@Example.com", "password123")

	assert.Equal(t, "Jane Doe", created.Name)
	assert.Equal(t, "jane@example.com", created.Email)

	u := storedUser(t, f, created.ID)
	assert.NotEqual(t, "password123", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("password123")))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	createUser(t, f, "Jane", "jane@example.com", "password123")

	_, err := f.user.CreateUser(context.Background(), &dto.CreateUserRequest{Name: "Other", Email: "JANE@example.com", Password: "password123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, map[string][]string{"email": {"The email has already been taken."}}, apperrors.GetErrorFields(err))
	assert.Equal(t, 422, apperrors.ToHTTPStatus(err))
}

func TestUpdateUser_OwnEmailIsNotAConflict(t *testing.T) {
	f := newFixture(t)
	jane := createUser(t, f, "Jane", "jane@example.com", "password123")

	res, err := f.user.UpdateUser(context.Background(), jane.ID, &dto.UpdateUserRequest{Email: strPtr("Jane@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", res.Email)
}

func TestUpdateUser_OtherUsersEmailConflicts(t *testing.T) {
	f := newFixture(t)
	jane := createUser(t, f, "Jane", "jane@example.com", "password123")
	createUser(t, f, "John", "john@example.com", "password123")

	_, err := f.user.UpdateUser(context.Background(), jane.ID, &dto.UpdateUserRequest{Email: strPtr("john@example.com")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Contains(t, apperrors.GetErrorFields(err), "email")
}

func TestUpdateUser_Partial(t *testing.T) {
	f := newFixture(t)
	jane := createUser(t, f, "Jane", "jane@example.com", "password123")
	before := storedUser(t, f, jane.ID)

	res, err := f.user.UpdateUser(context.Background(), jane.ID, &dto.UpdateUserRequest{Name: strPtr("Janet")})
	require.NoError(t, err)
	assert.Equal(t, "Janet", res.Name)
	assert.Equal(t, "jane@example.com", res.Email)

	after := storedUser(t, f, jane.ID)
	assert.Equal(t, before.Password, after.Password, "absent password must leave the hash untouched")

	_, err = f.user.UpdateUser(context.Background(), jane.ID, &dto.UpdateUserRequest{Password: strPtr("newpassword123")})
	require.NoError(t, err)
	rehashed := storedUser(t, f, jane.ID)
	assert.NotEqual(t, before.Password, rehashed.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(rehashed.Password), []byte("newpassword123")))
}

func TestUpdateUser_EmptyRequestReturnsUser(t *testing.T) {
	f := newFixture(t)
	jane := createUser(t, f, "Jane", "jane@example.com", "password123")

	res, err := f.user.UpdateUser(context.Background(), jane.ID, &dto.UpdateUserRequest{})
	require.NoError(t, err)
	assert.Equal(t, jane.ID, res.ID)
}

func TestUpdateUser_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.user.UpdateUser(context.Background(), 404, &dto.UpdateUserRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.user.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Equal(t, 404, apperrors.ToHTTPStatus(err))
}

func TestList_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := createUser(t, f, "A", "a@example.com", "password123")
	b := createUser(t, f, "B", "b@example.com", "password123")
	c := createUser(t, f, "C", "c@example.com", "password123")

	// pin created_at so the order does not depend on clock resolution
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", a.ID).Update("created_at", base.Add(2*time.Hour)).Error)
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", b.ID).Update("created_at", base).Error)
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", c.ID).Update("created_at", base.Add(time.Hour)).Error)

	users, err := f.user.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []uint{a.ID, c.ID, b.ID}, []uint{users[0].ID, users[1].ID, users[2].ID})
}

func TestDeleteUser_CascadesTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jane := createUser(t, f, "Jane", "jane@example.com", "password123")

	res, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	_, token, err := f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.True(t, f.cache.has(tokenCacheKey(token.ID)))

	require.NoError(t, f.user.DeleteUser(ctx, jane.ID))

	_, err = f.user.GetByID(ctx, jane.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	var remaining int64
	require.NoError(t, f.db.Model(&model.PersonalAccessToken{}).Where("user_id = ?", jane.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
	assert.False(t, f.cache.has(tokenCacheKey(token.ID)))

	_, _, err = f.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	assert.ErrorIs(t, f.user.DeleteUser(ctx, jane.ID), apperrors.ErrUserNotFound)
}

func TestCreateUser_PasswordOverBcryptLimit(t *testing.T) {
	f := newFixture(t)

	_, err := f.user.CreateUser(context.Background(), &dto.CreateUserRequest{Name: "Jane", Email: "jane@example.com", Password: strings.Repeat("a", 73)})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
	assert.Equal(t, map[string][]string{"password": {"The password field must not be greater than 72 characters."}}, apperrors.GetErrorFields(err))
	assert.Equal(t, 422, apperrors.ToHTTPStatus(err))

	var count int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateUser_PasswordOverBcryptLimit(t *testing.T) {
	f := newFixture(t)
	jane := createUser(t, f, "Jane", "jane@example.com", "password123")

	_, err := f.user.UpdateUser(context.Background(), jane.ID, &dto.UpdateUserRequest{Password: strPtr(strings.Repeat("a", 73))})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, 422, apperrors.ToHTTPStatus(err))
	assert.Contains(t, apperrors.GetErrorFields(err), "password")

	u := storedUser(t, f, jane.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("password123")))
}
