package dto

import (
	"time"

	"github.com/Payphone-Digital/accounts/internal/model"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,filled,max=255"`
	Email    string `json:"email" binding:"required,filled,email,max=255"`
	Password string `json:"password" binding:"required,filled,min=8,bytesmax=72"`
}

// UpdateUserRequest carries a partial update; nil means the field was absent.
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,filled,max=255"`
	Email    *string `json:"email" binding:"omitempty,filled,email,max=255"`
	Password *string `json:"password" binding:"omitempty,filled,min=8,bytesmax=72"`
}

// Empty reports whether no field was supplied.
func (r *UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Password == nil
}

// UserResponse is the public representation of a user. The password never leaves the store.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC(),
		UpdatedAt: user.UpdatedAt.UTC(),
	}
}

func NewUserResponses(users []model.User) []UserResponse {
	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, NewUserResponse(&users[i]))
	}
	return res
}
