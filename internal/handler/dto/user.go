package dto

import (
	"time"

	"github.com/shopwatch/shopwatch/internal/model"
)

// SignupRequest represents the request body for account creation.
type SignupRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Admin      bool   `json:"admin,omitempty"`
	AdminToken string `json:"admin_token,omitempty"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse carries the session token issued on login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
