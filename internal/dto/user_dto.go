package dto

import (
	"time"

	"github.com/noah-isme/examprep-api/internal/models"
)

// SignupRequest describes the payload for creating an account.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	UserName string `json:"userName" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher"`
}

// SigninRequest carries the credentials used to open a session.
type SigninRequest struct {
	UserName string `json:"userName" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public representation of an account. The password hash is never included.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	UserName  string    `json:"userName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthResponse is returned after signup and signin.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// UserSummary is the reduced user shape attached to exams and results.
type UserSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	UserName string `json:"userName"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		UserName:  user.UserName,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// NewUserSummary returns nil when the referenced user could not be loaded.
func NewUserSummary(user models.User) *UserSummary {
	if user.ID == 0 {
		return nil
	}
	return &UserSummary{ID: user.ID, Name: user.Name, UserName: user.UserName}
}
