package payload

import (
	"time"

	"github.com/natthaphols/identity-api/services/identity-service/internal/model"
)

type UserResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	IsActive         bool      `json:"is_active"`
	IsVerified       bool      `json:"is_verified"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewUserResponse maps a user onto its public representation. Secrets and
// hashes never leave the service.
func NewUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:               user.ID.Hex(),
		Email:            user.Email,
		IsActive:         user.IsActive,
		IsVerified:       user.IsVerified,
		TwoFactorEnabled: user.TwoFactorEnabled,
		CreatedAt:        user.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8"`
}
