package payload

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries either a token pair or, when a second factor is
// required, the user id to present together with a TOTP code.
type LoginResponse struct {
	AccessToken       string `json:"access_token,omitempty"`
	RefreshToken      string `json:"refresh_token,omitempty"`
	TwoFactorRequired bool   `json:"two_factor_required,omitempty"`
	UserID            string `json:"user_id,omitempty"`
}

type TwoFactorLoginRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Code   string `json:"code"    validate:"required,len=6,numeric"`
}

type TokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenRevokeRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenRevokeResponse struct {
	Revoked bool `json:"revoked"`
}

type RevokeAllResponse struct {
	RevokedCount int64 `json:"revoked_count"`
}
