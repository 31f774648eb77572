// Package types holds authentication types shared with other services.
package types

// Tokens is an access/refresh token pair returned on successful
// authentication.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
