package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/oauth2/v2"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	ErrGoogleExchangeFailed = errors.New("google code exchange failed")
	ErrGoogleUserInfoFailed = errors.New("google user info fetch failed")
)

// GoogleOAuthProvider exchanges authorization codes for provider tokens and
// resolves the provider-side identity of the user.
type GoogleOAuthProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client
}

// NewGoogleOAuthProvider creates a provider client for the given OAuth
// application credentials.
func NewGoogleOAuthProvider(clientID, clientSecret, redirectURL string) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{},
	}
}

// LoginURL builds the URL that sends the user to Google's consent page.
// The state parameter is echoed back on the callback for CSRF protection.
func (p *GoogleOAuthProvider) LoginURL(state string) string {
	v := url.Values{}
	v.Set("client_id", p.clientID)
	v.Set("redirect_uri", p.redirectURL)
	v.Set("response_type", "code")
	v.Set("scope", "email profile")
	v.Set("access_type", "offline")
	if state != "" {
		v.Set("state", state)
	}

	return googleAuthURL + "?" + v.Encode()
}

// ExchangeCode trades an authorization code for a provider access token.
func (p *GoogleOAuthProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", p.redirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrGoogleExchangeFailed
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", ErrGoogleExchangeFailed
	}
	if body.AccessToken == "" {
		return "", ErrGoogleExchangeFailed
	}

	return body.AccessToken, nil
}

// GetUserInfo fetches the provider identity for the given access token.
func (p *GoogleOAuthProvider) GetUserInfo(ctx context.Context, accessToken string) (*oauth2.Userinfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrGoogleUserInfoFailed
	}

	var userInfo oauth2.Userinfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, ErrGoogleUserInfoFailed
	}

	return &userInfo, nil
}
