package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/loomhq/loom/internal/models"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsActive    bool   `json:"is_active"`
	IsVerified  bool   `json:"is_verified"`
	IsSuperuser bool   `json:"is_superuser"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer token. The backend's JWT login
// route takes a form-encoded body with the email in the username field.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/jwt/login", strings.NewReader(form.Encode()), false)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.responseError(resp)
	}

	var out loginResponse
	if err := decodeJSON(resp.Body, &out); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("login response contained no access token")
	}

	return out.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, payload RegisterRequest) (*models.UserProfile, error) {
	var created models.UserProfile
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", payload, &created, false); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, &profile, true); err != nil {
		return nil, err
	}
	return &profile, nil
}
