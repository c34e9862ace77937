package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ruphautomations/ruphctl/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	UserProfile struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"userProfile"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates with email and password and persists the resulting
// session before returning it.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	var res authResponse
	if _, err := c.call(ctx, "login", http.MethodPost, "/auth/log-in", loginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	return c.saveSession(res)
}

// Register creates an account and persists the resulting session, same
// envelope shape as Login.
func (c *Client) Register(ctx context.Context, name, email, password string) (*domain.Session, error) {
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	var res authResponse
	if _, err := c.call(ctx, "register", http.MethodPost, "/auth/register", registerRequest{Name: name, Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	return c.saveSession(res)
}

func (c *Client) saveSession(res authResponse) (*domain.Session, error) {
	sess := &domain.Session{
		UserID:       res.UserProfile.ID,
		Name:         res.UserProfile.Name,
		Email:        res.UserProfile.Email,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}
	if !sess.Complete() {
		return nil, fmt.Errorf("auth response missing profile or tokens")
	}
	if err := c.store.Save(sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil
}
