package gateway

import (
	"context"
	"fmt"
	"net/http"

	appErrors "github.com/noah-isme/learnhub-client/pkg/errors"

	"github.com/noah-isme/learnhub-client/internal/models"
)

// Login exchanges credentials for a bearer token and its user. A 401 from
// the server surfaces as UNAUTHORIZED; persistence of the result is the
// session manager's responsibility, not the gateway's.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	var resp models.LoginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/sessions", "", req, &resp); err != nil {
		if e := appErrors.FromError(err); e.Code == appErrors.ErrServerRejected.Code && e.Status == http.StatusUnauthorized {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
		return nil, err
	}
	return &resp, nil
}

// FetchProfile loads the account behind the token. Used by session restore
// to prove stored credentials still resolve to a valid profile.
func (c *Client) FetchProfile(ctx context.Context, token string, userID int64) (*models.User, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var user models.User
	path := fmt.Sprintf("/users/%d", userID)
	if err := c.do(ctx, "fetch_profile", http.MethodGet, path, token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the session server-side. Best effort: the caller
// guarantees local termination regardless of the outcome here.
func (c *Client) Logout(ctx context.Context, token string) error {
	if err := requireToken(token); err != nil {
		return err
	}
	return c.do(ctx, "logout", http.MethodDelete, "/sessions", token, nil, nil)
}
