package api

import (
	"context"
	"net/http"

	"github.com/jaekwang-park/listo/internal/model"
)

type userResponse struct {
	User model.User `json:"user"`
}

func (c *Client) GetUser(ctx context.Context) (model.User, error) {
	var resp userResponse
	if err := c.do(ctx, "get user info", http.MethodGet, "/user", nil, nil, &resp); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// CreateUser registers the authenticated caller with the backend. It is idempotent on the server.
func (c *Client) CreateUser(ctx context.Context) (model.User, error) {
	var resp userResponse
	if err := c.do(ctx, "create user", http.MethodPost, "/user", nil, nil, &resp); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}
