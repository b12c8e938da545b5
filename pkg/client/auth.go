package client

import (
	"context"
	"fmt"
	"net/http"

	"carrental/pkg/model"
)

type AuthClient struct {
	httpClient *HttpClient
}

func (c *AuthClient) Signup(ctx context.Context, req *model.Signup) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/auth/signup", req)
}

func (c *AuthClient) Signin(ctx context.Context, email, password string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/auth/signin", &model.Signin{Email: email, Password: password})
}

// Token signs in and returns the bearer token.
func (c *AuthClient) Token(ctx context.Context, email, password string) (string, error) {
	resp, err := c.Signin(ctx, email, password)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signin failed with status %d: %s", resp.StatusCode, GetErrorMessage(resp))
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := resp.DecodeJSON(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}
