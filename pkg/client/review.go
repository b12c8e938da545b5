package client

import (
	"context"
	"fmt"
	"net/url"

	"carrental/pkg/model"
)

type ReviewClient struct {
	httpClient *HttpClient
}

func (c *ReviewClient) Create(ctx context.Context, req *model.ReviewCreate) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/reviews", req)
}

func (c *ReviewClient) GetAll(ctx context.Context, page, limit int) (*Response, error) {
	return c.httpClient.GET(ctx, fmt.Sprintf("/api/v1/reviews?page=%d&limit=%d", page, limit))
}

func (c *ReviewClient) ListByCar(ctx context.Context, carID string, page, limit int) (*Response, error) {
	path := fmt.Sprintf("/api/v1/reviews/car/%s?page=%d&limit=%d", url.PathEscape(carID), page, limit)
	return c.httpClient.GET(ctx, path)
}

func (c *ReviewClient) GetMine(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/reviews/user")
}

func (c *ReviewClient) Eligibility(ctx context.Context, carID string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/reviews/eligibility/"+url.PathEscape(carID))
}

func (c *ReviewClient) Update(ctx context.Context, id string, update *model.ReviewUpdate) (*Response, error) {
	return c.httpClient.PUT(ctx, "/api/v1/reviews/id/"+url.PathEscape(id), update)
}

func (c *ReviewClient) Delete(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, "/api/v1/reviews/id/"+url.PathEscape(id))
}
