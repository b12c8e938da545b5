package client

import (
	"context"
	"net/url"

	"carrental/pkg/model"
)

type RentalClient struct {
	httpClient *HttpClient
}

func rentalPath(id string) string {
	return "/api/v1/rentals/id/" + url.PathEscape(id)
}

func (c *RentalClient) GetAll(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/rentals")
}

func (c *RentalClient) GetMine(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/rentals/user")
}

func (c *RentalClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, rentalPath(id))
}

func (c *RentalClient) Update(ctx context.Context, id string, update *model.RentalUpdate) (*Response, error) {
	return c.httpClient.PUT(ctx, rentalPath(id), update)
}

func (c *RentalClient) Cancel(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, rentalPath(id))
}
