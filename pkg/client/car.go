package client

import (
	"context"
	"net/url"

	"carrental/pkg/model"
)

type CarClient struct {
	httpClient *HttpClient
}

func carPath(id string) string {
	return "/api/v1/cars/id/" + url.PathEscape(id)
}

func (c *CarClient) GetAll(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/cars")
}

func (c *CarClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, carPath(id))
}

func (c *CarClient) Create(ctx context.Context, car *model.Car) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/cars", car)
}

func (c *CarClient) Update(ctx context.Context, id string, update *model.CarUpdate) (*Response, error) {
	return c.httpClient.PUT(ctx, carPath(id), update)
}

func (c *CarClient) Delete(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, carPath(id))
}

func (c *CarClient) Rent(ctx context.Context, id string, req *model.RentRequest) (*Response, error) {
	return c.httpClient.POST(ctx, carPath(id)+"/rent", req)
}

func (c *CarClient) Availability(ctx context.Context, id, startDate, endDate string) (*Response, error) {
	return c.httpClient.POST(ctx, carPath(id)+"/availability", &model.AvailabilityRequest{
		StartDate: startDate,
		EndDate:   endDate,
	})
}
