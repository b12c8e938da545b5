// Package client is a thin HTTP client for the car rental API. Every call
// returns the raw Response so callers can inspect status codes.
package client

type Client struct {
	Auth    *AuthClient
	Cars    *CarClient
	Rentals *RentalClient
	Reviews *ReviewClient

	http *HttpClient
}

func NewClient(baseURL string) *Client {
	return newClient(NewHttpClient(baseURL))
}

func newClient(h *HttpClient) *Client {
	return &Client{
		Auth:    &AuthClient{httpClient: h},
		Cars:    &CarClient{httpClient: h},
		Rentals: &RentalClient{httpClient: h},
		Reviews: &ReviewClient{httpClient: h},
		http:    h,
	}
}

// As returns a client that authenticates every request with token.
func (c *Client) As(token string) *Client {
	return newClient(c.http.WithToken(token))
}

func (c *Client) HTTP() *HttpClient {
	return c.http
}
