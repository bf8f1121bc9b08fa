package commerce

import (
	"context"
	"net/http"
)

// FindCustomerByEmail scans the customer listing for an exact email match.
// It returns an empty id when no customer matches.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	var resp struct {
		Data []struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/v2/customers", &resp); err != nil {
		return "", err
	}
	for _, customer := range resp.Data {
		if customer.Email == email {
			return customer.ID, nil
		}
	}
	return "", nil
}

// CreateCustomer registers a new customer record and returns its id.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type":  "customer",
			"name":  name,
			"email": email,
		},
	}
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v2/customers", payload, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}
