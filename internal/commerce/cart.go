package commerce

import (
	"context"
	"fmt"
	"net/http"
)

type cartItemWire struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Meta        struct {
		DisplayPrice struct {
			WithTax struct {
				Unit struct {
					Formatted string `json:"formatted"`
				} `json:"unit"`
				Value struct {
					Formatted string `json:"formatted"`
				} `json:"value"`
			} `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

// CartItems fetches the raw cart lines and the backend-computed total for
// one cart. Line order is the server-returned order.
func (c *Client) CartItems(ctx context.Context, cartID string) (CartContents, error) {
	var resp struct {
		Data []cartItemWire `json:"data"`
		Meta struct {
			DisplayPrice struct {
				WithTax struct {
					Formatted string `json:"formatted"`
				} `json:"with_tax"`
			} `json:"display_price"`
		} `json:"meta"`
	}
	endpoint := fmt.Sprintf("/v2/carts/%s/items/", cartID)
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return CartContents{}, err
	}

	contents := CartContents{
		Items:          make([]CartItem, 0, len(resp.Data)),
		TotalFormatted: resp.Meta.DisplayPrice.WithTax.Formatted,
	}
	for _, item := range resp.Data {
		contents.Items = append(contents.Items, CartItem{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			Name:               item.Name,
			Description:        item.Description,
			Quantity:           item.Quantity,
			UnitPriceFormatted: item.Meta.DisplayPrice.WithTax.Unit.Formatted,
			ValueFormatted:     item.Meta.DisplayPrice.WithTax.Value.Formatted,
		})
	}
	return contents, nil
}

// AddCartItem places quantity units of a product into a cart.
func (c *Client) AddCartItem(ctx context.Context, productID, cartID string, quantity int) error {
	payload := map[string]any{
		"data": map[string]any{
			"id":       productID,
			"type":     "cart_item",
			"quantity": quantity,
		},
	}
	endpoint := fmt.Sprintf("/v2/carts/%s/items/", cartID)
	return c.doJSON(ctx, http.MethodPost, endpoint, payload, nil)
}

// RemoveCartItem deletes one line from a cart.
func (c *Client) RemoveCartItem(ctx context.Context, itemID, cartID string) error {
	endpoint := fmt.Sprintf("/v2/carts/%s/items/%s", cartID, itemID)
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}
