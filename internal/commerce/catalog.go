package commerce

import (
	"context"
	"fmt"
)

// ListProducts returns the product listing in backend order.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var resp struct {
		Data []struct {
			ID         string `json:"id"`
			Attributes struct {
				SKU         string `json:"sku"`
				Name        string `json:"name"`
				Description string `json:"description"`
			} `json:"attributes"`
			Relationships struct {
				MainImage struct {
					Data struct {
						ID string `json:"id"`
					} `json:"data"`
				} `json:"main_image"`
			} `json:"relationships"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/pcm/products/", &resp); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(resp.Data))
	for _, p := range resp.Data {
		products = append(products, Product{
			ID:          p.ID,
			SKU:         p.Attributes.SKU,
			Name:        p.Attributes.Name,
			Description: p.Attributes.Description,
			MainImageID: p.Relationships.MainImage.Data.ID,
		})
	}
	return products, nil
}

// ListPricebooks returns all price books.
func (c *Client) ListPricebooks(ctx context.Context) ([]Pricebook, error) {
	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/pcm/pricebooks/", &resp); err != nil {
		return nil, err
	}

	books := make([]Pricebook, 0, len(resp.Data))
	for _, b := range resp.Data {
		books = append(books, Pricebook{ID: b.ID})
	}
	return books, nil
}

// ListBookPrices returns the per-sku price entries of one price book.
func (c *Client) ListBookPrices(ctx context.Context, bookID string) ([]PriceEntry, error) {
	var resp struct {
		Data []struct {
			Attributes struct {
				SKU        string `json:"sku"`
				Currencies map[string]struct {
					Amount int64 `json:"amount"`
				} `json:"currencies"`
			} `json:"attributes"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("/pcm/pricebooks/%s/prices", bookID)
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	entries := make([]PriceEntry, 0, len(resp.Data))
	for _, e := range resp.Data {
		currencies := make(map[string]int64, len(e.Attributes.Currencies))
		for code, price := range e.Attributes.Currencies {
			currencies[code] = price.Amount
		}
		entries = append(entries, PriceEntry{
			SKU:        e.Attributes.SKU,
			Currencies: currencies,
		})
	}
	return entries, nil
}

// ListCurrencies returns the currency reference set.
func (c *Client) ListCurrencies(ctx context.Context) ([]Currency, error) {
	var resp struct {
		Data []struct {
			Code          string `json:"code"`
			DecimalPlaces int    `json:"decimal_places"`
			DecimalPoint  string `json:"decimal_point"`
			Format        string `json:"format"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/v2/currencies/", &resp); err != nil {
		return nil, err
	}

	currencies := make([]Currency, 0, len(resp.Data))
	for _, cur := range resp.Data {
		currencies = append(currencies, Currency{
			Code:          cur.Code,
			DecimalPlaces: cur.DecimalPlaces,
			DecimalPoint:  cur.DecimalPoint,
			Format:        cur.Format,
		})
	}
	return currencies, nil
}

// ListInventories returns the full stock listing.
func (c *Client) ListInventories(ctx context.Context) ([]Inventory, error) {
	var resp struct {
		Data []struct {
			ID        string `json:"id"`
			Available int64  `json:"available"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/v2/inventories/", &resp); err != nil {
		return nil, err
	}

	inventories := make([]Inventory, 0, len(resp.Data))
	for _, inv := range resp.Data {
		inventories = append(inventories, Inventory{ProductID: inv.ID, Available: inv.Available})
	}
	return inventories, nil
}

// FileLink resolves a stored file id to its public URL.
func (c *Client) FileLink(ctx context.Context, fileID string) (string, error) {
	var resp struct {
		Data struct {
			Link struct {
				Href string `json:"href"`
			} `json:"link"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("/v2/files/%s", fileID)
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", err
	}
	return resp.Data.Link.Href, nil
}
