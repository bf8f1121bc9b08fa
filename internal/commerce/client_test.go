package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shopServer fakes the commerce backend with a token endpoint and a
// configurable handler per path.
type shopServer struct {
	*httptest.Server
	tokenFetches int
	handlers     map[string]http.HandlerFunc
}

func newShopServer(t *testing.T) *shopServer {
	t.Helper()
	s := &shopServer{handlers: map[string]http.HandlerFunc{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/access_token/" {
			s.tokenFetches++
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-123",
				"expires_in":   3600,
			})
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if h, ok := s.handlers[r.URL.Path]; ok {
			h(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *shopServer) respond(path string, body string) {
	s.handlers[path] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, s *shopServer) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:      s.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestClient_TokenIsCachedAcrossCalls(t *testing.T) {
	s := newShopServer(t)
	s.respond("/pcm/products/", `{"data":[]}`)
	s.respond("/v2/currencies/", `{"data":[]}`)
	client := newTestClient(t, s)

	_, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	_, err = client.ListCurrencies(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, s.tokenFetches)
}

func TestClient_TokenRefreshAfterExpiry(t *testing.T) {
	s := newShopServer(t)
	s.respond("/pcm/products/", `{"data":[]}`)
	client := newTestClient(t, s)

	now := time.Now()
	client.tokens.now = func() time.Time { return now }

	_, err := client.ListProducts(context.Background())
	require.NoError(t, err)

	// Jump past the cached token's deadline.
	now = now.Add(2 * time.Hour)
	_, err = client.ListProducts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, s.tokenFetches)
}

func TestListProducts_ParsesWireFormat(t *testing.T) {
	s := newShopServer(t)
	s.respond("/pcm/products/", `{
		"data": [
			{
				"id": "p1",
				"attributes": {"sku": "fish-1", "name": "Salmon", "description": "Fresh"},
				"relationships": {"main_image": {"data": {"id": "img1"}}}
			}
		]
	}`)
	client := newTestClient(t, s)

	products, err := client.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, Product{
		ID:          "p1",
		SKU:         "fish-1",
		Name:        "Salmon",
		Description: "Fresh",
		MainImageID: "img1",
	}, products[0])
}

func TestListBookPrices_ParsesCurrencyAmounts(t *testing.T) {
	s := newShopServer(t)
	s.respond("/pcm/pricebooks/b1/prices", `{
		"data": [
			{"attributes": {"sku": "fish-1", "currencies": {"USD": {"amount": 1050}, "EUR": {"amount": 950}}}}
		]
	}`)
	client := newTestClient(t, s)

	entries, err := client.ListBookPrices(context.Background(), "b1")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fish-1", entries[0].SKU)
	assert.Equal(t, map[string]int64{"USD": 1050, "EUR": 950}, entries[0].Currencies)
}

func TestCartItems_CarriesFormattedTotals(t *testing.T) {
	s := newShopServer(t)
	s.respond("/v2/carts/42/items/", `{
		"data": [
			{
				"id": "line-1",
				"product_id": "p1",
				"name": "Salmon",
				"quantity": 5,
				"meta": {"display_price": {"with_tax": {
					"unit": {"formatted": "$10.50"},
					"value": {"formatted": "$52.50"}
				}}}
			}
		],
		"meta": {"display_price": {"with_tax": {"formatted": "$52.50"}}}
	}`)
	client := newTestClient(t, s)

	contents, err := client.CartItems(context.Background(), "42")

	require.NoError(t, err)
	require.Len(t, contents.Items, 1)
	assert.Equal(t, "$10.50", contents.Items[0].UnitPriceFormatted)
	assert.Equal(t, "$52.50", contents.Items[0].ValueFormatted)
	assert.Equal(t, "$52.50", contents.TotalFormatted)
}

func TestAddCartItem_SendsCartItemPayload(t *testing.T) {
	s := newShopServer(t)
	var payload map[string]map[string]any
	s.handlers["/v2/carts/42/items/"] = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusCreated)
	}
	client := newTestClient(t, s)

	err := client.AddCartItem(context.Background(), "p1", "42", 5)

	require.NoError(t, err)
	assert.Equal(t, "p1", payload["data"]["id"])
	assert.Equal(t, "cart_item", payload["data"]["type"])
	assert.Equal(t, float64(5), payload["data"]["quantity"])
}

func TestRemoveCartItem_UsesDelete(t *testing.T) {
	s := newShopServer(t)
	var method string
	s.handlers["/v2/carts/42/items/line-1"] = func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	}
	client := newTestClient(t, s)

	err := client.RemoveCartItem(context.Background(), "line-1", "42")

	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, method)
}

func TestFindCustomerByEmail_NoMatchReturnsEmptyID(t *testing.T) {
	s := newShopServer(t)
	s.respond("/v2/customers", `{"data":[{"id":"c1","email":"other@example.com"}]}`)
	client := newTestClient(t, s)

	id, err := client.FindCustomerByEmail(context.Background(), "name@example.com")

	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestCreateCustomer_ReturnsNewID(t *testing.T) {
	s := newShopServer(t)
	s.handlers["/v2/customers"] = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"cust-1"}}`))
	}
	client := newTestClient(t, s)

	id, err := client.CreateCustomer(context.Background(), "Alice", "name@example.com")

	require.NoError(t, err)
	assert.Equal(t, "cust-1", id)
}

func TestClient_NonSuccessStatusIsUnavailable(t *testing.T) {
	s := newShopServer(t)
	s.handlers["/pcm/products/"] = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
	client := newTestClient(t, s)

	_, err := client.ListProducts(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}
