package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/m3rciful/shopbot/internal/commerce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSource implements Source with canned responses per call.
type mockSource struct {
	products    []commerce.Product
	productsErr error

	books      []commerce.Pricebook
	bookPrices map[string][]commerce.PriceEntry
	pricesErr  error

	currencies    []commerce.Currency
	currenciesErr error

	inventories    []commerce.Inventory
	inventoriesErr error

	fileLinksErr error
}

func (m *mockSource) ListProducts(context.Context) ([]commerce.Product, error) {
	return m.products, m.productsErr
}

func (m *mockSource) ListPricebooks(context.Context) ([]commerce.Pricebook, error) {
	return m.books, nil
}

func (m *mockSource) ListBookPrices(_ context.Context, bookID string) ([]commerce.PriceEntry, error) {
	if m.pricesErr != nil {
		return nil, m.pricesErr
	}
	return m.bookPrices[bookID], nil
}

func (m *mockSource) ListCurrencies(context.Context) ([]commerce.Currency, error) {
	return m.currencies, m.currenciesErr
}

func (m *mockSource) ListInventories(context.Context) ([]commerce.Inventory, error) {
	return m.inventories, m.inventoriesErr
}

func (m *mockSource) FileLink(_ context.Context, fileID string) (string, error) {
	if m.fileLinksErr != nil {
		return "", m.fileLinksErr
	}
	return fmt.Sprintf("https://files.example/%s.png", fileID), nil
}

func baseSource() *mockSource {
	return &mockSource{
		products: []commerce.Product{
			{ID: "p1", SKU: "fish-1", Name: "Salmon", Description: "Fresh", MainImageID: "img1"},
			{ID: "p2", SKU: "fish-2", Name: "Tuna", Description: "Frozen", MainImageID: "img2"},
		},
		books: []commerce.Pricebook{{ID: "b1"}},
		bookPrices: map[string][]commerce.PriceEntry{
			"b1": {
				{SKU: "fish-1", Currencies: map[string]int64{"USD": 1050}},
				{SKU: "fish-2", Currencies: map[string]int64{"USD": 750}},
			},
		},
		currencies: []commerce.Currency{
			{Code: "USD", DecimalPlaces: 2, DecimalPoint: ".", Format: "${price}"},
		},
		inventories: []commerce.Inventory{
			{ProductID: "p1", Available: 12},
		},
	}
}

func TestLoad_BuildsOrderedCatalog(t *testing.T) {
	agg := NewAggregator(baseSource())

	cat, err := agg.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, cat.Order)

	salmon := cat.Products["p1"]
	assert.Equal(t, "Salmon", salmon.Name)
	assert.Equal(t, []string{"$10.50"}, salmon.Prices)
	assert.Equal(t, "12", salmon.OnStock)
	assert.Equal(t, "https://files.example/img1.png", salmon.ImageLink)
}

func TestLoad_MissingInventoryRecordIsUnknown(t *testing.T) {
	agg := NewAggregator(baseSource())

	cat, err := agg.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, UnknownStock, cat.Products["p2"].OnStock)
}

func TestLoad_LaterBookPatchesOnlyItsCurrencies(t *testing.T) {
	src := baseSource()
	src.currencies = append(src.currencies, commerce.Currency{
		Code: "EUR", DecimalPlaces: 2, DecimalPoint: ",", Format: "{price} €",
	})
	src.books = []commerce.Pricebook{{ID: "b1"}, {ID: "b2"}}
	src.bookPrices["b1"] = []commerce.PriceEntry{
		{SKU: "fish-1", Currencies: map[string]int64{"USD": 1050, "EUR": 950}},
		{SKU: "fish-2", Currencies: map[string]int64{"USD": 750}},
	}
	src.bookPrices["b2"] = []commerce.PriceEntry{
		// Overrides USD only; the EUR amount from b1 must survive.
		{SKU: "fish-1", Currencies: map[string]int64{"USD": 1150}},
	}
	agg := NewAggregator(src)

	cat, err := agg.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"$11.50", "9,50 €"}, cat.Products["p1"].Prices)
}

func TestLoad_MergeIsIdempotentAcrossPasses(t *testing.T) {
	src := baseSource()
	agg := NewAggregator(src)

	first, err := agg.Load(context.Background())
	require.NoError(t, err)
	second, err := agg.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Order, second.Order)
	assert.Equal(t, first.Products, second.Products)
}

func TestLoad_ProductWithoutPriceEntryFails(t *testing.T) {
	src := baseSource()
	src.bookPrices["b1"] = src.bookPrices["b1"][:1] // drop fish-2 prices
	agg := NewAggregator(src)

	cat, err := agg.Load(context.Background())

	require.ErrorIs(t, err, ErrInconsistent)
	assert.Nil(t, cat)
}

func TestLoad_ProductWithoutImageFails(t *testing.T) {
	src := baseSource()
	src.products[1].MainImageID = ""
	agg := NewAggregator(src)

	cat, err := agg.Load(context.Background())

	require.ErrorIs(t, err, ErrInconsistent)
	assert.Nil(t, cat)
}

func TestLoad_BackendFailurePropagates(t *testing.T) {
	src := baseSource()
	src.inventoriesErr = errors.New("backend down")
	agg := NewAggregator(src)

	cat, err := agg.Load(context.Background())

	require.Error(t, err)
	assert.Nil(t, cat)
}
