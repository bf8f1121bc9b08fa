package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/shopbot/internal/commerce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBackend implements Backend with a canned cart and call recording.
type mockBackend struct {
	contents commerce.CartContents
	err      error

	addCalls    int
	addProduct  string
	addQuantity int

	removeCalls int
	removedItem string
}

func (m *mockBackend) CartItems(context.Context, string) (commerce.CartContents, error) {
	return m.contents, m.err
}

func (m *mockBackend) AddCartItem(_ context.Context, productID, _ string, quantity int) error {
	m.addCalls++
	m.addProduct = productID
	m.addQuantity = quantity
	return m.err
}

func (m *mockBackend) RemoveCartItem(_ context.Context, itemID, _ string) error {
	m.removeCalls++
	m.removedItem = itemID
	return m.err
}

func TestSummary_CarriesFormattedPricesVerbatim(t *testing.T) {
	backend := &mockBackend{
		contents: commerce.CartContents{
			Items: []commerce.CartItem{
				{
					ID:                 "line-1",
					ProductID:          "p1",
					Name:               "Salmon",
					Description:        "Fresh",
					Quantity:           5,
					UnitPriceFormatted: "$10.50",
					ValueFormatted:     "$52.50",
				},
			},
			TotalFormatted: "$52.50",
		},
	}
	svc := NewService(backend)

	summary, err := svc.Summary(context.Background(), "42")

	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "$10.50", summary.Items[0].UnitPrice)
	assert.Equal(t, "$52.50", summary.Items[0].Value)
	assert.Equal(t, "$52.50", summary.Total)
	assert.False(t, summary.Empty())
}

func TestSummary_EmptyCart(t *testing.T) {
	svc := NewService(&mockBackend{})

	summary, err := svc.Summary(context.Background(), "42")

	require.NoError(t, err)
	assert.True(t, summary.Empty())
}

func TestSummary_DuplicateProductKeepsDistinctLines(t *testing.T) {
	backend := &mockBackend{
		contents: commerce.CartContents{
			Items: []commerce.CartItem{
				{ID: "line-1", ProductID: "p1", Quantity: 1},
				{ID: "line-2", ProductID: "p1", Quantity: 5},
			},
			TotalFormatted: "$63.00",
		},
	}
	svc := NewService(backend)

	summary, err := svc.Summary(context.Background(), "42")

	require.NoError(t, err)
	require.Len(t, summary.Items, 2)
	assert.NotEqual(t, summary.Items[0].ID, summary.Items[1].ID)
}

func TestAdd_RejectsQuantityBelowOneBeforeBackend(t *testing.T) {
	backend := &mockBackend{}
	svc := NewService(backend)

	err := svc.Add(context.Background(), "p1", "42", 0)

	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Zero(t, backend.addCalls)
}

func TestAdd_DelegatesToBackend(t *testing.T) {
	backend := &mockBackend{}
	svc := NewService(backend)

	err := svc.Add(context.Background(), "p1", "42", 5)

	require.NoError(t, err)
	assert.Equal(t, 1, backend.addCalls)
	assert.Equal(t, "p1", backend.addProduct)
	assert.Equal(t, 5, backend.addQuantity)
}

func TestRemove_DelegatesToBackend(t *testing.T) {
	backend := &mockBackend{}
	svc := NewService(backend)

	err := svc.Remove(context.Background(), "line-1", "42")

	require.NoError(t, err)
	assert.Equal(t, 1, backend.removeCalls)
	assert.Equal(t, "line-1", backend.removedItem)
}

func TestSummary_BackendFailurePropagates(t *testing.T) {
	backend := &mockBackend{err: errors.New("backend down")}
	svc := NewService(backend)

	_, err := svc.Summary(context.Background(), "42")

	require.Error(t, err)
}
