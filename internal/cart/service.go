// Package cart shapes raw backend cart lines into a priced, human-readable
// summary. All money math stays on the backend: per-item and total formatted
// prices are carried through verbatim and never recomputed locally.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/commerce"

	"log/slog"
)

// ErrInvalidQuantity rejects quantities below one before any backend call.
var ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")

// Backend lists the cart operations delegated to the commerce collaborator.
type Backend interface {
	CartItems(ctx context.Context, cartID string) (commerce.CartContents, error)
	AddCartItem(ctx context.Context, productID, cartID string, quantity int) error
	RemoveCartItem(ctx context.Context, itemID, cartID string) error
}

// LineItem is one display-ready cart line.
type LineItem struct {
	ID          string
	ProductID   string
	Name        string
	Description string
	UnitPrice   string
	Quantity    int
	Value       string
}

// Summary is a priced cart in server-returned line order. Total is the
// backend-computed formatted total, verbatim.
type Summary struct {
	Items []LineItem
	Total string
}

// Empty reports whether the cart holds no lines.
func (s Summary) Empty() bool { return len(s.Items) == 0 }

// Service wraps the backend cart with local shaping and validation.
type Service struct {
	backend Backend
}

// NewService wires a cart Service to its backend.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Summary fetches the cart and shapes it for display.
func (s *Service) Summary(ctx context.Context, cartID string) (Summary, error) {
	start := time.Now()
	contents, err := s.backend.CartItems(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Items: make([]LineItem, 0, len(contents.Items)),
		Total: contents.TotalFormatted,
	}
	for _, item := range contents.Items {
		summary.Items = append(summary.Items, LineItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Name:        item.Name,
			Description: item.Description,
			UnitPrice:   item.UnitPriceFormatted,
			Quantity:    item.Quantity,
			Value:       item.ValueFormatted,
		})
	}

	logger.Debug(ctx, "service.cart", "cart.summary",
		slog.String("status", "ok"),
		slog.Int("items", len(summary.Items)),
		slog.Duration("duration", logger.Took(start)),
	)
	return summary, nil
}

// Add places quantity units of a product into the cart.
func (s *Service) Add(ctx context.Context, productID, cartID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	return s.backend.AddCartItem(ctx, productID, cartID, quantity)
}

// Remove deletes one line from the cart.
func (s *Service) Remove(ctx context.Context, itemID, cartID string) error {
	return s.backend.RemoveCartItem(ctx, itemID, cartID)
}
