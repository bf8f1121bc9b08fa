// Package catalog assembles display-ready product records from the
// independent listings of the commerce backend: product metadata,
// multi-currency price books, stock levels, and image references.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/internal/commerce"

	"log/slog"
)

var (
	// ErrCurrencyNotFound reports a price entry naming a currency code with
	// no reference record.
	ErrCurrencyNotFound = errors.New("catalog: currency not found")
	// ErrInconsistent reports a product missing required linked data
	// (price entry, image reference).
	ErrInconsistent = errors.New("catalog: product data inconsistent")
)

func currencyNotFound(code string) error {
	return fmt.Errorf("%w: %s", ErrCurrencyNotFound, code)
}

// UnknownStock is the quantity text for products without an inventory record.
const UnknownStock = "unknown"

// Source lists the backend reads one aggregation pass needs.
type Source interface {
	ListProducts(ctx context.Context) ([]commerce.Product, error)
	ListPricebooks(ctx context.Context) ([]commerce.Pricebook, error)
	ListBookPrices(ctx context.Context, bookID string) ([]commerce.PriceEntry, error)
	ListCurrencies(ctx context.Context) ([]commerce.Currency, error)
	ListInventories(ctx context.Context) ([]commerce.Inventory, error)
	FileLink(ctx context.Context, fileID string) (string, error)
}

// ProductSummary is the aggregated, display-ready product record.
type ProductSummary struct {
	ID          string
	SKU         string
	Name        string
	Description string
	ImageLink   string
	// Prices holds one formatted string per priced currency, in
	// currency-reference order.
	Prices []string
	// OnStock is the available-quantity text; UnknownStock when the
	// backend has no inventory record for the product.
	OnStock string
}

// Catalog is the result of one aggregation pass. Order preserves the
// backing product listing so menus render in backend order.
type Catalog struct {
	Products map[string]ProductSummary
	Order    []string
}

// Aggregator builds Catalogs. An aggregation either fully succeeds or fails
// as a whole; no partial catalog is ever returned.
type Aggregator struct {
	src Source
}

// NewAggregator wires an Aggregator to its backend source.
func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Load performs one full aggregation pass.
func (a *Aggregator) Load(ctx context.Context) (*Catalog, error) {
	start := time.Now()

	products, err := a.src.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	currencies, err := a.src.ListCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	prices, err := a.mergedPrices(ctx)
	if err != nil {
		return nil, err
	}
	inventories, err := a.src.ListInventories(ctx)
	if err != nil {
		return nil, err
	}
	stock := make(map[string]int64, len(inventories))
	for _, inv := range inventories {
		stock[inv.ProductID] = inv.Available
	}

	result := &Catalog{
		Products: make(map[string]ProductSummary, len(products)),
		Order:    make([]string, 0, len(products)),
	}
	for _, product := range products {
		summary, err := a.summarize(ctx, product, prices, currencies, stock)
		if err != nil {
			return nil, err
		}
		result.Products[product.ID] = summary
		result.Order = append(result.Order, product.ID)
	}

	logger.Info(ctx, "service.catalog", "catalog.load",
		slog.String("status", "ok"),
		slog.Int("products", len(result.Order)),
		slog.Int("count", len(currencies)),
		slog.Duration("duration", logger.Took(start)),
	)
	return result, nil
}

// mergedPrices folds all price books into one sku-keyed currency map.
// Merge policy: the first book to price a sku provides the base entry;
// later books patch only the currency keys they carry, so currencies absent
// from a later entry keep their earlier amounts.
func (a *Aggregator) mergedPrices(ctx context.Context) (map[string]map[string]int64, error) {
	books, err := a.src.ListPricebooks(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]map[string]int64)
	for _, book := range books {
		entries, err := a.src.ListBookPrices(ctx, book.ID)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			base, ok := merged[entry.SKU]
			if !ok {
				base = make(map[string]int64, len(entry.Currencies))
				merged[entry.SKU] = base
			}
			for code, amount := range entry.Currencies {
				base[code] = amount
			}
		}
	}
	return merged, nil
}

func (a *Aggregator) summarize(
	ctx context.Context,
	product commerce.Product,
	prices map[string]map[string]int64,
	currencies []commerce.Currency,
	stock map[string]int64,
) (ProductSummary, error) {
	amounts, ok := prices[product.SKU]
	if !ok {
		return ProductSummary{}, fmt.Errorf("%w: sku %s has no price entry", ErrInconsistent, product.SKU)
	}
	formatted, err := FormatEntry(amounts, currencies)
	if err != nil {
		return ProductSummary{}, err
	}

	if product.MainImageID == "" {
		return ProductSummary{}, fmt.Errorf("%w: product %s has no image reference", ErrInconsistent, product.ID)
	}
	imageLink, err := a.src.FileLink(ctx, product.MainImageID)
	if err != nil {
		return ProductSummary{}, err
	}

	onStock := UnknownStock
	if available, ok := stock[product.ID]; ok {
		onStock = strconv.FormatInt(available, 10)
	}

	return ProductSummary{
		ID:          product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		Description: product.Description,
		ImageLink:   imageLink,
		Prices:      formatted,
		OnStock:     onStock,
	}, nil
}
