package commerce

// Product is a catalog entry as listed by the commerce backend. Immutable
// once fetched for the lifetime of a session's catalog snapshot.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	MainImageID string
}

// Currency is backend reference data describing how raw amounts of one
// currency are rendered. Format holds a template with a single {price}
// placeholder.
type Currency struct {
	Code          string
	DecimalPlaces int
	DecimalPoint  string
	Format        string
}

// Pricebook identifies one named collection of per-sku price entries.
type Pricebook struct {
	ID string
}

// PriceEntry maps currency codes to raw integer amounts (smallest currency
// unit) for one sku within one price book.
type PriceEntry struct {
	SKU        string
	Currencies map[string]int64
}

// Inventory reports stock for one product. Products without an inventory
// record have no Inventory at all; absence means "unknown", not zero.
type Inventory struct {
	ProductID string
	Available int64
}

// CartItem is one raw cart line as returned by the backend. The formatted
// price strings are computed server-side (tax and rounding included) and are
// carried through verbatim.
type CartItem struct {
	ID                 string
	ProductID          string
	Name               string
	Description        string
	Quantity           int
	UnitPriceFormatted string
	ValueFormatted     string
}

// CartContents bundles the raw cart lines with the backend-computed total.
type CartContents struct {
	Items          []CartItem
	TotalFormatted string
}
