package catalog

import (
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/internal/commerce"
)

const pricePlaceholder = "{price}"

// FormatPrice renders a raw amount (smallest currency unit) according to the
// currency's decimal convention and display template. Amounts with fewer
// digits than the currency's decimal places are zero-padded, so 50 with two
// places renders as 0.50, never as a malformed ".50".
func FormatPrice(amount int64, cur commerce.Currency) string {
	digits := strconv.FormatInt(amount, 10)

	var numeral string
	if cur.DecimalPlaces <= 0 {
		numeral = digits
	} else {
		negative := strings.HasPrefix(digits, "-")
		if negative {
			digits = digits[1:]
		}
		for len(digits) <= cur.DecimalPlaces {
			digits = "0" + digits
		}
		split := len(digits) - cur.DecimalPlaces
		numeral = digits[:split] + cur.DecimalPoint + digits[split:]
		if negative {
			numeral = "-" + numeral
		}
	}

	if cur.Format == "" {
		return numeral
	}
	return strings.ReplaceAll(cur.Format, pricePlaceholder, numeral)
}

// FormatEntry renders one merged price entry against the currency reference
// set, in reference-set order. Currencies configured in the backend but
// absent from the entry are skipped; a currency code in the entry with no
// reference record fails the whole entry with ErrCurrencyNotFound.
func FormatEntry(amounts map[string]int64, currencies []commerce.Currency) ([]string, error) {
	known := make(map[string]struct{}, len(currencies))
	for _, cur := range currencies {
		known[cur.Code] = struct{}{}
	}
	for code := range amounts {
		if _, ok := known[code]; !ok {
			return nil, currencyNotFound(code)
		}
	}

	prices := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		amount, ok := amounts[cur.Code]
		if !ok {
			continue
		}
		prices = append(prices, FormatPrice(amount, cur))
	}
	return prices, nil
}
