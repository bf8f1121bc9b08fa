package catalog

import (
	"testing"

	"github.com/m3rciful/shopbot/internal/commerce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd() commerce.Currency {
	return commerce.Currency{
		Code:          "USD",
		DecimalPlaces: 2,
		DecimalPoint:  ".",
		Format:        "${price}",
	}
}

func TestFormatPrice_DecimalPlacement(t *testing.T) {
	assert.Equal(t, "$10.00", FormatPrice(1000, usd()))
	assert.Equal(t, "$123.45", FormatPrice(12345, usd()))
}

func TestFormatPrice_ZeroPadsShortAmounts(t *testing.T) {
	assert.Equal(t, "$0.50", FormatPrice(50, usd()))
	assert.Equal(t, "$0.05", FormatPrice(5, usd()))
	assert.Equal(t, "$0.00", FormatPrice(0, usd()))
}

func TestFormatPrice_NegativeAmount(t *testing.T) {
	assert.Equal(t, "$-0.50", FormatPrice(-50, usd()))
	assert.Equal(t, "$-12.05", FormatPrice(-1205, usd()))
}

func TestFormatPrice_ZeroDecimalPlaces(t *testing.T) {
	yen := commerce.Currency{
		Code:          "JPY",
		DecimalPlaces: 0,
		DecimalPoint:  ".",
		Format:        "¥{price}",
	}
	assert.Equal(t, "¥1500", FormatPrice(1500, yen))
}

func TestFormatPrice_NoTemplate(t *testing.T) {
	bare := commerce.Currency{Code: "USD", DecimalPlaces: 2, DecimalPoint: ","}
	assert.Equal(t, "12,34", FormatPrice(1234, bare))
}

func TestFormatEntry_ReferenceOrder(t *testing.T) {
	currencies := []commerce.Currency{
		{Code: "USD", DecimalPlaces: 2, DecimalPoint: ".", Format: "${price}"},
		{Code: "EUR", DecimalPlaces: 2, DecimalPoint: ",", Format: "{price} €"},
	}
	amounts := map[string]int64{"EUR": 900, "USD": 1000}

	prices, err := FormatEntry(amounts, currencies)

	require.NoError(t, err)
	assert.Equal(t, []string{"$10.00", "9,00 €"}, prices)
}

func TestFormatEntry_SkipsCurrenciesAbsentFromEntry(t *testing.T) {
	currencies := []commerce.Currency{
		{Code: "USD", DecimalPlaces: 2, DecimalPoint: ".", Format: "${price}"},
		{Code: "EUR", DecimalPlaces: 2, DecimalPoint: ",", Format: "{price} €"},
	}
	amounts := map[string]int64{"USD": 1000}

	prices, err := FormatEntry(amounts, currencies)

	require.NoError(t, err)
	assert.Equal(t, []string{"$10.00"}, prices)
}

func TestFormatEntry_UnknownCurrencyFailsWholeEntry(t *testing.T) {
	currencies := []commerce.Currency{usd()}
	amounts := map[string]int64{"USD": 1000, "GBP": 800}

	prices, err := FormatEntry(amounts, currencies)

	require.ErrorIs(t, err, ErrCurrencyNotFound)
	assert.Nil(t, prices)
}
