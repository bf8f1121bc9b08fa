package shop

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/internal/cart"
	"github.com/m3rciful/shopbot/internal/catalog"
)

// quantities offered on the product detail screen.
var quantities = []int{1, 5, 20}

const (
	menuPrompt     = "Please choose a product:"
	emailPrompt    = "Almost done! Send me your email and we will get in touch about your order."
	emailRejected  = "That does not look like an email. Please send a plain address like name@example.com."
	genericFailure = "Something went wrong on our side. Please try again."
	emptyCartText  = "Your cart is empty."
	addedToCart    = "Added to cart."
	itemRemoved    = "Removed from cart."
	startHint      = "Send /start to open the shop."
)

func notice(text string) Render {
	return Render{Kind: RenderNotice, Text: text}
}

func failure() Render {
	return notice(genericFailure)
}

func menuScreen(cat *catalog.Catalog) Render {
	rows := make([][]Button, 0, len(cat.Order)+1)
	for _, id := range cat.Order {
		product := cat.Products[id]
		rows = append(rows, []Button{{Label: product.Name, Value: product.ID}})
	}
	rows = append(rows, []Button{{Label: "🛒 Cart", Value: CallbackCart}})
	return Render{Kind: RenderMessage, Text: menuPrompt, Buttons: rows}
}

func productScreen(product catalog.ProductSummary) Render {
	var b strings.Builder
	b.WriteString(product.Name)
	b.WriteString("\n\n")
	for _, price := range product.Prices {
		b.WriteString(price)
		b.WriteString("\n")
	}
	if product.OnStock == catalog.UnknownStock {
		b.WriteString("availability unknown\n")
	} else {
		fmt.Fprintf(&b, "%s in stock\n", product.OnStock)
	}
	b.WriteString("\n")
	b.WriteString(product.Description)

	qtyRow := make([]Button, 0, len(quantities))
	for _, q := range quantities {
		value := strconv.Itoa(q)
		qtyRow = append(qtyRow, Button{Label: value, Value: value})
	}

	return Render{
		Kind:     RenderPhoto,
		Text:     b.String(),
		ImageURL: product.ImageLink,
		Buttons: [][]Button{
			qtyRow,
			{{Label: "🛒 Cart", Value: CallbackCart}},
			{{Label: "⬅ Back", Value: CallbackBack}},
		},
	}
}

func cartScreen(summary cart.Summary) Render {
	if summary.Empty() {
		return Render{
			Kind: RenderMessage,
			Text: emptyCartText,
			Buttons: [][]Button{
				{{Label: "⬅ Back to menu", Value: CallbackBackToMenu}},
			},
		}
	}

	var b strings.Builder
	for _, item := range summary.Items {
		b.WriteString(item.Name)
		b.WriteString("\n")
		if item.Description != "" {
			b.WriteString(item.Description)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s each\n", item.UnitPrice)
		fmt.Fprintf(&b, "%d pcs for %s\n\n", item.Quantity, item.Value)
	}
	fmt.Fprintf(&b, "Total: %s", summary.Total)

	rows := make([][]Button, 0, len(summary.Items)+2)
	for _, item := range summary.Items {
		rows = append(rows, []Button{{
			Label: "Remove " + item.Name,
			Value: item.ID,
		}})
	}
	rows = append(rows,
		[]Button{{Label: "✅ Checkout", Value: CallbackCheckout}},
		[]Button{{Label: "⬅ Back to menu", Value: CallbackBackToMenu}},
	)

	return Render{Kind: RenderMessage, Text: b.String(), Buttons: rows}
}

func emailScreen() Render {
	return Render{
		Kind: RenderMessage,
		Text: emailPrompt,
		Buttons: [][]Button{
			{{Label: "⬅ Back to menu", Value: CallbackBackToMenu}},
		},
	}
}
