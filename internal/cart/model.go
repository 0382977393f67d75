package cart

import (
	"github.com/google/uuid"

	"github.com/noah-isme/retail-pos/internal/bill"
	"github.com/noah-isme/retail-pos/internal/inventory"
)

// LineItem is one cart entry. ID is a generated stable identifier so edits
// and deletes address the item directly instead of relying on its position.
type LineItem struct {
	ID            string `json:"id"`
	ProductID     int64  `json:"productId"`
	Name          string `json:"name"`
	LocalizedName string `json:"localizedName"`
	Quantity      int    `json:"quantity"`
	Unit          string `json:"unit"`
}

// Cart is an ordered sequence of line items, newest first. No two items
// share both product and unit: adding such a combination merges quantities
// in place.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Add merges quantity into an existing (product, unit) line, keeping its
// position, or prepends a new line. Quantity is clamped to 1. The affected
// line is returned.
func (c *Cart) Add(product inventory.Product, quantity int, unit string) LineItem {
	if quantity < 1 {
		quantity = 1
	}
	for i, item := range c.Items {
		if item.ProductID == product.ID && item.Unit == unit {
			c.Items[i].Quantity += quantity
			return c.Items[i]
		}
	}
	item := LineItem{
		ID:            uuid.NewString(),
		ProductID:     product.ID,
		Name:          product.Name,
		LocalizedName: product.LocalizedName,
		Quantity:      quantity,
		Unit:          unit,
	}
	c.Items = append([]LineItem{item}, c.Items...)
	return item
}

// Edit replaces quantity and unit of the identified line item. It reports
// false, changing nothing, when the id is unknown.
func (c *Cart) Edit(id string, quantity int, unit string) bool {
	if quantity < 1 {
		quantity = 1
	}
	for i, item := range c.Items {
		if item.ID == id {
			c.Items[i].Quantity = quantity
			c.Items[i].Unit = unit
			return true
		}
	}
	return false
}

// Remove deletes the identified line item, reporting whether it existed.
func (c *Cart) Remove(id string) bool {
	for i, item := range c.Items {
		if item.ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// Len returns the number of line items.
func (c *Cart) Len() int {
	return len(c.Items)
}

// Lines projects the cart into the paginator's input, preserving the
// cart's newest-first storage order. Localized names win on the printed
// bill; the display name is the fallback.
func (c *Cart) Lines() []bill.Line {
	lines := make([]bill.Line, 0, len(c.Items))
	for _, item := range c.Items {
		name := item.LocalizedName
		if name == "" {
			name = item.Name
		}
		lines = append(lines, bill.Line{Name: name, Quantity: item.Quantity, Unit: item.Unit})
	}
	return lines
}
