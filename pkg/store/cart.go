package store

import (
	"github.com/example/brewdesk/pkg/models"
)

// Cart is the customer's unsubmitted selection. Every mutation returns a new
// Cart built on a fresh line slice, so a snapshot handed out earlier never
// changes underneath its reader.
type Cart struct {
	lines []models.CartLine
}

// Add increments the line for item by one, or appends a new line at quantity 1.
func (c Cart) Add(item models.CatalogItem) Cart {
	next := make([]models.CartLine, 0, len(c.lines)+1)
	found := false
	for _, l := range c.lines {
		if l.Item.ID == item.ID {
			l.Quantity++
			found = true
		}
		next = append(next, l)
	}
	if !found {
		next = append(next, models.CartLine{Item: item, Quantity: 1})
	}
	return Cart{lines: next}
}

// SetQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line; an unknown item id leaves the cart as it is.
func (c Cart) SetQuantity(itemID string, quantity int) Cart {
	next := make([]models.CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		if l.Item.ID == itemID {
			if quantity <= 0 {
				continue
			}
			l.Quantity = quantity
		}
		next = append(next, l)
	}
	return Cart{lines: next}
}

func (c Cart) Clear() Cart {
	return Cart{}
}

func (c Cart) Empty() bool {
	return len(c.lines) == 0
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) Lines() []models.CartLine {
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Totals prices the cart with tax at bps basis points.
func (c Cart) Totals(bps int64) models.Totals {
	var subtotal int64
	for _, l := range c.lines {
		subtotal += l.Item.Price * int64(l.Quantity)
	}
	tax := models.TaxOf(subtotal, bps)
	return models.Totals{Subtotal: subtotal, Tax: tax, Total: subtotal + tax}
}

// OrderItems freezes the cart lines at their current prices.
func (c Cart) OrderItems() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, models.OrderItem{
			ProductID: l.Item.ID,
			Name:      l.Item.Name,
			Quantity:  l.Quantity,
			Price:     l.Item.Price,
		})
	}
	return items
}
