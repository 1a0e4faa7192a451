package store

import (
	"github.com/example/brewdesk/pkg/models"
)

// Orders holds the cashier order list, the customer's current order and the
// order shown on the customer status page.
type Orders struct {
	list    []models.Order
	current *models.Order
	viewed  *models.Order
	err     string
}

// Replace swaps the whole list for a server snapshot.
func (o Orders) Replace(list []models.Order) Orders {
	next := make([]models.Order, len(list))
	copy(next, list)
	o.list = next
	o.err = ""
	o.current = refresh(o.current, next)
	o.viewed = refresh(o.viewed, next)
	return o
}

// Upsert replaces the order with the same id, or prepends it when unseen.
// The current and viewed orders follow when their id matches.
func (o Orders) Upsert(order models.Order) Orders {
	next := make([]models.Order, 0, len(o.list)+1)
	found := false
	for _, cur := range o.list {
		if cur.ID == order.ID {
			cur = order
			found = true
		}
		next = append(next, cur)
	}
	if !found {
		next = append([]models.Order{order}, next...)
	}
	o.list = next
	return o.Follow(order)
}

// Update replaces a known order by id without adding unseen ones.
func (o Orders) Update(order models.Order) Orders {
	next := make([]models.Order, len(o.list))
	for i, cur := range o.list {
		if cur.ID == order.ID {
			cur = order
		}
		next[i] = cur
	}
	o.list = next
	o.err = ""
	return o.Follow(order)
}

// Follow refreshes the current and viewed orders when their id matches,
// leaving the list alone.
func (o Orders) Follow(order models.Order) Orders {
	if o.current != nil && o.current.ID == order.ID {
		o.current = &order
	}
	if o.viewed != nil && o.viewed.ID == order.ID {
		o.viewed = &order
	}
	return o
}

// ClearList drops the staff order list but keeps the customer's orders.
func (o Orders) ClearList() Orders {
	o.list = nil
	o.err = ""
	return o
}

func (o Orders) SetCurrent(order models.Order) Orders {
	o.current = &order
	o.err = ""
	return o
}

func (o Orders) ClearCurrent() Orders {
	o.current = nil
	return o
}

func (o Orders) SetViewed(order models.Order) Orders {
	o.viewed = &order
	o.err = ""
	return o
}

func (o Orders) Fail(msg string) Orders {
	o.err = msg
	return o
}

func (o Orders) List() []models.Order {
	out := make([]models.Order, len(o.list))
	copy(out, o.list)
	return out
}

// Filter returns the orders in status; an empty status returns all of them.
func (o Orders) Filter(status models.OrderStatus) []models.Order {
	if status == "" {
		return o.List()
	}
	out := make([]models.Order, 0)
	for _, cur := range o.list {
		if cur.Status == status {
			out = append(out, cur)
		}
	}
	return out
}

func (o Orders) Find(id string) (models.Order, bool) {
	for _, cur := range o.list {
		if cur.ID == id {
			return cur, true
		}
	}
	if o.current != nil && o.current.ID == id {
		return *o.current, true
	}
	if o.viewed != nil && o.viewed.ID == id {
		return *o.viewed, true
	}
	return models.Order{}, false
}

func (o Orders) Current() (models.Order, bool) {
	if o.current == nil {
		return models.Order{}, false
	}
	return *o.current, true
}

func (o Orders) Viewed() (models.Order, bool) {
	if o.viewed == nil {
		return models.Order{}, false
	}
	return *o.viewed, true
}

func (o Orders) Err() string {
	return o.err
}

func refresh(held *models.Order, list []models.Order) *models.Order {
	if held == nil {
		return nil
	}
	for _, cur := range list {
		if cur.ID == held.ID {
			found := cur
			return &found
		}
	}
	return held
}
