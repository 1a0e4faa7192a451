package store

import (
	"time"

	"github.com/example/brewdesk/pkg/models"
)

// State aggregates every store of one browser tab. Each field is written only
// through its own transitions.
type State struct {
	Session Session
	Catalog Catalog
	Tables  Tables
	Cart    Cart
	Orders  Orders
	Payment Payment
	Auth    Auth
	Users   Users
	// Notice is the last informational message, such as a registration reply.
	Notice string
}

type Snapshot struct {
	Session       models.Session         `json:"session"`
	SessionActive bool                   `json:"sessionActive"`
	Catalog       []models.CatalogItem   `json:"catalog"`
	Categories    []string               `json:"categories"`
	CatalogError  string                 `json:"catalogError,omitempty"`
	Tables        []models.Table         `json:"tables"`
	TablesError   string                 `json:"tablesError,omitempty"`
	Cart          []models.CartLine      `json:"cart"`
	Totals        models.Totals          `json:"totals"`
	Orders        []models.Order         `json:"orders"`
	CurrentOrder  *models.Order          `json:"currentOrder,omitempty"`
	ViewedOrder   *models.Order          `json:"viewedOrder,omitempty"`
	OrdersError   string                 `json:"ordersError,omitempty"`
	Method        models.PaymentMethod   `json:"paymentMethod,omitempty"`
	Attempt       *models.PaymentAttempt `json:"paymentAttempt,omitempty"`
	PaymentError  string                 `json:"paymentError,omitempty"`
	AuthStatus    AuthStatus             `json:"authStatus"`
	User          *models.User           `json:"user,omitempty"`
	AuthError     string                 `json:"authError,omitempty"`
	Users         []models.User          `json:"users"`
	UsersError    string                 `json:"usersError,omitempty"`
	Notice        string                 `json:"notice,omitempty"`
}

// Snapshot is a read-only copy of s with cart totals taxed at bps.
func (s State) Snapshot(bps int64) Snapshot {
	snap := Snapshot{
		Session:       s.Session.Value(),
		SessionActive: s.Session.Active(),
		Catalog:       s.Catalog.Items(),
		Categories:    s.Catalog.Categories(),
		CatalogError:  s.Catalog.Err(),
		Tables:        s.Tables.List(),
		TablesError:   s.Tables.Err(),
		Cart:          s.Cart.Lines(),
		Totals:        s.Cart.Totals(bps),
		Orders:        s.Orders.List(),
		OrdersError:   s.Orders.Err(),
		Method:        s.Payment.Method(),
		PaymentError:  s.Payment.Err(),
		AuthStatus:    s.Auth.Status(),
		AuthError:     s.Auth.Err(),
		Users:         s.Users.List(),
		UsersError:    s.Users.Err(),
		Notice:        s.Notice,
	}
	if o, ok := s.Orders.Current(); ok {
		snap.CurrentOrder = &o
	}
	if o, ok := s.Orders.Viewed(); ok {
		snap.ViewedOrder = &o
	}
	if a, ok := s.Payment.Attempt(); ok {
		snap.Attempt = &a
	}
	if u, ok := s.Auth.User(); ok {
		snap.User = &u
	}
	return snap
}

// Receipt projects the current order and its payment attempt. It reports
// false when the tab has no current order.
func (s State) Receipt(now time.Time) (models.Receipt, bool) {
	order, ok := s.Orders.Current()
	if !ok {
		return models.Receipt{}, false
	}
	r := models.Receipt{
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		TableNumber:  order.TableNumber,
		Lines:        make([]models.ReceiptLine, 0, len(order.Items)),
		Subtotal:     order.Subtotal,
		Tax:          order.Tax,
		Total:        order.Total,
		Status:       order.Status,
		IssuedAt:     now,
	}
	if r.TableNumber == "" {
		r.TableNumber = s.Session.Value().TableNumber
	}
	for _, it := range order.Items {
		name := it.Name
		if name == "" {
			if item, found := s.Catalog.Find(it.ProductID); found {
				name = item.Name
			}
		}
		r.Lines = append(r.Lines, models.ReceiptLine{
			Name:      name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Amount:    it.Price * int64(it.Quantity),
		})
	}
	if a, found := s.Payment.Attempt(); found && a.OrderID == order.ID {
		r.Method = a.Method
		r.Payment = a.Status
	}
	return r, true
}
