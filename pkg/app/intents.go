package app

import (
	"github.com/example/brewdesk/pkg/models"
)

// Intent is a user or system action for one tab. The set is closed: only
// the types in this file implement it.
type Intent interface {
	intent()
}

type (
	LoadCatalog struct{}
	LoadTables  struct{}

	StartSession struct {
		CustomerName string
		TableID      string
	}
	ResetSession struct{}

	AddItem struct {
		ItemID string
	}
	SetQuantity struct {
		ItemID   string
		Quantity int
	}
	ClearCart struct{}

	SubmitOrder      struct{}
	FetchOrders      struct{}
	FetchOrderStatus struct {
		OrderID string
	}
	AdvanceStatus struct {
		OrderID string
		Status  models.OrderStatus
	}

	ChooseMethod struct {
		Method models.PaymentMethod
	}
	ConfirmPayment struct{}

	Login struct {
		Credentials models.Credentials
	}
	Logout   struct{}
	Register struct {
		Registration models.Registration
	}

	CreateProduct struct {
		Product models.NewProduct
	}
	CreateTables struct {
		TableNumbers []string
	}
	LoadUsers  struct{}
	DeleteUser struct {
		ID string
	}

	// ApplyOrderEvent carries a live update into the tab.
	ApplyOrderEvent struct {
		Event models.OrderEvent
	}
)

func (LoadCatalog) intent()      {}
func (LoadTables) intent()       {}
func (StartSession) intent()     {}
func (ResetSession) intent()     {}
func (AddItem) intent()          {}
func (SetQuantity) intent()      {}
func (ClearCart) intent()        {}
func (SubmitOrder) intent()      {}
func (FetchOrders) intent()      {}
func (FetchOrderStatus) intent() {}
func (AdvanceStatus) intent()    {}
func (ChooseMethod) intent()     {}
func (ConfirmPayment) intent()   {}
func (Login) intent()            {}
func (Logout) intent()           {}
func (Register) intent()         {}
func (CreateProduct) intent()    {}
func (CreateTables) intent()     {}
func (LoadUsers) intent()        {}
func (DeleteUser) intent()       {}
func (ApplyOrderEvent) intent()  {}
