package models

import "time"

type PaymentMethod string

const (
	MethodOnline  PaymentMethod = "online"
	MethodQRIS    PaymentMethod = "qris"
	MethodCashier PaymentMethod = "cashier"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodOnline || m == MethodQRIS || m == MethodCashier
}

// External reports whether the method goes through the payment collaborator.
func (m PaymentMethod) External() bool {
	return m == MethodOnline || m == MethodQRIS
}

type PaymentStatus string

const (
	PaymentRecorded PaymentStatus = "recorded"
	PaymentPending  PaymentStatus = "pending"
	PaymentSettled  PaymentStatus = "settled"
	PaymentFailed   PaymentStatus = "failed"
)

type PaymentAttempt struct {
	OrderID     string        `json:"orderId"`
	Method      PaymentMethod `json:"method"`
	Token       string        `json:"token,omitempty"`
	RedirectURL string        `json:"redirectUrl,omitempty"`
	Status      PaymentStatus `json:"status"`
}

// Transaction is returned by POST /payments/create-transaction.
type Transaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type CreateTransactionRequest struct {
	OrderID      string        `json:"orderId"`
	OrderNumber  string        `json:"orderNumber"`
	Amount       int64         `json:"amount"`
	Method       PaymentMethod `json:"method"`
	CustomerName string        `json:"customerName"`
}

type ReceiptLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Amount    int64  `json:"amount"`
}

// Receipt is the customer-facing summary of a placed order.
type Receipt struct {
	OrderNumber  string        `json:"orderNumber"`
	CustomerName string        `json:"customerName"`
	TableNumber  string        `json:"tableNumber"`
	Lines        []ReceiptLine `json:"lines"`
	Subtotal     int64         `json:"subtotal"`
	Tax          int64         `json:"tax"`
	Total        int64         `json:"total"`
	Method       PaymentMethod `json:"method,omitempty"`
	Payment      PaymentStatus `json:"payment,omitempty"`
	Status       OrderStatus   `json:"status"`
	IssuedAt     time.Time     `json:"issuedAt"`
}
