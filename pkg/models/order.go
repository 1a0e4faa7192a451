package models

import (
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Order struct {
	ID           string      `json:"id"`
	OrderNumber  string      `json:"orderNumber"`
	CustomerName string      `json:"customerName"`
	TableID      string      `json:"tableId"`
	TableNumber  string      `json:"tableNumber,omitempty"`
	Items        []OrderItem `json:"items"`
	Subtotal     int64       `json:"subtotal"`
	Tax          int64       `json:"tax"`
	Total        int64       `json:"total"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// OrderItem is a line frozen at order time; Price is the unit price then.
type OrderItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	CustomerName string      `json:"customerName"`
	TableID      string      `json:"tableId"`
	Items        []OrderItem `json:"items"`
	Subtotal     int64       `json:"subtotal"`
	Tax          int64       `json:"tax"`
	Total        int64       `json:"total"`
}

type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

type EventType string

const (
	EventOrderCreated EventType = "order.created"
	EventOrderUpdated EventType = "order.updated"
)

// OrderEvent is what the live-update channel delivers.
type OrderEvent struct {
	Type  EventType `json:"type"`
	Order Order     `json:"order"`
}

// Totals are amounts in the smallest currency unit.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// TaxOf returns the tax on amount at bps basis points, rounded half up.
func TaxOf(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}

// RateToBasisPoints converts a fractional rate such as 0.11 to 1100.
func RateToBasisPoints(rate float64) int64 {
	return int64(rate*10000 + 0.5)
}
