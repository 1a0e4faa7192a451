package store

import (
	"fmt"

	"github.com/example/brewdesk/pkg/models"
)

// Lifecycle is the order status machine. The zero value only allows
// cancellation from pending.
type Lifecycle struct {
	CancelFromPreparing bool
}

// Actions lists the statuses staff may move an order to from status, in the
// order the cashier console shows them.
func (l Lifecycle) Actions(from models.OrderStatus) []models.OrderStatus {
	switch from {
	case models.StatusPending:
		return []models.OrderStatus{models.StatusPreparing, models.StatusCancelled}
	case models.StatusPreparing:
		if l.CancelFromPreparing {
			return []models.OrderStatus{models.StatusReady, models.StatusCancelled}
		}
		return []models.OrderStatus{models.StatusReady}
	case models.StatusReady:
		return []models.OrderStatus{models.StatusCompleted}
	}
	return nil
}

func (l Lifecycle) Allowed(from, to models.OrderStatus) bool {
	for _, s := range l.Actions(from) {
		if s == to {
			return true
		}
	}
	return false
}

// Check returns a ValidationError when moving from -> to is not permitted.
func (l Lifecycle) Check(from, to models.OrderStatus) error {
	if !to.Valid() {
		return models.Invalid("status", fmt.Sprintf("unknown status %q", to))
	}
	if from.Terminal() {
		return models.Invalid("status", fmt.Sprintf("order is already %s", from))
	}
	if !l.Allowed(from, to) {
		return models.Invalid("status", fmt.Sprintf("cannot move order from %s to %s", from, to))
	}
	return nil
}
