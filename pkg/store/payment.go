package store

import (
	"github.com/example/brewdesk/pkg/models"
)

// Payment tracks the chosen method and the attempt for the current order.
type Payment struct {
	method  models.PaymentMethod
	attempt *models.PaymentAttempt
	err     string
}

// Choose is selection only; nothing is sent until confirmation.
func (p Payment) Choose(method models.PaymentMethod) Payment {
	p.method = method
	p.err = ""
	return p
}

func (p Payment) Record(attempt models.PaymentAttempt) Payment {
	p.attempt = &attempt
	p.err = ""
	return p
}

func (p Payment) Fail(msg string) Payment {
	p.err = msg
	return p
}

// Mirror follows the order's status into the attempt made for it. A pending
// attempt settles once the order moves past pending; a cancelled order fails it.
func (p Payment) Mirror(order models.Order) Payment {
	if p.attempt == nil || p.attempt.OrderID != order.ID {
		return p
	}
	a := *p.attempt
	switch {
	case order.Status == models.StatusCancelled && a.Status != models.PaymentFailed:
		a.Status = models.PaymentFailed
	case a.Status == models.PaymentPending && order.Status != models.StatusPending:
		a.Status = models.PaymentSettled
	default:
		return p
	}
	p.attempt = &a
	return p
}

func (p Payment) Reset() Payment {
	return Payment{}
}

func (p Payment) Method() models.PaymentMethod { return p.method }

func (p Payment) Attempt() (models.PaymentAttempt, bool) {
	if p.attempt == nil {
		return models.PaymentAttempt{}, false
	}
	return *p.attempt, true
}

func (p Payment) Err() string { return p.err }
