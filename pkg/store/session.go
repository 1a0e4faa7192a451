package store

import (
	"github.com/example/brewdesk/pkg/models"
)

// Session is the customer identity bound to one browser tab.
type Session struct {
	value  models.Session
	active bool
}

func RestoreSession(s models.Session) Session {
	return Session{value: s, active: s.CustomerName != "" && s.TableID != ""}
}

func (s Session) Start(v models.Session) Session {
	v.OrderID = ""
	return Session{value: v, active: true}
}

func (s Session) AttachOrder(orderID string) Session {
	s.value.OrderID = orderID
	return s
}

func (s Session) Reset() Session {
	return Session{}
}

// Ready reports whether both a customer name and a table are set.
func (s Session) Ready() bool {
	return s.active && s.value.CustomerName != "" && s.value.TableID != ""
}

func (s Session) Active() bool {
	return s.active
}

func (s Session) Value() models.Session {
	return s.value
}
