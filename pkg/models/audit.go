package models

import "time"

// StaffAction is one journal entry for a staff mutation made through a tab.
type StaffAction struct {
	TabID     string
	UserID    string
	Action    string
	Target    string
	Detail    map[string]string
	Timestamp time.Time
}

const (
	ActionAdvanceStatus = "order.advance_status"
	ActionCreateProduct = "product.create"
	ActionCreateTables  = "table.create"
	ActionDeleteUser    = "user.delete"
	ActionLogin         = "auth.login"
)
