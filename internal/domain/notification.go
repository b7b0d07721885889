package domain

import "time"

// Notification is a per-user message created as a side effect of issue
// mutations and mode switch decisions. Delivery is best-effort.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
