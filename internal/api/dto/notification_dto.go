package dto

import "time"

// NotificationResponse response.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// UnreadCountResponse response.
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}
