package models

import "time"

type NotificationType string

const (
	NotifyTrade       NotificationType = "trade"
	NotifyBid         NotificationType = "bid"
	NotifyPartnership NotificationType = "partnership"
	NotifySystem      NotificationType = "system"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Priority  string           `json:"priority"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
