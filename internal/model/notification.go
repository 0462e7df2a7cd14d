package model

import "time"

// Notification is an in-app record of an event directed at a user.
type Notification struct {
	ID        string         `json:"id"`
	UserID    *string        `json:"userId"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Notification types.
const (
	NotificationDemandAccepted = "demand_accepted"
	NotificationDemandRejected = "demand_rejected"
	NotificationEmail          = "email"
)
