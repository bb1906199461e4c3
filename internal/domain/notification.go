package domain

import "time"

// Notification is persisted as a side effect of a status transition and is
// only ever mutated to flip IsRead.
type Notification struct {
	ID              string
	RecipientUserID string
	Message         string
	IsRead          bool
	CreatedAt       time.Time
}
