package dto

import (
	"time"

	"github.com/spec-kit/claim-service/internal/domain"
)

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// SetActiveRequest payload for suspending/reactivating an account.
type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// NotificationResponse payload.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
