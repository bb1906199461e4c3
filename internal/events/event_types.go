package events

import (
	"time"

	"github.com/spec-kit/claim-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventClaimCreated       EventType = "claim_created"
	EventClaimStatusChanged EventType = "claim_status_changed"
	EventClaimAssigned      EventType = "claim_assigned"
	EventClaimCommentAdded  EventType = "claim_comment_added"
	EventClaimPurged        EventType = "claim_purged"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ClaimID   string      `json:"claim_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ClaimCreatedPayload payload.
type ClaimCreatedPayload struct {
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
	Type    string `json:"claim_type"`
}

// ClaimStatusChangedPayload payload.
type ClaimStatusChangedPayload struct {
	OwnerID   string             `json:"owner_id"`
	OldStatus domain.ClaimStatus `json:"old_status"`
	NewStatus domain.ClaimStatus `json:"new_status"`
}

// ClaimAssignedPayload payload.
type ClaimAssignedPayload struct {
	AssigneeID string    `json:"assignee_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// ClaimCommentAddedPayload payload.
type ClaimCommentAddedPayload struct {
	CommentID  string      `json:"comment_id"`
	IsInternal bool        `json:"is_internal"`
	AuthorRole domain.Role `json:"author_role"`
	Preview    string      `json:"preview"`
}

// ClaimPurgedPayload payload.
type ClaimPurgedPayload struct {
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}
