package dto

import (
	"time"

	"github.com/spec-kit/claim-service/internal/domain"
)

// CreateClaimRequest payload.
type CreateClaimRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// SetStatusRequest payload.
type SetStatusRequest struct {
	Status domain.ClaimStatus `json:"status"`
}

// AssignRequest payload.
type AssignRequest struct {
	EmployeeID string `json:"employee_id"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Text       string `json:"text"`
	IsInternal bool   `json:"is_internal"`
}

// ClaimSummary response.
type ClaimSummary struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Type         string             `json:"type"`
	Status       domain.ClaimStatus `json:"status"`
	OwnerID      string             `json:"owner_id"`
	OwnerName    string             `json:"owner_name,omitempty"`
	AssigneeID   *string            `json:"assignee_id,omitempty"`
	AssigneeName *string            `json:"assignee_name,omitempty"`
	AssignedAt   *time.Time         `json:"assigned_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	IsInternal bool        `json:"is_internal"`
	AuthorID   string      `json:"author_id"`
	AuthorName string      `json:"author_name"`
	AuthorRole domain.Role `json:"author_role"`
	CreatedAt  time.Time   `json:"created_at"`
}

// ClaimDetailResponse provides full claim info with its comment thread.
type ClaimDetailResponse struct {
	ClaimSummary
	Description string            `json:"description"`
	Comments    []CommentResponse `json:"comments"`
}

// EmployeeLoadResponse is one ranking view row.
type EmployeeLoadResponse struct {
	EmployeeID    string `json:"employee_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	AssignedToday int    `json:"assigned_today"`
}
