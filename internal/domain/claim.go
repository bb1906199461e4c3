package domain

import "time"

// ClaimStatus enumerates lifecycle states for claims.
type ClaimStatus string

const (
	ClaimStatusPending    ClaimStatus = "PENDING"
	ClaimStatusInProgress ClaimStatus = "IN_PROGRESS"
	ClaimStatusResolved   ClaimStatus = "RESOLVED"
	ClaimStatusRejected   ClaimStatus = "REJECTED"
)

// ValidClaimStatus reports whether s is a known status value.
func ValidClaimStatus(s ClaimStatus) bool {
	switch s {
	case ClaimStatusPending, ClaimStatusInProgress, ClaimStatusResolved, ClaimStatusRejected:
		return true
	}
	return false
}

// Claim is the aggregate for customer complaints. AssigneeID and AssignedAt
// are set together through the assignment allocator or not at all.
type Claim struct {
	ID          string
	OwnerID     string
	AssigneeID  *string
	AssignedAt  *time.Time
	Title       string
	Description string
	Type        string
	Status      ClaimStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Resolved display names, populated on list/report reads only.
	OwnerName    string
	AssigneeName *string
}

// Comment is an append-only entry on a claim thread. Author identity is
// snapshotted at write time so the thread survives later account changes.
type Comment struct {
	ID         string
	ClaimID    string
	Text       string
	IsInternal bool
	AuthorID   string
	AuthorName string
	AuthorRole Role
	CreatedAt  time.Time
}
