package service

import (
	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/repository"
)

// ScopeClaims computes the claim listing predicate for an identity.
// Administrators see everything, employees see claims assigned to them,
// clients see claims they own. An unrecognized role falls back to the most
// restrictive scope, owner-only.
func ScopeClaims(actor *domain.User) repository.ClaimFilter {
	switch actor.Role {
	case domain.RoleAdministrator:
		return repository.ClaimFilter{}
	case domain.RoleEmployee:
		assigneeID := actor.ID
		return repository.ClaimFilter{AssigneeID: &assigneeID}
	default:
		ownerID := actor.ID
		return repository.ClaimFilter{OwnerID: &ownerID}
	}
}

// canViewClaim applies the same scoping rules to a single claim.
func canViewClaim(actor *domain.User, claim *domain.Claim) bool {
	switch actor.Role {
	case domain.RoleAdministrator:
		return true
	case domain.RoleEmployee:
		return claim.AssigneeID != nil && *claim.AssigneeID == actor.ID
	default:
		return claim.OwnerID == actor.ID
	}
}
