package service

import "github.com/spec-kit/claim-service/internal/domain"

// TransitionPolicy decides whether a status transition is allowed for an
// administrator-initiated change.
type TransitionPolicy func(from, to domain.ClaimStatus) bool

// AllowAllTransitions permits any administrator transition between valid
// statuses. Operators need the freedom to correct mistakes, so this is the
// default; a stricter table can be substituted without touching call sites.
func AllowAllTransitions(from, to domain.ClaimStatus) bool {
	return domain.ValidClaimStatus(to)
}

// TableTransitions builds a policy from an explicit transition table.
func TableTransitions(table map[domain.ClaimStatus][]domain.ClaimStatus) TransitionPolicy {
	return func(from, to domain.ClaimStatus) bool {
		for _, candidate := range table[from] {
			if candidate == to {
				return true
			}
		}
		return false
	}
}

// StrictWorkflow is the conventional forward-only lifecycle: pending work
// starts, started work resolves, and anything not yet resolved can be
// rejected.
func StrictWorkflow() TransitionPolicy {
	return TableTransitions(map[domain.ClaimStatus][]domain.ClaimStatus{
		domain.ClaimStatusPending:    {domain.ClaimStatusInProgress, domain.ClaimStatusRejected},
		domain.ClaimStatusInProgress: {domain.ClaimStatusResolved, domain.ClaimStatusRejected},
	})
}
