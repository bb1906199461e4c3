package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/events"
	"github.com/spec-kit/claim-service/internal/repository"
	apperrors "github.com/spec-kit/claim-service/pkg/util"
)

// ClaimService coordinates the claim lifecycle: creation, role-scoped
// listing, status transitions, comments and retention.
type ClaimService struct {
	claims     repository.ClaimRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
	transition TransitionPolicy
	maxAgeDays int
	now        func() time.Time
}

// ClaimDependencies bundles collaborators for the claim service.
type ClaimDependencies struct {
	ClaimRepo        repository.ClaimRepository
	CommentRepo      repository.CommentRepository
	Dispatcher       events.Dispatcher
	Transition       TransitionPolicy
	RetentionMaxDays int
	Now              func() time.Time
}

// ClaimCreateInput describes claim creation payload.
type ClaimCreateInput struct {
	Title       string
	Description string
	Type        string
}

// ClaimListFilter describes listing filters layered on top of the
// role-derived visibility scope.
type ClaimListFilter struct {
	Statuses    []domain.ClaimStatus
	Type        *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewClaimService constructs the service.
func NewClaimService(deps ClaimDependencies) *ClaimService {
	transition := deps.Transition
	if transition == nil {
		transition = AllowAllTransitions
	}
	maxAge := deps.RetentionMaxDays
	if maxAge <= 0 {
		maxAge = 365
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &ClaimService{
		claims:     deps.ClaimRepo,
		comments:   deps.CommentRepo,
		dispatcher: deps.Dispatcher,
		transition: transition,
		maxAgeDays: maxAge,
		now:        now,
	}
}

// CreateClaim files a new claim owned by the actor, starting in pending.
func (s *ClaimService) CreateClaim(ctx context.Context, actor *domain.User, input ClaimCreateInput) (*domain.Claim, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	claimType := strings.TrimSpace(input.Type)
	if title == "" || description == "" || claimType == "" {
		return nil, apperrors.NewValidationError("title, description and type are required", nil)
	}

	claim := &domain.Claim{
		OwnerID:     actor.ID,
		Title:       title,
		Description: description,
		Type:        claimType,
		Status:      domain.ClaimStatusPending,
	}
	if err := s.claims.Create(ctx, claim); err != nil {
		return nil, apperrors.MapError(err)
	}
	claim.OwnerName = actor.Name

	s.publishEvent(ctx, actor, events.Event{
		Type:    events.EventClaimCreated,
		ClaimID: claim.ID,
		Payload: events.ClaimCreatedPayload{
			OwnerID: claim.OwnerID,
			Title:   claim.Title,
			Type:    claim.Type,
		},
	})
	return claim, nil
}

// ListClaims returns claims visible to the actor, newest first.
func (s *ClaimService) ListClaims(ctx context.Context, actor *domain.User, filter ClaimListFilter) ([]domain.Claim, error) {
	scope := ScopeClaims(actor)
	scope.Statuses = filter.Statuses
	scope.Type = filter.Type
	scope.CreatedFrom = filter.CreatedFrom
	scope.CreatedTo = filter.CreatedTo
	scope.Limit = filter.Limit
	scope.Offset = filter.Offset

	claims, err := s.claims.ListWithFilter(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return claims, nil
}

// GetClaim fetches a single claim and its full comment thread, enforcing the
// same visibility rules as listing. Internal comments are returned as stored;
// suppressing them for client-facing views is the renderer's job.
func (s *ClaimService) GetClaim(ctx context.Context, actor *domain.User, claimID string) (*domain.Claim, []domain.Comment, error) {
	claim, err := s.getClaim(ctx, claimID)
	if err != nil {
		return nil, nil, err
	}
	if !canViewClaim(actor, claim) {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	comments, err := s.comments.ListByClaim(ctx, claim.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return claim, comments, nil
}

// SetStatus moves a claim to a new status. Administrator only; the owner is
// notified through the status-changed event.
func (s *ClaimService) SetStatus(ctx context.Context, actor *domain.User, claimID string, newStatus domain.ClaimStatus) (*domain.Claim, error) {
	if !actor.IsAdministrator() {
		return nil, apperrors.NewForbidden("administrator role required")
	}
	if !domain.ValidClaimStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown claim status", map[string]any{"status": newStatus})
	}
	claim, err := s.getClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !s.transition(claim.Status, newStatus) {
		return nil, apperrors.NewConflict("status transition not allowed", map[string]any{
			"from": claim.Status,
			"to":   newStatus,
		})
	}

	oldStatus := claim.Status
	claim.Status = newStatus
	if err := s.claims.Update(ctx, claim); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, actor, events.Event{
		Type:    events.EventClaimStatusChanged,
		ClaimID: claim.ID,
		Payload: events.ClaimStatusChangedPayload{
			OwnerID:   claim.OwnerID,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return claim, nil
}

// AddComment appends a comment to a claim thread. Clients may only comment on
// their own claims and never internally; employees only on claims currently
// assigned to them; administrators anywhere.
func (s *ClaimService) AddComment(ctx context.Context, actor *domain.User, claimID, text string, isInternal bool) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text required", nil)
	}
	claim, err := s.getClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case domain.RoleAdministrator:
		// any claim, either visibility
	case domain.RoleEmployee:
		if claim.AssigneeID == nil || *claim.AssigneeID != actor.ID {
			return nil, apperrors.NewForbidden("claim not assigned to you")
		}
	default:
		if claim.OwnerID != actor.ID {
			return nil, apperrors.NewForbidden("access denied")
		}
		if isInternal {
			return nil, apperrors.NewForbidden("clients cannot add internal comments")
		}
	}

	comment := &domain.Comment{
		ClaimID:    claim.ID,
		Text:       text,
		IsInternal: isInternal,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		AuthorRole: actor.Role,
	}
	// Comment appends do not touch claim.updated_at: the claim row itself is
	// not written here.
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, actor, events.Event{
		Type:    events.EventClaimCommentAdded,
		ClaimID: claim.ID,
		Payload: events.ClaimCommentAddedPayload{
			CommentID:  comment.ID,
			IsInternal: comment.IsInternal,
			AuthorRole: comment.AuthorRole,
			Preview:    stringPreview(comment.Text, 120),
		},
	})
	return comment, nil
}

// IsPurgeable reports whether the claim is past the retention window.
func (s *ClaimService) IsPurgeable(claim *domain.Claim) bool {
	cutoff := s.now().AddDate(0, 0, -s.maxAgeDays)
	return claim.CreatedAt.Before(cutoff)
}

// ListPurgeable returns claims past retention for administrator review.
func (s *ClaimService) ListPurgeable(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.Claim, error) {
	if !actor.IsAdministrator() {
		return nil, apperrors.NewForbidden("administrator role required")
	}
	cutoff := s.now().AddDate(0, 0, -s.maxAgeDays)
	claims, err := s.claims.ListWithFilter(ctx, repository.ClaimFilter{
		CreatedBefore: &cutoff,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return claims, nil
}

// PurgeClaim hard-deletes a claim past the retention window.
func (s *ClaimService) PurgeClaim(ctx context.Context, actor *domain.User, claimID string) error {
	if !actor.IsAdministrator() {
		return apperrors.NewForbidden("administrator role required")
	}
	claim, err := s.getClaim(ctx, claimID)
	if err != nil {
		return err
	}
	if !s.IsPurgeable(claim) {
		return apperrors.NewRetentionViolation("claim is within the retention window", map[string]any{
			"claim_id":   claim.ID,
			"created_at": claim.CreatedAt,
		})
	}
	if err := s.claims.Delete(ctx, claimID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("claim", map[string]any{"claim_id": claimID})
		}
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, actor, events.Event{
		Type:    events.EventClaimPurged,
		ClaimID: claim.ID,
		Payload: events.ClaimPurgedPayload{
			OwnerID:   claim.OwnerID,
			CreatedAt: claim.CreatedAt,
		},
	})
	return nil
}

func (s *ClaimService) getClaim(ctx context.Context, claimID string) (*domain.Claim, error) {
	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("claim", map[string]any{"claim_id": claimID})
		}
		return nil, apperrors.MapError(err)
	}
	return claim, nil
}

func (s *ClaimService) publishEvent(ctx context.Context, actor *domain.User, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	event.Actor = events.Actor{UserID: actor.ID, Role: actor.Role}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
