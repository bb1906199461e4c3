package service

import (
	"context"
	"time"

	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/repository"
	apperrors "github.com/spec-kit/claim-service/pkg/util"
)

// ReportService produces administrator statistics and report rows. Rendering
// to spreadsheet or PDF belongs to external collaborators; this service only
// shapes the data they consume.
type ReportService struct {
	claims repository.ClaimRepository
	now    func() time.Time
}

// NewReportService constructs the service.
func NewReportService(claims repository.ClaimRepository, now func() time.Time) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{claims: claims, now: now}
}

// MonthlyCount is one bucket of the trailing twelve-month series.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// ClaimStats aggregates desk load for the administrator dashboard.
type ClaimStats struct {
	Total      int            `json:"total"`
	Pending    int            `json:"pending"`
	InProgress int            `json:"in_progress"`
	Resolved   int            `json:"resolved"`
	Rejected   int            `json:"rejected"`
	Monthly    []MonthlyCount `json:"monthly"`
}

// ReportFilter narrows report rows.
type ReportFilter struct {
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Status      *domain.ClaimStatus
	OwnerID     *string
	Limit       int
	Offset      int
}

// Stats computes per-status totals and a trailing 12-month created series.
func (s *ReportService) Stats(ctx context.Context, actor *domain.User) (*ClaimStats, error) {
	if !actor.IsAdministrator() {
		return nil, apperrors.NewForbidden("administrator role required")
	}

	stats := &ClaimStats{}
	total, err := s.claims.CountWithFilter(ctx, repository.ClaimFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	stats.Total = total

	byStatus := []struct {
		status domain.ClaimStatus
		target *int
	}{
		{domain.ClaimStatusPending, &stats.Pending},
		{domain.ClaimStatusInProgress, &stats.InProgress},
		{domain.ClaimStatusResolved, &stats.Resolved},
		{domain.ClaimStatusRejected, &stats.Rejected},
	}
	for _, entry := range byStatus {
		count, err := s.claims.CountWithFilter(ctx, repository.ClaimFilter{
			Statuses: []domain.ClaimStatus{entry.status},
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		*entry.target = count
	}

	now := s.now()
	for i := 11; i >= 0; i-- {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		monthEnd := monthStart.AddDate(0, 1, 0)
		count, err := s.claims.CountWithFilter(ctx, repository.ClaimFilter{
			CreatedFrom:   &monthStart,
			CreatedBefore: &monthEnd,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		stats.Monthly = append(stats.Monthly, MonthlyCount{
			Month: monthStart.Format("Jan 2006"),
			Count: count,
		})
	}
	return stats, nil
}

// Rows returns report claims, newest first, with owner and assignee names
// resolved for the rendering collaborator.
func (s *ReportService) Rows(ctx context.Context, actor *domain.User, filter ReportFilter) ([]domain.Claim, error) {
	if !actor.IsAdministrator() {
		return nil, apperrors.NewForbidden("administrator role required")
	}

	repoFilter := repository.ClaimFilter{
		OwnerID:     filter.OwnerID,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if filter.Status != nil {
		repoFilter.Statuses = []domain.ClaimStatus{*filter.Status}
	}

	claims, err := s.claims.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return claims, nil
}
