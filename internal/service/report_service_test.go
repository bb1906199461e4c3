package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/claim-service/internal/domain"
	apperrors "github.com/spec-kit/claim-service/pkg/util"
)

func seedReportClaim(t *testing.T, repo *fakeClaimRepo, id string, status domain.ClaimStatus, createdAt time.Time) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &domain.Claim{
		ID:          id,
		OwnerID:     "client-1",
		Title:       "claim " + id,
		Description: "desc",
		Type:        "billing",
		Status:      status,
		CreatedAt:   createdAt,
	}))
}

func TestReportStats(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeClaimRepo()
	service := NewReportService(repo, func() time.Time { return now })

	seedReportClaim(t, repo, "c1", domain.ClaimStatusPending, now.Add(-time.Hour))
	seedReportClaim(t, repo, "c2", domain.ClaimStatusPending, now.AddDate(0, -2, 0))
	seedReportClaim(t, repo, "c3", domain.ClaimStatusResolved, now.AddDate(0, -2, 0))
	// older than the trailing window; counted in totals only
	seedReportClaim(t, repo, "c4", domain.ClaimStatusRejected, now.AddDate(-2, 0, 0))

	t.Run("administrator only", func(t *testing.T) {
		_, err := service.Stats(context.Background(), testClient)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("per-status totals", func(t *testing.T) {
		stats, err := service.Stats(context.Background(), testAdmin)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Total)
		assert.Equal(t, 2, stats.Pending)
		assert.Equal(t, 0, stats.InProgress)
		assert.Equal(t, 1, stats.Resolved)
		assert.Equal(t, 1, stats.Rejected)
	})

	t.Run("trailing twelve months, oldest first", func(t *testing.T) {
		stats, err := service.Stats(context.Background(), testAdmin)
		require.NoError(t, err)
		require.Len(t, stats.Monthly, 12)
		assert.Equal(t, "Oct 2025", stats.Monthly[0].Month)
		assert.Equal(t, "Sep 2026", stats.Monthly[11].Month)
		assert.Equal(t, 1, stats.Monthly[11].Count)
		assert.Equal(t, 2, stats.Monthly[9].Count) // Jul 2026
	})
}

func TestReportRows(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeClaimRepo()
	service := NewReportService(repo, func() time.Time { return now })

	seedReportClaim(t, repo, "c1", domain.ClaimStatusPending, now.Add(-48*time.Hour))
	seedReportClaim(t, repo, "c2", domain.ClaimStatusResolved, now.Add(-24*time.Hour))
	seedReportClaim(t, repo, "c3", domain.ClaimStatusResolved, now.Add(-time.Hour))

	t.Run("administrator only", func(t *testing.T) {
		_, err := service.Rows(context.Background(), testEmployee, ReportFilter{})
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("newest first", func(t *testing.T) {
		rows, err := service.Rows(context.Background(), testAdmin, ReportFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "c3", rows[0].ID)
		assert.Equal(t, "c1", rows[2].ID)
	})

	t.Run("status and date filters narrow rows", func(t *testing.T) {
		status := domain.ClaimStatusResolved
		from := now.Add(-30 * time.Hour)
		rows, err := service.Rows(context.Background(), testAdmin, ReportFilter{
			Status:      &status,
			CreatedFrom: &from,
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "c3", rows[0].ID)
		assert.Equal(t, "c2", rows[1].ID)
	})
}
