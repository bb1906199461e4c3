package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/events"
	apperrors "github.com/spec-kit/claim-service/pkg/util"
)

type assignmentFixture struct {
	service    *AssignmentService
	claims     *fakeClaimRepo
	users      *fakeUserRepo
	dispatcher *recordingDispatcher
	now        time.Time
}

func newAssignmentFixture(t *testing.T, dailyCap int) *assignmentFixture {
	t.Helper()
	claims := newFakeClaimRepo()
	users := newFakeUserRepo()
	dispatcher := newRecordingDispatcher()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	claims.now = func() time.Time { return now }
	service := NewAssignmentService(AssignmentDependencies{
		ClaimRepo:  claims,
		UserRepo:   users,
		Dispatcher: dispatcher,
		DailyCap:   dailyCap,
		Now:        func() time.Time { return now },
	})
	return &assignmentFixture{service: service, claims: claims, users: users, dispatcher: dispatcher, now: now}
}

func (f *assignmentFixture) seedUser(t *testing.T, id string, role domain.Role, active bool) *domain.User {
	t.Helper()
	user := &domain.User{ID: id, Name: id, Email: id + "@empleado.com", Role: role, IsActive: active}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *assignmentFixture) seedClaim(t *testing.T, id string) *domain.Claim {
	t.Helper()
	claim := &domain.Claim{
		ID:          id,
		OwnerID:     "client-1",
		Title:       "claim " + id,
		Description: "desc",
		Type:        "billing",
		Status:      domain.ClaimStatusPending,
	}
	require.NoError(t, f.claims.Create(context.Background(), claim))
	return claim
}

func (f *assignmentFixture) seedAssignedToday(t *testing.T, employeeID string, n int) {
	t.Helper()
	assignedAt := f.now.Add(-time.Hour)
	for i := 0; i < n; i++ {
		claim := &domain.Claim{
			ID:          fmt.Sprintf("assigned-%s-%d", employeeID, i),
			OwnerID:     "client-1",
			AssigneeID:  &employeeID,
			AssignedAt:  &assignedAt,
			Title:       "busy",
			Description: "desc",
			Type:        "billing",
			Status:      domain.ClaimStatusInProgress,
		}
		require.NoError(t, f.claims.Create(context.Background(), claim))
	}
}

func TestAssign(t *testing.T) {
	t.Run("administrator only", func(t *testing.T) {
		f := newAssignmentFixture(t, 20)
		_, err := f.service.Assign(context.Background(), testEmployee, "claim-1", "emp-1")
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("unknown employee", func(t *testing.T) {
		f := newAssignmentFixture(t, 20)
		f.seedClaim(t, "claim-1")
		_, err := f.service.Assign(context.Background(), testAdmin, "claim-1", "ghost")
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})

	t.Run("assignee must hold the employee role", func(t *testing.T) {
		f := newAssignmentFixture(t, 20)
		f.seedClaim(t, "claim-1")
		f.seedUser(t, "client-9", domain.RoleClient, true)
		_, err := f.service.Assign(context.Background(), testAdmin, "claim-1", "client-9")
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})

	t.Run("inactive employee is rejected", func(t *testing.T) {
		f := newAssignmentFixture(t, 20)
		f.seedClaim(t, "claim-1")
		f.seedUser(t, "emp-off", domain.RoleEmployee, false)
		_, err := f.service.Assign(context.Background(), testAdmin, "claim-1", "emp-off")
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	})

	t.Run("unknown claim", func(t *testing.T) {
		f := newAssignmentFixture(t, 20)
		f.seedUser(t, "emp-1", domain.RoleEmployee, true)
		_, err := f.service.Assign(context.Background(), testAdmin, "ghost", "emp-1")
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})

	t.Run("assignment sets assignee and timestamp together", func(t *testing.T) {
		f := newAssignmentFixture(t, 20)
		f.seedClaim(t, "claim-1")
		f.seedUser(t, "emp-1", domain.RoleEmployee, true)

		claim, err := f.service.Assign(context.Background(), testAdmin, "claim-1", "emp-1")
		require.NoError(t, err)
		require.NotNil(t, claim.AssigneeID)
		require.NotNil(t, claim.AssignedAt)
		assert.Equal(t, "emp-1", *claim.AssigneeID)

		assigned := f.dispatcher.eventsOfType(events.EventClaimAssigned)
		require.Len(t, assigned, 1)
		payload, ok := assigned[0].Payload.(events.ClaimAssignedPayload)
		require.True(t, ok)
		assert.Equal(t, "emp-1", payload.AssigneeID)
	})

	t.Run("twentieth assignment succeeds, twenty-first hits the cap", func(t *testing.T) {
		f := newAssignmentFixture(t, 20)
		f.seedUser(t, "emp-1", domain.RoleEmployee, true)
		f.seedAssignedToday(t, "emp-1", 19)

		f.seedClaim(t, "claim-20")
		claim, err := f.service.Assign(context.Background(), testAdmin, "claim-20", "emp-1")
		require.NoError(t, err)
		assert.NotNil(t, claim.AssignedAt)

		f.seedClaim(t, "claim-21")
		_, err = f.service.Assign(context.Background(), testAdmin, "claim-21", "emp-1")
		assert.True(t, apperrors.IsCode(err, "CAPACITY_EXCEEDED"))

		stored, getErr := f.claims.GetByID(context.Background(), "claim-21")
		require.NoError(t, getErr)
		assert.Nil(t, stored.AssigneeID)
		assert.Nil(t, stored.AssignedAt)
	})

	t.Run("yesterday's assignments do not count", func(t *testing.T) {
		f := newAssignmentFixture(t, 2)
		f.seedUser(t, "emp-1", domain.RoleEmployee, true)

		yesterday := f.now.Add(-24 * time.Hour)
		for i := 0; i < 5; i++ {
			employeeID := "emp-1"
			claim := &domain.Claim{
				ID:          fmt.Sprintf("old-%d", i),
				OwnerID:     "client-1",
				AssigneeID:  &employeeID,
				AssignedAt:  &yesterday,
				Title:       "old",
				Description: "desc",
				Type:        "billing",
				Status:      domain.ClaimStatusInProgress,
			}
			require.NoError(t, f.claims.Create(context.Background(), claim))
		}

		f.seedClaim(t, "claim-today")
		_, err := f.service.Assign(context.Background(), testAdmin, "claim-today", "emp-1")
		assert.NoError(t, err)
	})

	t.Run("reassigning the same claim does not self-count", func(t *testing.T) {
		f := newAssignmentFixture(t, 1)
		f.seedUser(t, "emp-1", domain.RoleEmployee, true)
		f.seedClaim(t, "claim-1")

		_, err := f.service.Assign(context.Background(), testAdmin, "claim-1", "emp-1")
		require.NoError(t, err)
		_, err = f.service.Assign(context.Background(), testAdmin, "claim-1", "emp-1")
		assert.NoError(t, err)
	})
}

func TestRankEmployees(t *testing.T) {
	t.Run("administrator only", func(t *testing.T) {
		f := newAssignmentFixture(t, 20)
		_, err := f.service.RankEmployees(context.Background(), testEmployee)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("ranks ascending by same-day load, excluding at-cap and inactive", func(t *testing.T) {
		f := newAssignmentFixture(t, 3)
		f.seedUser(t, "emp-busy", domain.RoleEmployee, true)
		f.seedUser(t, "emp-free", domain.RoleEmployee, true)
		f.seedUser(t, "emp-full", domain.RoleEmployee, true)
		f.seedUser(t, "emp-off", domain.RoleEmployee, false)
		f.seedUser(t, "client-9", domain.RoleClient, true)

		f.seedAssignedToday(t, "emp-busy", 2)
		f.seedAssignedToday(t, "emp-full", 3)

		ranking, err := f.service.RankEmployees(context.Background(), testAdmin)
		require.NoError(t, err)
		require.Len(t, ranking, 2)
		assert.Equal(t, "emp-free", ranking[0].EmployeeID)
		assert.Equal(t, 0, ranking[0].AssignedToday)
		assert.Equal(t, "emp-busy", ranking[1].EmployeeID)
		assert.Equal(t, 2, ranking[1].AssignedToday)
	})
}
