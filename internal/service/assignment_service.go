package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/events"
	"github.com/spec-kit/claim-service/internal/repository"
	apperrors "github.com/spec-kit/claim-service/pkg/util"
)

const rankingCacheTTL = 30 * time.Second

// AssignmentService distributes claims to employees under the daily cap.
type AssignmentService struct {
	claims     repository.ClaimRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	cache      *redis.Client
	logger     *zap.Logger
	dailyCap   int
	now        func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	ClaimRepo  repository.ClaimRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Cache      *redis.Client
	Logger     *zap.Logger
	DailyCap   int
	Now        func() time.Time
}

// EmployeeLoad is one row of the administrator ranking view.
type EmployeeLoad struct {
	EmployeeID    string `json:"employee_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	AssignedToday int    `json:"assigned_today"`
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	dailyCap := deps.DailyCap
	if dailyCap <= 0 {
		dailyCap = 20
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		claims:     deps.ClaimRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		logger:     logger,
		dailyCap:   dailyCap,
		now:        now,
	}
}

// Assign hands a claim to an active employee, enforcing the daily cap.
// The capacity check and the write are a single conditional update, so two
// concurrent assigns to the same employee cannot both squeeze past the cap.
// Reassignment overwrites assignee and assigned_at; no history is kept.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.User, claimID, employeeID string) (*domain.Claim, error) {
	if !actor.IsAdministrator() {
		return nil, apperrors.NewForbidden("administrator role required")
	}

	employee, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"employee_id": employeeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !employee.IsEmployee() {
		return nil, apperrors.NewValidationError("assignee must be an employee", map[string]any{"employee_id": employeeID})
	}
	if !employee.IsActive {
		return nil, apperrors.NewConflict("employee inactive", map[string]any{"employee_id": employeeID})
	}

	if _, err := s.claims.GetByID(ctx, claimID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("claim", map[string]any{"claim_id": claimID})
		}
		return nil, apperrors.MapError(err)
	}

	dayStart, dayEnd := s.dayWindow()
	assigned, err := s.claims.AssignWithinCap(ctx, claimID, employeeID, dayStart, dayEnd, s.dailyCap)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !assigned {
		return nil, apperrors.NewCapacityExceeded("employee reached the daily assignment cap", map[string]any{
			"employee_id": employeeID,
			"daily_cap":   s.dailyCap,
		})
	}

	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.invalidateRanking(ctx)
	s.publishAssignedEvent(ctx, actor, claim)
	return claim, nil
}

// RankEmployees returns active employees ascending by same-day assigned
// count, excluding anyone already at the cap. Advisory only; the cap is
// enforced on assignment, not here.
func (s *AssignmentService) RankEmployees(ctx context.Context, actor *domain.User) ([]EmployeeLoad, error) {
	if !actor.IsAdministrator() {
		return nil, apperrors.NewForbidden("administrator role required")
	}

	if cached, ok := s.cachedRanking(ctx); ok {
		return cached, nil
	}

	active := true
	role := domain.RoleEmployee
	employees, err := s.users.List(ctx, repository.UserFilter{Role: &role, IsActive: &active, Limit: 1000})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	dayStart, dayEnd := s.dayWindow()
	ranking := make([]EmployeeLoad, 0, len(employees))
	for _, employee := range employees {
		count, err := s.claims.CountAssignedBetween(ctx, employee.ID, dayStart, dayEnd)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if count >= s.dailyCap {
			continue
		}
		ranking = append(ranking, EmployeeLoad{
			EmployeeID:    employee.ID,
			Name:          employee.Name,
			Email:         employee.Email,
			AssignedToday: count,
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].AssignedToday < ranking[j].AssignedToday
	})

	s.storeRanking(ctx, ranking)
	return ranking, nil
}

// dayWindow returns the current local calendar day as [start, end).
func (s *AssignmentService) dayWindow() (time.Time, time.Time) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func (s *AssignmentService) rankingKey() string {
	dayStart, _ := s.dayWindow()
	return "assignment:ranking:" + dayStart.Format("2006-01-02")
}

func (s *AssignmentService) cachedRanking(ctx context.Context) ([]EmployeeLoad, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.rankingKey()).Bytes()
	if err != nil {
		return nil, false
	}
	var ranking []EmployeeLoad
	if err := json.Unmarshal(raw, &ranking); err != nil {
		return nil, false
	}
	return ranking, true
}

func (s *AssignmentService) storeRanking(ctx context.Context, ranking []EmployeeLoad) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(ranking)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.rankingKey(), raw, rankingCacheTTL).Err(); err != nil {
		s.logger.Debug("ranking cache store failed", zap.Error(err))
	}
}

func (s *AssignmentService) invalidateRanking(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.rankingKey()).Err(); err != nil {
		s.logger.Debug("ranking cache invalidation failed", zap.Error(err))
	}
}

func (s *AssignmentService) publishAssignedEvent(ctx context.Context, actor *domain.User, claim *domain.Claim) {
	if s.dispatcher == nil || claim.AssigneeID == nil || claim.AssignedAt == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventClaimAssigned,
		ClaimID:   claim.ID,
		Actor:     events.Actor{UserID: actor.ID, Role: actor.Role},
		Timestamp: s.now(),
		Payload: events.ClaimAssignedPayload{
			AssigneeID: *claim.AssigneeID,
			AssignedAt: *claim.AssignedAt,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
