package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/events"
	"github.com/spec-kit/claim-service/internal/repository"
)

// fakeClaimRepo is an in-memory claim store with the same filter and
// conditional-assign semantics as the Postgres implementation.
type fakeClaimRepo struct {
	mu     sync.Mutex
	seq    int
	claims map[string]*domain.Claim
	now    func() time.Time
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{
		claims: make(map[string]*domain.Claim),
		now:    time.Now,
	}
}

func (r *fakeClaimRepo) nextID() string {
	r.seq++
	return fmt.Sprintf("claim-%d", r.seq)
}

func (r *fakeClaimRepo) Create(ctx context.Context, claim *domain.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if claim.ID == "" {
		claim.ID = r.nextID()
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = r.now()
	}
	claim.UpdatedAt = claim.CreatedAt
	clone := *claim
	r.claims[claim.ID] = &clone
	return nil
}

func (r *fakeClaimRepo) Update(ctx context.Context, claim *domain.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.claims[claim.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Title = claim.Title
	stored.Description = claim.Description
	stored.Type = claim.Type
	stored.Status = claim.Status
	stored.UpdatedAt = r.now()
	claim.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeClaimRepo) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.claims[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (r *fakeClaimRepo) ListWithFilter(ctx context.Context, filter repository.ClaimFilter) ([]domain.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Claim
	for _, claim := range r.claims {
		if matchesClaimFilter(claim, filter) {
			out = append(out, *claim)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeClaimRepo) CountWithFilter(ctx context.Context, filter repository.ClaimFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, claim := range r.claims {
		if matchesClaimFilter(claim, filter) {
			count++
		}
	}
	return count, nil
}

func (r *fakeClaimRepo) AssignWithinCap(ctx context.Context, claimID, assigneeID string, dayStart, dayEnd time.Time, maxPerDay int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.claims[claimID]
	if !ok {
		return false, pgx.ErrNoRows
	}
	count := 0
	for id, claim := range r.claims {
		if id == claimID {
			continue
		}
		if claim.AssigneeID != nil && *claim.AssigneeID == assigneeID &&
			claim.AssignedAt != nil && !claim.AssignedAt.Before(dayStart) && claim.AssignedAt.Before(dayEnd) {
			count++
		}
	}
	if count >= maxPerDay {
		return false, nil
	}
	now := r.now()
	stored.AssigneeID = &assigneeID
	stored.AssignedAt = &now
	stored.UpdatedAt = now
	return true, nil
}

func (r *fakeClaimRepo) CountAssignedBetween(ctx context.Context, assigneeID string, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, claim := range r.claims {
		if claim.AssigneeID != nil && *claim.AssigneeID == assigneeID &&
			claim.AssignedAt != nil && !claim.AssignedAt.Before(from) && claim.AssignedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *fakeClaimRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.claims[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.claims, id)
	return nil
}

func matchesClaimFilter(claim *domain.Claim, filter repository.ClaimFilter) bool {
	if filter.OwnerID != nil && claim.OwnerID != *filter.OwnerID {
		return false
	}
	if filter.AssigneeID != nil {
		if claim.AssigneeID == nil || *claim.AssigneeID != *filter.AssigneeID {
			return false
		}
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if claim.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Type != nil && claim.Type != *filter.Type {
		return false
	}
	if filter.CreatedFrom != nil && claim.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && claim.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.CreatedBefore != nil && !claim.CreatedAt.Before(*filter.CreatedBefore) {
		return false
	}
	return true
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		r.seq++
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	clone.UpdatedAt = time.Now()
	r.users[user.ID] = &clone
	user.UpdatedAt = clone.UpdatedAt
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.users {
		if stored.Email == email {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments []domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{}
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByClaim(ctx context.Context, claimID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Comment
	for _, comment := range r.comments {
		if comment.ClaimID == claimID {
			out = append(out, comment)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	seq           int
	notifications []*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	notification.ID = fmt.Sprintf("notification-%d", r.seq)
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	clone := *notification
	r.notifications = append(r.notifications, &clone)
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].RecipientUserID == recipientID {
			out = append(out, *r.notifications[i])
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, recipientID string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.notifications {
		if stored.ID == id && stored.RecipientUserID == recipientID {
			stored.IsRead = true
			clone := *stored
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakePasswordResetRepo struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]*repository.PasswordResetToken
}

func newFakePasswordResetRepo() *fakePasswordResetRepo {
	return &fakePasswordResetRepo{tokens: make(map[string]*repository.PasswordResetToken)}
}

func (r *fakePasswordResetRepo) Create(ctx context.Context, token *repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	token.ID = fmt.Sprintf("reset-%d", r.seq)
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	clone := *token
	r.tokens[token.ID] = &clone
	return nil
}

func (r *fakePasswordResetRepo) GetByToken(ctx context.Context, token string) (*repository.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.tokens {
		if stored.Token == token {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePasswordResetRepo) MarkUsed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tokens[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	stored.UsedAt = &now
	return nil
}

// recordingDispatcher captures published events for assertions while still
// delivering to subscribed handlers.
type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
	handlers  map[events.EventType][]events.EventHandler
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: make(map[events.EventType][]events.EventHandler)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	handlers := append([]events.EventHandler(nil), d.handlers[event.Type]...)
	d.mu.Unlock()
	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) eventsOfType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
