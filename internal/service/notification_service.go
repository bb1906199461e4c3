package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/claim-service/internal/config"
	"github.com/spec-kit/claim-service/internal/domain"
	"github.com/spec-kit/claim-service/internal/events"
	"github.com/spec-kit/claim-service/internal/repository"
	apperrors "github.com/spec-kit/claim-service/pkg/util"
)

// NotificationService persists notification records for domain events and
// serves the recipient-facing read side. Actual delivery (email, webhook) is
// an external collaborator; stubs log what would be sent.
type NotificationService struct {
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	cfg           config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
		cfg:           cfg,
	}
}

// RegisterHandlers subscribes to events. Only status transitions produce a
// persisted notification; assignment does not notify anyone.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventClaimStatusChanged, n.handleStatusChanged)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ClaimStatusChangedPayload)
	if !ok {
		n.logger.Warn("unexpected status-changed payload", zap.String("claim_id", event.ClaimID))
		return nil
	}

	notification := &domain.Notification{
		RecipientUserID: payload.OwnerID,
		Message:         fmt.Sprintf("Your claim status has been updated to %s", payload.NewStatus),
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Error("persist notification failed",
			zap.String("claim_id", event.ClaimID),
			zap.Error(err))
		return err
	}

	n.sendEmailStub(event, notification)
	n.sendWebhookStub(event)
	return nil
}

// ListForRecipient returns the caller's notifications, newest first.
func (n *NotificationService) ListForRecipient(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.Notification, error) {
	notifications, err := n.notifications.ListByRecipient(ctx, actor.ID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notifications, nil
}

// MarkRead flips a notification to read. Only the recipient may do so; a
// notification belonging to someone else behaves as not found.
func (n *NotificationService) MarkRead(ctx context.Context, actor *domain.User, notificationID string) (*domain.Notification, error) {
	notification, err := n.notifications.MarkRead(ctx, notificationID, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return nil, apperrors.MapError(err)
	}
	return notification, nil
}

func (n *NotificationService) sendEmailStub(event events.Event, notification *domain.Notification) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("recipient_user_id", notification.RecipientUserID),
		zap.String("claim_id", event.ClaimID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("claim_id", event.ClaimID),
		zap.String("event_type", string(event.Type)))
}
