package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

const unreadKeyPrefix = "notifications:unread:"

// NotificationService turns domain events into per-user notifications and
// serves the notification inbox. Creation is best-effort: a failed
// notification is logged and never propagates into the originating mutation.
type NotificationService struct {
	store  repository.Store
	redis  *redis.Client
	logger *zap.Logger
}

// NewNotificationService constructs the service. redis may be nil, in which
// case unread counts always hit Postgres.
func NewNotificationService(store repository.Store, redisClient *redis.Client, logger *zap.Logger) *NotificationService {
	return &NotificationService{store: store, redis: redisClient, logger: logger}
}

// RegisterSubscribers wires the service into the dispatcher.
func (s *NotificationService) RegisterSubscribers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventIssueAssigned, s.onIssueAssigned)
	dispatcher.Subscribe(events.EventIssueStatusChanged, s.onIssueStatusChanged)
	dispatcher.Subscribe(events.EventIssuePriorityChanged, s.onIssuePriorityChanged)
	dispatcher.Subscribe(events.EventModeSwitchRequested, s.onModeSwitchRequested)
	dispatcher.Subscribe(events.EventModeSwitchDecided, s.onModeSwitchDecided)
}

func (s *NotificationService) onIssueAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IssueAssignedPayload)
	if !ok {
		return nil
	}
	return s.deliver(ctx, payload.AssigneeID, "Issue Assigned",
		fmt.Sprintf("You have been assigned to: %s", payload.Title))
}

func (s *NotificationService) onIssueStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IssueStatusChangedPayload)
	if !ok || payload.AssigneeID == nil {
		return nil
	}
	return s.deliver(ctx, *payload.AssigneeID, "Status Updated",
		fmt.Sprintf("Issue '%s' moved from %s to %s", payload.Title, payload.OldStatus, payload.NewStatus))
}

func (s *NotificationService) onIssuePriorityChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IssuePriorityChangedPayload)
	if !ok || payload.AssigneeID == nil {
		return nil
	}
	return s.deliver(ctx, *payload.AssigneeID, "Priority Updated",
		fmt.Sprintf("Issue '%s' priority changed from %s to %s", payload.Title, payload.OldPriority, payload.NewPriority))
}

func (s *NotificationService) onModeSwitchRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ModeSwitchRequestedPayload)
	if !ok {
		return nil
	}
	return s.deliver(ctx, payload.MasterAdminID, "Mode Switch Requested",
		fmt.Sprintf("%s requested a switch to %s mode", payload.Username, payload.RequestedMode))
}

func (s *NotificationService) onModeSwitchDecided(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ModeSwitchDecidedPayload)
	if !ok {
		return nil
	}
	verdict := "approved"
	if payload.Status == domain.ModeSwitchRejected {
		verdict = "rejected"
	}
	return s.deliver(ctx, payload.UserID, "Mode Switch Decided",
		fmt.Sprintf("Your request to switch to %s mode was %s", payload.RequestedMode, verdict))
}

func (s *NotificationService) deliver(ctx context.Context, userID, title, message string) error {
	notification := &domain.Notification{UserID: userID, Title: title, Message: message}
	if err := s.store.Notifications().Create(ctx, notification); err != nil {
		s.logger.Error("failed to create notification",
			zap.String("user_id", userID),
			zap.String("title", title),
			zap.Error(err))
		return err
	}
	s.bumpUnread(ctx, userID)
	return nil
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.Notification, error) {
	return s.store.Notifications().ListByUser(ctx, actor.ID, limit, offset)
}

// MarkRead marks one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor *domain.User, notificationID string) error {
	err := s.store.Notifications().MarkRead(ctx, notificationID, actor.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return errorutil.NewNotFound("Notification", nil)
	}
	if err != nil {
		return err
	}
	s.invalidateUnread(ctx, actor.ID)
	return nil
}

// MarkAllRead marks every notification of the actor as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *domain.User) error {
	if err := s.store.Notifications().MarkAllRead(ctx, actor.ID); err != nil {
		return err
	}
	if s.redis != nil {
		if err := s.redis.Set(ctx, unreadKey(actor.ID), 0, 0).Err(); err != nil {
			s.logger.Warn("failed to reset unread counter", zap.Error(err))
		}
	}
	return nil
}

// UnreadCount returns the number of unread notifications, served from the
// Redis counter when available and falling back to Postgres on a miss.
func (s *NotificationService) UnreadCount(ctx context.Context, actor *domain.User) (int, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, unreadKey(actor.ID)).Result()
		if err == nil {
			if count, parseErr := strconv.Atoi(cached); parseErr == nil {
				return count, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("unread counter lookup failed", zap.Error(err))
		}
	}
	count, err := s.store.Notifications().CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, err
	}
	if s.redis != nil {
		if err := s.redis.Set(ctx, unreadKey(actor.ID), count, time.Hour).Err(); err != nil {
			s.logger.Warn("failed to prime unread counter", zap.Error(err))
		}
	}
	return count, nil
}

func (s *NotificationService) bumpUnread(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	// only bump an existing counter; a miss will be primed on next read
	key := unreadKey(userID)
	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}
	if err := s.redis.Incr(ctx, key).Err(); err != nil {
		s.logger.Warn("failed to bump unread counter", zap.Error(err))
	}
}

func (s *NotificationService) invalidateUnread(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, unreadKey(userID)).Err(); err != nil {
		s.logger.Warn("failed to invalidate unread counter", zap.Error(err))
	}
}

func unreadKey(userID string) string {
	return unreadKeyPrefix + userID
}
