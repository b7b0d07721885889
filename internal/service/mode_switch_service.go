package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// ModeSwitchService handles view mode switch requests. Requests are decided
// by the master admin; the stored view mode only changes on approval.
type ModeSwitchService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewModeSwitchService constructs the service.
func NewModeSwitchService(store repository.Store, dispatcher events.Dispatcher, logger *zap.Logger) *ModeSwitchService {
	return &ModeSwitchService{store: store, dispatcher: dispatcher, logger: logger}
}

// Request files a mode switch request for the actor. One pending request per
// user at a time.
func (s *ModeSwitchService) Request(ctx context.Context, actor *domain.User, mode domain.ViewMode, reason string) (*domain.ModeSwitchRequest, error) {
	if actor.IsMasterAdmin {
		return nil, errorutil.NewValidationError("the master admin does not switch modes", nil)
	}
	if !domain.ValidViewMode(mode) {
		return nil, errorutil.NewValidationError("invalid view mode", map[string]any{"mode": mode})
	}
	if mode == actor.EffectiveViewMode() {
		return nil, errorutil.NewValidationError("already operating in the requested mode", nil)
	}

	pending, err := s.store.ModeSwitches().HasPending(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, errorutil.NewConflict("a mode switch request is already pending", nil)
	}

	request := &domain.ModeSwitchRequest{
		UserID:        actor.ID,
		RequestedMode: mode,
		Reason:        strings.TrimSpace(reason),
		Status:        domain.ModeSwitchPending,
	}
	if err := s.store.ModeSwitches().Create(ctx, request); err != nil {
		return nil, err
	}

	master, err := s.store.Users().GetMasterAdmin(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Warn("no master admin provisioned; mode switch request will sit unreviewed",
			zap.String("request_id", request.ID))
		return request, nil
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventModeSwitchRequested,
		ActorID: &actor.ID,
		Payload: events.ModeSwitchRequestedPayload{
			RequestID:     request.ID,
			Username:      actor.Username,
			RequestedMode: mode,
			MasterAdminID: master.ID,
		},
	})
	return request, nil
}

// ListPending returns all pending requests. Master admin only.
func (s *ModeSwitchService) ListPending(ctx context.Context, actor *domain.User) ([]domain.ModeSwitchRequest, error) {
	if !actor.IsMasterAdmin {
		return nil, errorutil.NewPermissionDenied("Access denied")
	}
	return s.store.ModeSwitches().ListPending(ctx)
}

// Decide approves or rejects a pending request. On approval the requester's
// stored view mode flips to the requested one.
func (s *ModeSwitchService) Decide(ctx context.Context, actor *domain.User, requestID string, approve bool) (*domain.ModeSwitchRequest, error) {
	if !actor.IsMasterAdmin {
		return nil, errorutil.NewPermissionDenied("Access denied")
	}

	var request *domain.ModeSwitchRequest
	err := s.store.InTx(ctx, func(st repository.Store) error {
		var err error
		request, err = st.ModeSwitches().GetByID(ctx, requestID)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("Mode switch request", nil)
		}
		if err != nil {
			return err
		}
		if request.Status != domain.ModeSwitchPending {
			return errorutil.NewConflict("request already decided", nil)
		}

		status := domain.ModeSwitchApproved
		if !approve {
			status = domain.ModeSwitchRejected
		}
		if err := st.ModeSwitches().Decide(ctx, requestID, status, actor.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errorutil.NewConflict("request already decided", nil)
			}
			return err
		}
		request.Status = status
		request.DecidedBy = &actor.ID
		now := time.Now()
		request.DecidedAt = &now

		if approve {
			user, err := st.Users().GetByID(ctx, request.UserID)
			if err != nil {
				return err
			}
			user.ViewMode = request.RequestedMode
			if err := st.Users().Update(ctx, user); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventModeSwitchDecided,
		ActorID: &actor.ID,
		Payload: events.ModeSwitchDecidedPayload{
			RequestID:     request.ID,
			UserID:        request.UserID,
			RequestedMode: request.RequestedMode,
			Status:        request.Status,
		},
	})
	return request, nil
}

func (s *ModeSwitchService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
