package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// AdminService backs the master admin dashboard: the user directory, role
// changes and project statistics. Every operation is master admin only.
type AdminService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(store repository.Store, logger *zap.Logger) *AdminService {
	return &AdminService{store: store, logger: logger}
}

// DashboardSummary aggregates project statistics for one month.
type DashboardSummary struct {
	TotalProjects  int
	AdminBreakdown []repository.OwnerProjectCount
	WeeklyStats    []WeeklyProjectCount
	Month          int
	Year           int
}

// WeeklyProjectCount is one week slice of the selected month.
type WeeklyProjectCount struct {
	Week     string
	Projects int
	Range    string
}

// ListUsers returns every registered user.
func (s *AdminService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if !actor.IsMasterAdmin {
		return nil, errorutil.NewPermissionDenied("Access denied")
	}
	return s.store.Users().List(ctx)
}

// ChangeUserRole assigns a new role to a user. The master admin cannot move
// themselves off ADMIN; every other transition is allowed.
func (s *AdminService) ChangeUserRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) (*domain.User, error) {
	if !actor.IsMasterAdmin {
		return nil, errorutil.NewPermissionDenied("Access denied")
	}
	if !domain.ValidRole(role) {
		return nil, errorutil.NewValidationError("invalid role", map[string]any{"role": role})
	}
	if userID == actor.ID && role != domain.RoleAdmin {
		return nil, errorutil.NewValidationError("cannot remove your own ADMIN role", nil)
	}

	var user *domain.User
	err := s.store.InTx(ctx, func(st repository.Store) error {
		var err error
		user, err = st.Users().GetByID(ctx, userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("User", nil)
		}
		if err != nil {
			return err
		}
		if user.Role == role {
			return nil
		}
		previous := user.Role
		user.Role = role
		if err := st.Users().Update(ctx, user); err != nil {
			return err
		}
		s.logger.Info("user role changed",
			zap.String("user_id", user.ID),
			zap.String("from", string(previous)),
			zap.String("to", string(role)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Summary builds the dashboard numbers for the given month. Zero month or
// year selects the current one. The month is cut into four slices of seven
// days; the last slice absorbs the remainder.
func (s *AdminService) Summary(ctx context.Context, actor *domain.User, month, year int) (*DashboardSummary, error) {
	if !actor.IsMasterAdmin {
		return nil, errorutil.NewPermissionDenied("Access denied")
	}

	now := time.Now()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return nil, errorutil.NewValidationError("invalid month", map[string]any{"month": month})
	}

	total, err := s.store.Projects().Count(ctx)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.store.Projects().CountByOwner(ctx)
	if err != nil {
		return nil, err
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	monthEnd := monthStart.AddDate(0, 1, 0)

	weekly := make([]WeeklyProjectCount, 0, 4)
	sliceStart := monthStart
	for i := 0; i < 4; i++ {
		sliceEnd := sliceStart.AddDate(0, 0, 7)
		if i == 3 {
			sliceEnd = monthEnd
		}
		count, err := s.store.Projects().CountCreatedBetween(ctx, sliceStart, sliceEnd)
		if err != nil {
			return nil, err
		}
		weekly = append(weekly, WeeklyProjectCount{
			Week:     fmt.Sprintf("Week %d", i+1),
			Projects: count,
			Range:    sliceStart.Format("Jan 02") + " - " + sliceEnd.Format("Jan 02"),
		})
		sliceStart = sliceEnd
	}

	return &DashboardSummary{
		TotalProjects:  total,
		AdminBreakdown: breakdown,
		WeeklyStats:    weekly,
		Month:          month,
		Year:           year,
	}, nil
}

// ModeSwitchHistory returns every mode switch request ever filed, newest
// first.
func (s *AdminService) ModeSwitchHistory(ctx context.Context, actor *domain.User) ([]domain.ModeSwitchRequest, error) {
	if !actor.IsMasterAdmin {
		return nil, errorutil.NewPermissionDenied("Access denied")
	}
	return s.store.ModeSwitches().ListAll(ctx)
}
