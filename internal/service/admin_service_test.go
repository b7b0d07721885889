package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

func newAdminFixture() (*AdminService, *fakeStore, *domain.User) {
	store := newFakeStore()
	master := &domain.User{ID: "root", Username: "root", Role: domain.RoleAdmin, IsMasterAdmin: true}
	store.users[master.ID] = master
	return NewAdminService(store, zap.NewNop()), store, master
}

func TestAdminSurfacesRequireMasterAdmin(t *testing.T) {
	svc, _, _ := newAdminFixture()
	admin := &domain.User{ID: "adm", Role: domain.RoleAdmin}

	_, err := svc.ListUsers(context.Background(), admin)
	require.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"), "list users: got %v", err)

	_, err = svc.ChangeUserRole(context.Background(), admin, "someone", domain.RoleTester)
	require.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"), "change role: got %v", err)

	_, err = svc.Summary(context.Background(), admin, 0, 0)
	require.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"), "summary: got %v", err)

	_, err = svc.ModeSwitchHistory(context.Background(), admin)
	require.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"), "history: got %v", err)
}

func TestListUsersReturnsDirectory(t *testing.T) {
	svc, store, master := newAdminFixture()
	store.users["u1"] = &domain.User{ID: "u1", Username: "alice", Role: domain.RoleDeveloper}
	store.users["u2"] = &domain.User{ID: "u2", Username: "bob", Role: domain.RoleTester}

	users, err := svc.ListUsers(context.Background(), master)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, "alice", users[0].Username)
	require.Equal(t, "bob", users[1].Username)
	require.Equal(t, "root", users[2].Username)
}

func TestChangeUserRole(t *testing.T) {
	svc, store, master := newAdminFixture()
	store.users["u1"] = &domain.User{ID: "u1", Username: "alice", Role: domain.RoleDeveloper}

	user, err := svc.ChangeUserRole(context.Background(), master, "u1", domain.RoleTester)
	require.NoError(t, err)
	require.Equal(t, domain.RoleTester, user.Role)
	require.Equal(t, domain.RoleTester, store.users["u1"].Role)

	_, err = svc.ChangeUserRole(context.Background(), master, "u1", domain.Role("WIZARD"))
	require.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"), "got %v", err)

	_, err = svc.ChangeUserRole(context.Background(), master, "ghost", domain.RoleTester)
	require.True(t, errorutil.IsCode(err, "NOT_FOUND"), "got %v", err)
}

func TestChangeUserRoleGuardsSelfDemotion(t *testing.T) {
	svc, store, master := newAdminFixture()

	_, err := svc.ChangeUserRole(context.Background(), master, master.ID, domain.RoleDeveloper)
	require.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"), "got %v", err)
	require.Equal(t, domain.RoleAdmin, store.users[master.ID].Role)

	// reasserting ADMIN on yourself stays legal
	_, err = svc.ChangeUserRole(context.Background(), master, master.ID, domain.RoleAdmin)
	require.NoError(t, err)
}

func TestDashboardSummary(t *testing.T) {
	svc, store, master := newAdminFixture()
	store.users["a1"] = &domain.User{ID: "a1", Username: "ivy", Email: "ivy@example.com", Role: domain.RoleAdmin}
	store.users["a2"] = &domain.User{ID: "a2", Username: "mo", Email: "mo@example.com", Role: domain.RoleAdmin}

	at := func(day int) time.Time {
		return time.Date(2026, time.May, day, 12, 0, 0, 0, time.Local)
	}
	store.projects["p1"] = &domain.Project{ID: "p1", Name: "One", OwnerID: strPtr("a1"), CreatedAt: at(3)}
	store.projects["p2"] = &domain.Project{ID: "p2", Name: "Two", OwnerID: strPtr("a1"), CreatedAt: at(10)}
	store.projects["p3"] = &domain.Project{ID: "p3", Name: "Three", OwnerID: strPtr("a2"), CreatedAt: at(30)}

	summary, err := svc.Summary(context.Background(), master, 5, 2026)
	require.NoError(t, err)
	require.Equal(t, 3, summary.TotalProjects)
	require.Equal(t, 5, summary.Month)
	require.Equal(t, 2026, summary.Year)

	require.Len(t, summary.AdminBreakdown, 2)
	require.Equal(t, "ivy", summary.AdminBreakdown[0].Username)
	require.Equal(t, 2, summary.AdminBreakdown[0].Projects)
	require.Equal(t, "mo", summary.AdminBreakdown[1].Username)
	require.Equal(t, 1, summary.AdminBreakdown[1].Projects)

	require.Len(t, summary.WeeklyStats, 4)
	require.Equal(t, "Week 1", summary.WeeklyStats[0].Week)
	require.Equal(t, 1, summary.WeeklyStats[0].Projects)
	require.Equal(t, 1, summary.WeeklyStats[1].Projects)
	require.Equal(t, 0, summary.WeeklyStats[2].Projects)
	// the last slice absorbs the tail of the month
	require.Equal(t, 1, summary.WeeklyStats[3].Projects)
	require.Equal(t, "May 01 - May 08", summary.WeeklyStats[0].Range)
	require.Equal(t, "May 22 - Jun 01", summary.WeeklyStats[3].Range)

	_, err = svc.Summary(context.Background(), master, 13, 2026)
	require.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"), "got %v", err)
}

func TestModeSwitchHistoryNewestFirst(t *testing.T) {
	svc, store, master := newAdminFixture()

	first := &domain.ModeSwitchRequest{UserID: "u1", RequestedMode: domain.ViewModeAdmin, Status: domain.ModeSwitchPending}
	second := &domain.ModeSwitchRequest{UserID: "u2", RequestedMode: domain.ViewModeDeveloper, Status: domain.ModeSwitchApproved}
	require.NoError(t, store.ModeSwitches().Create(context.Background(), first))
	require.NoError(t, store.ModeSwitches().Create(context.Background(), second))

	history, err := svc.ModeSwitchHistory(context.Background(), master)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, second.ID, history[0].ID)
	require.Equal(t, first.ID, history[1].ID)
}
