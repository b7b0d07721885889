package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/repository"
)

// fakeStore is an in-memory Store used by service tests. Only the
// repositories the service flows touch are implemented.
type fakeStore struct {
	users    map[string]*domain.User
	projects map[string]*domain.Project
	teams    map[string]*domain.Team
	items    map[string]*domain.WorkItem
	activity []domain.Activity
	requests []*domain.ModeSwitchRequest
	seq      int

	// codeSteals simulates lost allocation races: while positive, each
	// work item insert is preempted by a competing row with the same code
	// and fails with the unique violation the real schema would raise.
	codeSteals int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*domain.User{},
		projects: map[string]*domain.Project{},
		teams:    map[string]*domain.Team{},
		items:    map[string]*domain.WorkItem{},
	}
}

func (s *fakeStore) Users() repository.UserRepository                   { return &fakeUsers{s} }
func (s *fakeStore) Projects() repository.ProjectRepository             { return &fakeProjects{s} }
func (s *fakeStore) Teams() repository.TeamRepository                   { return &fakeTeams{s} }
func (s *fakeStore) WorkItems() repository.WorkItemRepository           { return &fakeWorkItems{s} }
func (s *fakeStore) Activity() repository.ActivityRepository            { return &fakeActivity{s} }
func (s *fakeStore) Notifications() repository.NotificationRepository   { return nil }
func (s *fakeStore) ModeSwitches() repository.ModeSwitchRepository      { return &fakeModeSwitches{s} }
func (s *fakeStore) PasswordResets() repository.PasswordResetRepository { return nil }

func (s *fakeStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

func (s *fakeStore) nextID(kind string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", kind, s.seq)
}

func (s *fakeStore) activityFor(itemID string) []domain.Activity {
	var result []domain.Activity
	for _, entry := range s.activity {
		if entry.WorkItemID == itemID {
			result = append(result, entry)
		}
	}
	return result
}

type fakeProjects struct{ s *fakeStore }

func (r *fakeProjects) Create(_ context.Context, project *domain.Project) error {
	if project.ID == "" {
		project.ID = r.s.nextID("p")
	}
	r.s.projects[project.ID] = project
	return nil
}

func (r *fakeProjects) Update(_ context.Context, project *domain.Project) error {
	r.s.projects[project.ID] = project
	return nil
}

func (r *fakeProjects) SetActive(_ context.Context, id string, active bool) error {
	project, ok := r.s.projects[id]
	if !ok {
		return pgx.ErrNoRows
	}
	project.IsActive = active
	return nil
}

func (r *fakeProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	project, ok := r.s.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *project
	return &copied, nil
}

func (r *fakeProjects) Count(_ context.Context) (int, error) {
	return len(r.s.projects), nil
}

func (r *fakeProjects) CountByOwner(_ context.Context) ([]repository.OwnerProjectCount, error) {
	counts := map[string]int{}
	for _, project := range r.s.projects {
		if project.OwnerID != nil {
			counts[*project.OwnerID]++
		}
	}
	var result []repository.OwnerProjectCount
	for ownerID, count := range counts {
		owner, ok := r.s.users[ownerID]
		if !ok {
			continue
		}
		result = append(result, repository.OwnerProjectCount{
			Username: owner.Username,
			Email:    owner.Email,
			Projects: count,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (r *fakeProjects) CountCreatedBetween(_ context.Context, from, to time.Time) (int, error) {
	count := 0
	for _, project := range r.s.projects {
		if !project.CreatedAt.Before(from) && project.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *fakeProjects) List(_ context.Context) ([]domain.Project, error) { return nil, nil }
func (r *fakeProjects) ListOwnedBy(_ context.Context, _ string) ([]domain.Project, error) {
	return nil, nil
}
func (r *fakeProjects) ListForContributor(_ context.Context, _ string) ([]domain.Project, error) {
	return nil, nil
}

type fakeTeams struct{ s *fakeStore }

func (r *fakeTeams) Create(_ context.Context, team *domain.Team) error {
	if team.ID == "" {
		team.ID = r.s.nextID("t")
	}
	r.s.teams[team.ID] = team
	return nil
}

func (r *fakeTeams) Update(_ context.Context, team *domain.Team) error {
	r.s.teams[team.ID] = team
	return nil
}

func (r *fakeTeams) Delete(_ context.Context, id string) error {
	delete(r.s.teams, id)
	return nil
}

func (r *fakeTeams) GetByID(_ context.Context, id string) (*domain.Team, error) {
	team, ok := r.s.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeams) ListByProject(_ context.Context, projectID string) ([]domain.Team, error) {
	var result []domain.Team
	for _, team := range r.s.teams {
		if team.ProjectID == projectID {
			result = append(result, *team)
		}
	}
	return result, nil
}

func (r *fakeTeams) ReplaceMembers(_ context.Context, teamID string, memberIDs []string) error {
	if team, ok := r.s.teams[teamID]; ok {
		team.MemberIDs = memberIDs
	}
	return nil
}

func (r *fakeTeams) LeadsAnyTeamInProject(_ context.Context, projectID, userID string) (bool, error) {
	for _, team := range r.s.teams {
		if team.ProjectID == projectID && team.IsLead(userID) {
			return true, nil
		}
	}
	return false, nil
}

type fakeWorkItems struct{ s *fakeStore }

func (r *fakeWorkItems) Create(_ context.Context, item *domain.WorkItem) error {
	if r.s.codeSteals > 0 {
		r.s.codeSteals--
		rival := &domain.WorkItem{
			ID:        r.s.nextID("i"),
			ProjectID: item.ProjectID,
			Code:      item.Code,
			Title:     "rival",
			IssueType: item.IssueType,
			Priority:  item.Priority,
			Status:    item.Status,
			CreatedAt: time.Now(),
		}
		r.s.items[rival.ID] = rival
		return &pgconn.PgError{Code: "23505", ConstraintName: "work_items_code_key"}
	}
	for _, existing := range r.s.items {
		if existing.Code == item.Code {
			return &pgconn.PgError{Code: "23505", ConstraintName: "work_items_code_key"}
		}
	}
	if item.ID == "" {
		item.ID = r.s.nextID("i")
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	copied := *item
	r.s.items[item.ID] = &copied
	return nil
}

func (r *fakeWorkItems) Update(_ context.Context, item *domain.WorkItem) error {
	if _, ok := r.s.items[item.ID]; !ok {
		return pgx.ErrNoRows
	}
	item.UpdatedAt = time.Now()
	copied := *item
	r.s.items[item.ID] = &copied
	return nil
}

func (r *fakeWorkItems) Delete(_ context.Context, id string) error {
	delete(r.s.items, id)
	// mirror the cascading parent FK
	for childID, child := range r.s.items {
		if child.ParentID != nil && *child.ParentID == id {
			_ = r.Delete(context.Background(), childID)
		}
	}
	return nil
}

func (r *fakeWorkItems) GetByID(_ context.Context, id string) (*domain.WorkItem, error) {
	item, ok := r.s.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (r *fakeWorkItems) GetByCode(_ context.Context, code string) (*domain.WorkItem, error) {
	for _, item := range r.s.items {
		if item.Code == code {
			copied := *item
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeWorkItems) ListByProject(_ context.Context, projectID string) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	for _, item := range r.s.items {
		if item.ProjectID == projectID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *fakeWorkItems) ListAll(_ context.Context, projectID *string) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	for _, item := range r.s.items {
		if projectID == nil || item.ProjectID == *projectID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *fakeWorkItems) ListOwnerScope(_ context.Context, userID string, projectID *string) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	for _, item := range r.s.items {
		if projectID != nil && item.ProjectID != *projectID {
			continue
		}
		project, ok := r.s.projects[item.ProjectID]
		if ok && project.OwnerID != nil && *project.OwnerID == userID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *fakeWorkItems) ListContributorScope(_ context.Context, userID string, projectID *string) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	for _, item := range r.s.items {
		if projectID != nil && item.ProjectID != *projectID {
			continue
		}
		if item.AssigneeID != nil && *item.AssigneeID == userID {
			result = append(result, *item)
			continue
		}
		if item.TeamID != nil {
			if team, ok := r.s.teams[*item.TeamID]; ok && (team.HasMember(userID) || team.IsLead(userID)) {
				result = append(result, *item)
			}
		}
	}
	return result, nil
}

func (r *fakeWorkItems) ListChildren(_ context.Context, parentID string) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	for _, item := range r.s.items {
		if item.ParentID != nil && *item.ParentID == parentID {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *fakeWorkItems) ListSummariesByTypes(_ context.Context, projectID string, types []domain.IssueType) ([]domain.IssueSummary, error) {
	var result []domain.IssueSummary
	for _, item := range r.s.items {
		if item.ProjectID != projectID {
			continue
		}
		for _, issueType := range types {
			if item.IssueType == issueType {
				result = append(result, domain.IssueSummary{
					ID:        item.ID,
					Code:      item.Code,
					Title:     item.Title,
					IssueType: item.IssueType,
					Status:    item.Status,
				})
				break
			}
		}
	}
	return result, nil
}

func (r *fakeWorkItems) HasAssignmentInProject(_ context.Context, projectID, userID string) (bool, error) {
	for _, item := range r.s.items {
		if item.ProjectID == projectID && item.AssigneeID != nil && *item.AssigneeID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeWorkItems) ListCodesByPrefix(_ context.Context, prefix string) ([]string, error) {
	var codes []string
	for _, item := range r.s.items {
		if len(item.Code) > len(prefix) && item.Code[:len(prefix)+1] == prefix+"-" {
			codes = append(codes, item.Code)
		}
	}
	return codes, nil
}

func (r *fakeWorkItems) AcquirePrefixLock(_ context.Context, _ string) error { return nil }

type fakeActivity struct{ s *fakeStore }

func (r *fakeActivity) Create(_ context.Context, entry *domain.Activity) error {
	entry.ID = r.s.nextID("a")
	entry.CreatedAt = time.Now()
	r.s.activity = append(r.s.activity, *entry)
	return nil
}

func (r *fakeActivity) ListByWorkItem(_ context.Context, workItemID string) ([]domain.Activity, error) {
	return r.s.activityFor(workItemID), nil
}

type fakeUsers struct{ s *fakeStore }

func (r *fakeUsers) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = r.s.nextID("u")
	}
	user.CreatedAt = time.Now()
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *fakeUsers) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUsers) GetMasterAdmin(_ context.Context) (*domain.User, error) {
	for _, user := range r.s.users {
		if user.IsMasterAdmin {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUsers) List(_ context.Context) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.s.users {
		result = append(result, *user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

type fakeModeSwitches struct{ s *fakeStore }

func (r *fakeModeSwitches) Create(_ context.Context, request *domain.ModeSwitchRequest) error {
	if request.ID == "" {
		request.ID = r.s.nextID("m")
	}
	request.CreatedAt = time.Now()
	copied := *request
	r.s.requests = append(r.s.requests, &copied)
	return nil
}

func (r *fakeModeSwitches) GetByID(_ context.Context, id string) (*domain.ModeSwitchRequest, error) {
	for _, request := range r.s.requests {
		if request.ID == id {
			copied := *request
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeModeSwitches) HasPending(_ context.Context, userID string) (bool, error) {
	for _, request := range r.s.requests {
		if request.UserID == userID && request.Status == domain.ModeSwitchPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeModeSwitches) ListPending(_ context.Context) ([]domain.ModeSwitchRequest, error) {
	var result []domain.ModeSwitchRequest
	for _, request := range r.s.requests {
		if request.Status == domain.ModeSwitchPending {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (r *fakeModeSwitches) ListAll(_ context.Context) ([]domain.ModeSwitchRequest, error) {
	result := make([]domain.ModeSwitchRequest, 0, len(r.s.requests))
	for i := len(r.s.requests) - 1; i >= 0; i-- {
		result = append(result, *r.s.requests[i])
	}
	return result, nil
}

func (r *fakeModeSwitches) Decide(_ context.Context, id string, status domain.ModeSwitchStatus, decidedBy string) error {
	for _, request := range r.s.requests {
		if request.ID == id && request.Status == domain.ModeSwitchPending {
			now := time.Now()
			request.Status = status
			request.DecidedBy = &decidedBy
			request.DecidedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

// captureDispatcher records published events.
type captureDispatcher struct {
	published []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *captureDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *captureDispatcher) ofType(eventType events.EventType) []events.Event {
	var result []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
