package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

type fixture struct {
	svc        *IssueService
	store      *fakeStore
	dispatcher *captureDispatcher
	lead       *domain.User
	dev        *domain.User
	outsider   *domain.User
}

func strPtr(s string) *string { return &s }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	dispatcher := &captureDispatcher{}

	lead := &domain.User{ID: "lead", Username: "lena", Role: domain.RoleDeveloper}
	dev := &domain.User{ID: "dev", Username: "devon", Role: domain.RoleTester}
	outsider := &domain.User{ID: "out", Username: "ola", Role: domain.RoleDeveloper}

	store.projects["p1"] = &domain.Project{ID: "p1", Name: "Engine", Prefix: "ENG", IsActive: true}
	store.teams["t1"] = &domain.Team{
		ID:        "t1",
		ProjectID: "p1",
		Name:      "Core",
		LeadID:    strPtr("lead"),
		MemberIDs: []string{"lead", "dev"},
	}

	return &fixture{
		svc: NewIssueService(IssueDependencies{
			Store:      store,
			Dispatcher: dispatcher,
			Logger:     zap.NewNop(),
		}),
		store:      store,
		dispatcher: dispatcher,
		lead:       lead,
		dev:        dev,
		outsider:   outsider,
	}
}

func (f *fixture) createIssue(t *testing.T, input IssueCreateInput) *domain.WorkItem {
	t.Helper()
	item, err := f.svc.CreateIssue(context.Background(), f.lead, input)
	require.NoError(t, err)
	return item
}

func baseInput(issueType domain.IssueType, title string) IssueCreateInput {
	return IssueCreateInput{
		ProjectID: "p1",
		TeamID:    strPtr("t1"),
		IssueType: issueType,
		Title:     title,
	}
}

func TestCreateIssueAllocatesSequentialCodes(t *testing.T) {
	f := newFixture(t)

	first := f.createIssue(t, baseInput(domain.TypeStory, "First story"))
	second := f.createIssue(t, baseInput(domain.TypeStory, "Second story"))

	require.Equal(t, "ENG-0001", first.Code)
	require.Equal(t, "ENG-0002", second.Code)
	require.Equal(t, domain.StatusToDo, first.Status)
	require.Equal(t, domain.PriorityMedium, first.Priority)

	entries := f.store.activityFor(first.ID)
	require.Len(t, entries, 1)
	require.Equal(t, domain.ActionCreated, entries[0].Action)
	require.Equal(t, 1, entries[0].ChangeCount)
	require.True(t, strings.HasPrefix(entries[0].Changes, "Issue Created"))

	require.Len(t, f.dispatcher.ofType(events.EventIssueCreated), 2)
}

func TestCreateDeniedForNonLead(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateIssue(context.Background(), f.dev, baseInput(domain.TypeStory, "Nope"))
	require.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"), "got %v", err)
	require.Empty(t, f.store.items)
	require.Empty(t, f.store.activity)
}

func TestCreateBlockedOnInactiveProject(t *testing.T) {
	f := newFixture(t)
	f.store.projects["p1"].IsActive = false

	admin := &domain.User{ID: "adm", Role: domain.RoleAdmin}
	for _, actor := range []*domain.User{f.lead, admin} {
		_, err := f.svc.CreateIssue(context.Background(), actor, baseInput(domain.TypeStory, "Frozen"))
		require.True(t, errorutil.IsCode(err, "PROJECT_INACTIVE"), "actor %s: got %v", actor.ID, err)
	}
	require.Empty(t, f.store.items)
}

func TestCreateRejectsWrongParentType(t *testing.T) {
	f := newFixture(t)
	task := f.createIssue(t, baseInput(domain.TypeTask, "A task"))

	input := baseInput(domain.TypeStory, "Story under task")
	input.ParentID = &task.ID
	_, err := f.svc.CreateIssue(context.Background(), f.lead, input)
	require.True(t, errorutil.IsCode(err, "INVALID_PARENT"), "got %v", err)
	require.Len(t, f.store.items, 1)
}

func TestCreateSubtaskRequiresParent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateIssue(context.Background(), f.lead, baseInput(domain.TypeSubtask, "Loose subtask"))
	require.True(t, errorutil.IsCode(err, "INVALID_PARENT"), "got %v", err)
}

func TestCreateRejectsParentFromOtherProject(t *testing.T) {
	f := newFixture(t)
	f.store.projects["p2"] = &domain.Project{ID: "p2", Name: "Ops", Prefix: "OPS", IsActive: true}
	f.store.items["foreign"] = &domain.WorkItem{ID: "foreign", ProjectID: "p2", Code: "OPS-0001", IssueType: domain.TypeEpic}

	input := baseInput(domain.TypeStory, "Cross-project child")
	input.ParentID = strPtr("foreign")
	_, err := f.svc.CreateIssue(context.Background(), f.lead, input)
	require.True(t, errorutil.IsCode(err, "INVALID_PARENT"), "got %v", err)
}

func TestUpdateNoOpWritesNothing(t *testing.T) {
	f := newFixture(t)
	item := f.createIssue(t, baseInput(domain.TypeStory, "Stable"))
	before := len(f.store.activity)

	padded := "  Stable  "
	updated, err := f.svc.UpdateIssue(context.Background(), f.lead, item.ID, IssuePatch{Title: &padded})
	require.NoError(t, err)
	require.Equal(t, item.ID, updated.ID)
	require.Len(t, f.store.activity, before)
}

func TestUpdateTitleOnlyRecordsOneChange(t *testing.T) {
	f := newFixture(t)
	item := f.createIssue(t, baseInput(domain.TypeStory, "Old title"))

	_, err := f.svc.UpdateIssue(context.Background(), f.lead, item.ID, IssuePatch{Title: strPtr("New title")})
	require.NoError(t, err)

	entries := f.store.activityFor(item.ID)
	require.Len(t, entries, 2) // created + updated
	last := entries[len(entries)-1]
	require.Equal(t, domain.ActionUpdated, last.Action)
	require.Equal(t, 1, last.ChangeCount)
	require.Equal(t, "title: Old title -> New title", last.Changes)
}

func TestUpdateDoneBlockedByPendingChildren(t *testing.T) {
	f := newFixture(t)
	story := f.createIssue(t, baseInput(domain.TypeStory, "Parent story"))

	taskInput := baseInput(domain.TypeTask, "Child task")
	taskInput.ParentID = &story.ID
	f.createIssue(t, taskInput)

	done := domain.StatusDone
	_, err := f.svc.UpdateIssue(context.Background(), f.lead, story.ID, IssuePatch{Status: &done})
	require.True(t, errorutil.IsCode(err, "BLOCKED_BY_CHILDREN"), "got %v", err)
	require.EqualValues(t, 1, errorutil.ToDomainError(err).Details["pending_children"])

	stored := f.store.items[story.ID]
	require.Equal(t, domain.StatusToDo, stored.Status)
	require.Len(t, f.store.activityFor(story.ID), 1) // only the created entry
}

func TestUpdateDoneAllowedAfterChildrenDone(t *testing.T) {
	f := newFixture(t)
	story := f.createIssue(t, baseInput(domain.TypeStory, "Parent story"))
	taskInput := baseInput(domain.TypeTask, "Child task")
	taskInput.ParentID = &story.ID
	task := f.createIssue(t, taskInput)

	done := domain.StatusDone
	_, err := f.svc.UpdateIssue(context.Background(), f.lead, task.ID, IssuePatch{Status: &done})
	require.NoError(t, err)

	_, err = f.svc.UpdateIssue(context.Background(), f.lead, story.ID, IssuePatch{Status: &done})
	require.NoError(t, err)
	require.Equal(t, domain.StatusDone, f.store.items[story.ID].Status)
}

func TestUpdateParentCycleRejected(t *testing.T) {
	f := newFixture(t)
	epic := f.createIssue(t, baseInput(domain.TypeEpic, "Epic"))
	storyInput := baseInput(domain.TypeStory, "Story")
	storyInput.ParentID = &epic.ID
	story := f.createIssue(t, storyInput)

	// moving the epic under its own descendant is a cycle regardless of types
	_, err := f.svc.UpdateIssue(context.Background(), f.lead, epic.ID, IssuePatch{ParentID: &story.ID})
	require.True(t, errorutil.IsCode(err, "INVALID_PARENT") || errorutil.IsCode(err, "CIRCULAR_DEPENDENCY"), "got %v", err)

	selfRef := story.ID
	_, err = f.svc.UpdateIssue(context.Background(), f.lead, story.ID, IssuePatch{ParentID: &selfRef})
	require.True(t, errorutil.IsCode(err, "CIRCULAR_DEPENDENCY"), "got %v", err)
}

func TestAssigneeMayUpdateButNotDelete(t *testing.T) {
	f := newFixture(t)
	input := baseInput(domain.TypeBug, "Crash on save")
	input.AssigneeID = strPtr("dev")
	item := f.createIssue(t, input)

	status := domain.StatusInProgress
	_, err := f.svc.UpdateIssue(context.Background(), f.dev, item.ID, IssuePatch{Status: &status})
	require.NoError(t, err)

	err = f.svc.DeleteIssue(context.Background(), f.dev, item.ID)
	require.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"), "got %v", err)

	require.NoError(t, f.svc.DeleteIssue(context.Background(), f.lead, item.ID))
	require.NotContains(t, f.store.items, item.ID)
}

func TestOutsiderCannotViewOrEdit(t *testing.T) {
	f := newFixture(t)
	item := f.createIssue(t, baseInput(domain.TypeStory, "Private"))

	_, err := f.svc.GetIssue(context.Background(), f.outsider, item.ID)
	require.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"), "got %v", err)

	_, err = f.svc.UpdateIssue(context.Background(), f.outsider, item.ID, IssuePatch{Title: strPtr("Hijack")})
	require.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"), "got %v", err)
}

func TestDeleteCascadesToDescendants(t *testing.T) {
	f := newFixture(t)
	story := f.createIssue(t, baseInput(domain.TypeStory, "Root"))
	taskInput := baseInput(domain.TypeTask, "Child")
	taskInput.ParentID = &story.ID
	task := f.createIssue(t, taskInput)

	require.NoError(t, f.svc.DeleteIssue(context.Background(), f.lead, story.ID))
	require.NotContains(t, f.store.items, story.ID)
	require.NotContains(t, f.store.items, task.ID)
}

func TestListAvailableParentsExcludesSubtree(t *testing.T) {
	f := newFixture(t)
	f.createIssue(t, baseInput(domain.TypeStory, "Other story"))
	story := f.createIssue(t, baseInput(domain.TypeStory, "Moving story"))
	taskInput := baseInput(domain.TypeTask, "Task below")
	taskInput.ParentID = &story.ID
	f.createIssue(t, taskInput)

	// candidates for a Bug are Stories and Tasks; excluding the moving story
	// also removes the task beneath it
	options, err := f.svc.ListAvailableParents(context.Background(), "p1", domain.TypeBug, &story.ID)
	require.NoError(t, err)
	require.Len(t, options, 1)
	require.Equal(t, "Other story", options[0].Title)

	// epics never take parents
	options, err = f.svc.ListAvailableParents(context.Background(), "p1", domain.TypeEpic, nil)
	require.NoError(t, err)
	require.Empty(t, options)
}

func TestAssignmentPublishesEvent(t *testing.T) {
	f := newFixture(t)
	item := f.createIssue(t, baseInput(domain.TypeStory, "Assign me"))

	_, err := f.svc.UpdateIssue(context.Background(), f.lead, item.ID, IssuePatch{AssigneeID: strPtr("dev")})
	require.NoError(t, err)

	assigned := f.dispatcher.ofType(events.EventIssueAssigned)
	require.Len(t, assigned, 1)
	payload, ok := assigned[0].Payload.(events.IssueAssignedPayload)
	require.True(t, ok)
	require.Equal(t, "dev", payload.AssigneeID)
	require.Equal(t, "Assign me", payload.Title)
}

func TestStatusChangePublishesEvent(t *testing.T) {
	f := newFixture(t)
	input := baseInput(domain.TypeStory, "Track me")
	input.AssigneeID = strPtr("dev")
	item := f.createIssue(t, input)

	status := domain.StatusInProgress
	_, err := f.svc.UpdateIssue(context.Background(), f.lead, item.ID, IssuePatch{Status: &status})
	require.NoError(t, err)

	changed := f.dispatcher.ofType(events.EventIssueStatusChanged)
	require.Len(t, changed, 1)
	payload := changed[0].Payload.(events.IssueStatusChangedPayload)
	require.Equal(t, domain.StatusToDo, payload.OldStatus)
	require.Equal(t, domain.StatusInProgress, payload.NewStatus)
}

func TestViewScopes(t *testing.T) {
	f := newFixture(t)
	input := baseInput(domain.TypeStory, "Scoped")
	input.AssigneeID = strPtr("dev")
	f.createIssue(t, input)

	// team member sees the item via contributor scope
	visible, err := f.svc.ListVisibleIssues(context.Background(), f.dev, nil)
	require.NoError(t, err)
	require.Len(t, visible, 1)

	// outsider in developer mode sees nothing
	visible, err = f.svc.ListVisibleIssues(context.Background(), f.outsider, nil)
	require.NoError(t, err)
	require.Empty(t, visible)

	// admins see everything
	admin := &domain.User{ID: "adm", Role: domain.RoleAdmin}
	visible, err = f.svc.ListVisibleIssues(context.Background(), admin, nil)
	require.NoError(t, err)
	require.Len(t, visible, 1)
}

func TestCreateRetriesLostAllocationRace(t *testing.T) {
	f := newFixture(t)
	f.store.codeSteals = 1

	item := f.createIssue(t, baseInput(domain.TypeStory, "Raced"))
	require.Equal(t, "ENG-0002", item.Code)

	// the competing insert kept the first code
	rival, err := f.store.WorkItems().GetByCode(context.Background(), "ENG-0001")
	require.NoError(t, err)
	require.NotEqual(t, item.ID, rival.ID)

	require.Len(t, f.store.activityFor(item.ID), 1)
	require.Len(t, f.dispatcher.ofType(events.EventIssueCreated), 1)
}

func TestCreateGivesUpAfterRepeatedAllocationConflicts(t *testing.T) {
	f := newFixture(t)
	f.store.codeSteals = maxAllocationAttempts

	_, err := f.svc.CreateIssue(context.Background(), f.lead, baseInput(domain.TypeStory, "Starved"))
	require.True(t, errorutil.IsCode(err, "INTERNAL_ERROR"), "got %v", err)
	require.Empty(t, f.store.activity)
	require.Empty(t, f.dispatcher.ofType(events.EventIssueCreated))
}

func TestUpdateRejectsTeamFromAnotherProject(t *testing.T) {
	f := newFixture(t)
	item := f.createIssue(t, baseInput(domain.TypeStory, "Homed"))

	f.store.projects["p2"] = &domain.Project{ID: "p2", Name: "Billing", Prefix: "BIL", IsActive: true}
	f.store.teams["t2"] = &domain.Team{ID: "t2", ProjectID: "p2", Name: "Money", LeadID: strPtr("lead")}

	_, err := f.svc.UpdateIssue(context.Background(), f.lead, item.ID, IssuePatch{TeamID: strPtr("t2")})
	require.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"), "got %v", err)

	current, err := f.store.WorkItems().GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	require.Equal(t, "t1", *current.TeamID)

	_, err = f.svc.UpdateIssue(context.Background(), f.lead, item.ID, IssuePatch{TeamID: strPtr("missing")})
	require.True(t, errorutil.IsCode(err, "NOT_FOUND"), "got %v", err)
}
