package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/allocator"
	"github.com/spec-kit/issue-tracker/internal/audit"
	"github.com/spec-kit/issue-tracker/internal/authz"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/hierarchy"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/internal/workflow"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// allocation retries absorb code races lost despite the prefix lock
const maxAllocationAttempts = 3

// IssueService orchestrates work item mutations: permission check, hierarchy
// validation, code allocation, workflow gating, diff computation and audit
// append run inside one transaction per mutation. Notifications are emitted
// after commit and never abort a mutation.
type IssueService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IssueDependencies bundles requirements for the issue service.
type IssueDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// IssueCreateInput describes issue creation payload.
type IssueCreateInput struct {
	ProjectID     string
	TeamID        *string
	ParentID      *string
	IssueType     domain.IssueType
	Title         string
	Description   string
	Priority      domain.Priority
	Status        domain.Status
	AssigneeID    *string
	Reviewer      *string
	SprintNumber  *string
	ReleaseNumber *string
	StartDate     *time.Time
	EndDate       *time.Time
}

// IssuePatch carries partial updates. Nil means unchanged; for optional
// references (assignee, team, parent) an empty string clears the value.
type IssuePatch struct {
	Title          *string
	Description    *string
	Status         *domain.Status
	IssueType      *domain.IssueType
	Priority       *domain.Priority
	AssigneeID     *string
	Reviewer       *string
	SprintNumber   *string
	ReleaseNumber  *string
	StartDate      *time.Time
	ClearStartDate bool
	EndDate        *time.Time
	ClearEndDate   bool
	TeamID         *string
	ParentID       *string
}

// parentResolver adapts the work item repository for ancestry walks.
type parentResolver struct {
	items repository.WorkItemRepository
}

func (r parentResolver) GetWorkItem(ctx context.Context, id string) (*domain.WorkItem, error) {
	item, err := r.items.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// CreateIssue creates a work item after the full check sequence. Allocation
// conflicts are retried transparently and never surfaced to the caller.
func (s *IssueService) CreateIssue(ctx context.Context, actor *domain.User, input IssueCreateInput) (*domain.WorkItem, error) {
	if !domain.ValidIssueType(input.IssueType) {
		return nil, errorutil.NewValidationError("invalid issue type", map[string]any{"issue_type": input.IssueType})
	}

	var item *domain.WorkItem
	var err error
	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		item, err = s.createOnce(ctx, actor, input)
		if err == nil || !errorutil.IsCode(err, "ALLOCATION_CONFLICT") {
			break
		}
		s.logger.Warn("issue code allocation conflict; retrying",
			zap.String("project_id", input.ProjectID),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		if errorutil.IsCode(err, "ALLOCATION_CONFLICT") {
			return nil, errorutil.NewInternalError(err)
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: item.ID,
		ActorID: &actor.ID,
		Payload: events.IssueCreatedPayload{
			ProjectID:  item.ProjectID,
			TeamID:     item.TeamID,
			AssigneeID: item.AssigneeID,
			IssueType:  item.IssueType,
			Title:      item.Title,
		},
	})
	if item.AssigneeID != nil {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssueAssigned,
			IssueID: item.ID,
			ActorID: &actor.ID,
			Payload: events.IssueAssignedPayload{AssigneeID: *item.AssigneeID, Title: item.Title},
		})
	}
	return item, nil
}

func (s *IssueService) createOnce(ctx context.Context, actor *domain.User, input IssueCreateInput) (*domain.WorkItem, error) {
	var created *domain.WorkItem
	err := s.store.InTx(ctx, func(st repository.Store) error {
		project, err := st.Projects().GetByID(ctx, input.ProjectID)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("Project", nil)
		}
		if err != nil {
			return err
		}

		var team *domain.Team
		if input.TeamID != nil && *input.TeamID != "" {
			team, err = st.Teams().GetByID(ctx, *input.TeamID)
			if errors.Is(err, pgx.ErrNoRows) {
				return errorutil.NewNotFound("Team", nil)
			}
			if err != nil {
				return err
			}
		}

		decision := authz.CanPerform(actor, authz.ActionCreate, nil, authz.AccessContext{
			Project: project,
			Team:    team,
		})
		if !decision.Allowed {
			return denialError(decision.Reason, authz.ActionCreate)
		}

		if err := s.checkParent(ctx, st, project.ID, input.ParentID, input.IssueType, nil); err != nil {
			return err
		}

		code, err := allocator.NextCode(ctx, st.WorkItems(), project)
		if err != nil {
			return err
		}

		item := &domain.WorkItem{
			ProjectID:     project.ID,
			Code:          code,
			TeamID:        input.TeamID,
			AssigneeID:    input.AssigneeID,
			Reviewer:      input.Reviewer,
			Title:         input.Title,
			Description:   input.Description,
			IssueType:     input.IssueType,
			Priority:      input.Priority,
			Status:        input.Status,
			ParentID:      normalizeRef(input.ParentID),
			SprintNumber:  input.SprintNumber,
			ReleaseNumber: input.ReleaseNumber,
			StartDate:     input.StartDate,
			EndDate:       input.EndDate,
			CreatedBy:     &actor.ID,
		}
		if item.Priority == "" {
			item.Priority = domain.PriorityMedium
		}
		if item.Status == "" {
			item.Status = domain.StatusToDo
		}

		if err := st.WorkItems().Create(ctx, item); err != nil {
			if repository.IsUniqueViolation(err, "work_items_code_key") {
				return errorutil.NewAllocationConflict(code)
			}
			return err
		}

		changes, count := audit.CreatedEntry(string(item.Status))
		entry := &domain.Activity{
			WorkItemID:  item.ID,
			UserID:      &actor.ID,
			Action:      domain.ActionCreated,
			Changes:     changes,
			ChangeCount: count,
		}
		if err := st.Activity().Create(ctx, entry); err != nil {
			return err
		}
		created = item
		return nil
	})
	return created, err
}

// UpdateIssue applies a partial update. An update whose normalized values all
// match the current ones is a no-op: nothing is written, no audit entry
// appears, and the current item is returned.
func (s *IssueService) UpdateIssue(ctx context.Context, actor *domain.User, issueID string, patch IssuePatch) (*domain.WorkItem, error) {
	var updated *domain.WorkItem
	var statusEvent *events.IssueStatusChangedPayload
	var priorityEvent *events.IssuePriorityChangedPayload
	var assignedEvent *events.IssueAssignedPayload

	err := s.store.InTx(ctx, func(st repository.Store) error {
		item, err := st.WorkItems().GetByID(ctx, issueID)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("Issue", nil)
		}
		if err != nil {
			return err
		}

		project, err := st.Projects().GetByID(ctx, item.ProjectID)
		if err != nil {
			return err
		}

		team, err := s.itemTeam(ctx, st, item)
		if err != nil {
			return err
		}

		decision := authz.CanPerform(actor, authz.ActionUpdate, item, authz.AccessContext{
			Project: project,
			Team:    team,
		})
		if !decision.Allowed {
			return denialError(decision.Reason, authz.ActionUpdate)
		}

		newType := item.IssueType
		if patch.IssueType != nil {
			if !domain.ValidIssueType(*patch.IssueType) {
				return errorutil.NewValidationError("invalid issue type", map[string]any{"issue_type": *patch.IssueType})
			}
			newType = *patch.IssueType
		}

		targetParent := item.ParentID
		if patch.ParentID != nil {
			targetParent = normalizeRef(patch.ParentID)
		}
		if patch.ParentID != nil || newType != item.IssueType {
			if err := s.checkParent(ctx, st, item.ProjectID, targetParent, newType, &item.ID); err != nil {
				return err
			}
		}

		if patch.Status != nil && !item.Status.IsDone() && patch.Status.IsDone() {
			children, err := st.WorkItems().ListChildren(ctx, item.ID)
			if err != nil {
				return err
			}
			if err := workflow.CanTransition(item, *patch.Status, children); err != nil {
				return err
			}
		}

		if next := normalizeRef(patch.TeamID); patch.TeamID != nil && next != nil {
			target, err := st.Teams().GetByID(ctx, *next)
			if errors.Is(err, pgx.ErrNoRows) {
				return errorutil.NewNotFound("Team", nil)
			}
			if err != nil {
				return err
			}
			if target.ProjectID != item.ProjectID {
				return errorutil.NewValidationError("team belongs to a different project", map[string]any{"team_id": target.ID})
			}
		}

		rec := &audit.Recorder{}
		oldStatus, oldPriority, oldAssignee := item.Status, item.Priority, item.AssigneeID

		if patch.TeamID != nil {
			rec.TrackPtr("team", item.TeamID, normalizeRef(patch.TeamID))
			item.TeamID = normalizeRef(patch.TeamID)
		}
		if patch.Title != nil {
			rec.Track("title", item.Title, *patch.Title)
			item.Title = *patch.Title
		}
		if patch.Status != nil {
			rec.Track("status", string(item.Status), string(*patch.Status))
			item.Status = *patch.Status
		}
		if patch.Priority != nil {
			rec.Track("priority", string(item.Priority), string(*patch.Priority))
			item.Priority = *patch.Priority
		}
		if patch.AssigneeID != nil {
			rec.TrackPtr("assignee", item.AssigneeID, normalizeRef(patch.AssigneeID))
			item.AssigneeID = normalizeRef(patch.AssigneeID)
		}
		if patch.Description != nil {
			rec.Track("description", item.Description, *patch.Description)
			item.Description = *patch.Description
		}
		if patch.IssueType != nil {
			rec.Track("issue_type", string(item.IssueType), string(*patch.IssueType))
			item.IssueType = *patch.IssueType
		}
		if patch.Reviewer != nil {
			rec.TrackPtr("reviewer", item.Reviewer, patch.Reviewer)
			item.Reviewer = patch.Reviewer
		}
		if patch.SprintNumber != nil {
			rec.TrackPtr("sprint_number", item.SprintNumber, patch.SprintNumber)
			item.SprintNumber = patch.SprintNumber
		}
		if patch.ReleaseNumber != nil {
			rec.TrackPtr("release_number", item.ReleaseNumber, patch.ReleaseNumber)
			item.ReleaseNumber = patch.ReleaseNumber
		}
		if patch.StartDate != nil || patch.ClearStartDate {
			next := patch.StartDate
			if patch.ClearStartDate {
				next = nil
			}
			rec.TrackDate("start_date", item.StartDate, next)
			item.StartDate = next
		}
		if patch.EndDate != nil || patch.ClearEndDate {
			next := patch.EndDate
			if patch.ClearEndDate {
				next = nil
			}
			rec.TrackDate("end_date", item.EndDate, next)
			item.EndDate = next
		}
		if patch.ParentID != nil {
			rec.TrackPtr("parent", item.ParentID, targetParent)
			item.ParentID = targetParent
		}

		if rec.Empty() {
			updated = item
			return nil
		}

		if err := st.WorkItems().Update(ctx, item); err != nil {
			return err
		}

		changes, count := rec.Render()
		entry := &domain.Activity{
			WorkItemID:  item.ID,
			UserID:      &actor.ID,
			Action:      domain.ActionUpdated,
			Changes:     changes,
			ChangeCount: count,
		}
		if err := st.Activity().Create(ctx, entry); err != nil {
			return err
		}

		if item.Status != oldStatus {
			statusEvent = &events.IssueStatusChangedPayload{
				AssigneeID: item.AssigneeID,
				Title:      item.Title,
				OldStatus:  oldStatus,
				NewStatus:  item.Status,
			}
		}
		if item.Priority != oldPriority {
			priorityEvent = &events.IssuePriorityChangedPayload{
				AssigneeID:  item.AssigneeID,
				Title:       item.Title,
				OldPriority: oldPriority,
				NewPriority: item.Priority,
			}
		}
		if item.AssigneeID != nil && (oldAssignee == nil || *oldAssignee != *item.AssigneeID) {
			assignedEvent = &events.IssueAssignedPayload{AssigneeID: *item.AssigneeID, Title: item.Title}
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	if statusEvent != nil {
		s.publishEvent(ctx, events.Event{Type: events.EventIssueStatusChanged, IssueID: updated.ID, ActorID: &actor.ID, Payload: *statusEvent})
	}
	if priorityEvent != nil {
		s.publishEvent(ctx, events.Event{Type: events.EventIssuePriorityChanged, IssueID: updated.ID, ActorID: &actor.ID, Payload: *priorityEvent})
	}
	if assignedEvent != nil {
		s.publishEvent(ctx, events.Event{Type: events.EventIssueAssigned, IssueID: updated.ID, ActorID: &actor.ID, Payload: *assignedEvent})
	}
	return updated, nil
}

// DeleteIssue removes a work item and, through the parent FK, its whole
// subtree. Team lead only; the assignee may not delete.
func (s *IssueService) DeleteIssue(ctx context.Context, actor *domain.User, issueID string) error {
	return s.store.InTx(ctx, func(st repository.Store) error {
		item, err := st.WorkItems().GetByID(ctx, issueID)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("Issue", nil)
		}
		if err != nil {
			return err
		}

		project, err := st.Projects().GetByID(ctx, item.ProjectID)
		if err != nil {
			return err
		}

		team, err := s.itemTeam(ctx, st, item)
		if err != nil {
			return err
		}

		decision := authz.CanPerform(actor, authz.ActionDelete, item, authz.AccessContext{
			Project: project,
			Team:    team,
		})
		if !decision.Allowed {
			return denialError(decision.Reason, authz.ActionDelete)
		}

		return st.WorkItems().Delete(ctx, item.ID)
	})
}

// GetIssue fetches a work item, enforcing visibility.
func (s *IssueService) GetIssue(ctx context.Context, actor *domain.User, issueID string) (*domain.WorkItem, error) {
	item, err := s.store.WorkItems().GetByID(ctx, issueID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.NewNotFound("Issue", nil)
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkView(ctx, actor, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetIssueByCode fetches a work item by its human-readable code, enforcing
// visibility.
func (s *IssueService) GetIssueByCode(ctx context.Context, actor *domain.User, code string) (*domain.WorkItem, error) {
	item, err := s.store.WorkItems().GetByCode(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.NewNotFound("Issue", nil)
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkView(ctx, actor, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListVisibleIssues returns the issues reachable under the actor's view
// mode. Admins and the master admin see everything; ADMIN mode narrows to
// owned projects; DEVELOPER mode narrows to contributed projects and teams.
func (s *IssueService) ListVisibleIssues(ctx context.Context, actor *domain.User, projectID *string) ([]domain.WorkItem, error) {
	items := s.store.WorkItems()
	if actor.IsMasterAdmin || actor.Role == domain.RoleAdmin {
		return items.ListAll(ctx, projectID)
	}
	if actor.EffectiveViewMode() == domain.ViewModeAdmin {
		return items.ListOwnerScope(ctx, actor.ID, projectID)
	}
	return items.ListContributorScope(ctx, actor.ID, projectID)
}

// ListAvailableParents returns issues eligible to parent a new or moved item
// of the given type. excludeID removes the item itself and its descendants so
// the picker can never offer a cycle.
func (s *IssueService) ListAvailableParents(ctx context.Context, projectID string, issueType domain.IssueType, excludeID *string) ([]domain.IssueSummary, error) {
	types := hierarchy.AllowedParentTypes(issueType)
	if len(types) == 0 {
		return []domain.IssueSummary{}, nil
	}
	summaries, err := s.store.WorkItems().ListSummariesByTypes(ctx, projectID, types)
	if err != nil {
		return nil, err
	}
	if excludeID == nil || *excludeID == "" {
		return summaries, nil
	}

	excluded, err := s.subtreeIDs(ctx, *excludeID)
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.IssueSummary, 0, len(summaries))
	for _, summary := range summaries {
		if _, skip := excluded[summary.ID]; skip {
			continue
		}
		filtered = append(filtered, summary)
	}
	return filtered, nil
}

// GetActivity returns the audit trail for an issue, newest first.
func (s *IssueService) GetActivity(ctx context.Context, actor *domain.User, issueID string) ([]domain.Activity, error) {
	item, err := s.store.WorkItems().GetByID(ctx, issueID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.NewNotFound("Issue", nil)
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkView(ctx, actor, item); err != nil {
		return nil, err
	}
	return s.store.Activity().ListByWorkItem(ctx, issueID)
}

// checkParent validates a parent assignment: same project, existing target,
// compatible types, no cycles.
func (s *IssueService) checkParent(ctx context.Context, st repository.Store, projectID string, parentID *string, childType domain.IssueType, currentID *string) error {
	if parentID != nil && *parentID != "" {
		parent, err := st.WorkItems().GetByID(ctx, *parentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewInvalidParent("parent issue does not exist", nil)
		}
		if err != nil {
			return err
		}
		if parent.ProjectID != projectID {
			return errorutil.NewInvalidParent("parent issue belongs to a different project", nil)
		}
	}
	return hierarchy.ValidateParent(ctx, parentResolver{items: st.WorkItems()}, parentID, childType, currentID)
}

// checkView assembles the visibility context and evaluates the predicate.
func (s *IssueService) checkView(ctx context.Context, actor *domain.User, item *domain.WorkItem) error {
	team, err := s.itemTeam(ctx, s.store, item)
	if err != nil {
		return err
	}
	leads, err := s.store.Teams().LeadsAnyTeamInProject(ctx, item.ProjectID, actor.ID)
	if err != nil {
		return err
	}
	assigned, err := s.store.WorkItems().HasAssignmentInProject(ctx, item.ProjectID, actor.ID)
	if err != nil {
		return err
	}
	decision := authz.CanPerform(actor, authz.ActionView, item, authz.AccessContext{
		Team:               team,
		LeadsTeamInProject: leads,
		AssignedInProject:  assigned,
	})
	if !decision.Allowed {
		return denialError(decision.Reason, authz.ActionView)
	}
	return nil
}

func (s *IssueService) itemTeam(ctx context.Context, st repository.Store, item *domain.WorkItem) (*domain.Team, error) {
	if item.TeamID == nil {
		return nil, nil
	}
	team, err := st.Teams().GetByID(ctx, *item.TeamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return team, err
}

func (s *IssueService) subtreeIDs(ctx context.Context, rootID string) (map[string]struct{}, error) {
	ids := map[string]struct{}{rootID: {}}
	queue := []string{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		children, err := s.store.WorkItems().ListChildren(ctx, current)
		if err != nil {
			return nil, err
		}
		for i := range children {
			if _, seen := ids[children[i].ID]; seen {
				continue
			}
			ids[children[i].ID] = struct{}{}
			queue = append(queue, children[i].ID)
		}
	}
	return ids, nil
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// normalizeRef maps the "clear" sentinel (empty string) to nil.
func normalizeRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	return ref
}

// denialError maps the unmet condition to the user-facing message for the
// attempted action.
func denialError(reason authz.DenyReason, action authz.Action) error {
	switch reason {
	case authz.DenyProjectInactive:
		return errorutil.NewProjectInactive()
	case authz.DenyReadOnlyRole:
		return errorutil.NewPermissionDenied("Read-only access for this role")
	case authz.DenyTeamRequired, authz.DenyTeamProjectMismatch:
		return errorutil.NewPermissionDenied("You do not have permission to create issues in this project. Team Leads must specify their team.")
	}
	switch action {
	case authz.ActionCreate:
		return errorutil.NewPermissionDenied("You do not have permission to create issues in this project.")
	case authz.ActionUpdate:
		return errorutil.NewPermissionDenied("No permission to edit this issue.")
	case authz.ActionDelete:
		return errorutil.NewPermissionDenied("Only Admins or Team Leads can delete issues.")
	default:
		return errorutil.NewPermissionDenied("Access denied")
	}
}
