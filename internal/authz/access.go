// Package authz evaluates whether an actor may perform an action on a work
// item. Decisions are pure functions over an explicit capability matrix; the
// caller supplies everything the matrix needs as an AccessContext snapshot so
// no storage is touched here.
package authz

import "github.com/spec-kit/issue-tracker/internal/domain"

// Action enumerates the operations the matrix covers.
type Action string

const (
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// DenyReason identifies the specific unmet condition so callers can map it to
// a precise user-facing message.
type DenyReason string

const (
	DenyNone                DenyReason = ""
	DenyReadOnlyRole        DenyReason = "read_only_role"
	DenyProjectInactive     DenyReason = "project_inactive"
	DenyTeamRequired        DenyReason = "team_required"
	DenyTeamProjectMismatch DenyReason = "team_project_mismatch"
	DenyNotTeamLead         DenyReason = "not_team_lead"
	DenyNotLeadOrAssignee   DenyReason = "not_lead_or_assignee"
	DenyNotVisible          DenyReason = "not_visible"
)

// AccessContext supplies the project/team facts the predicate evaluates.
// Team is the work item's team (or the target team for create). The boolean
// fields are precomputed lookups scoped to the work item's project.
type AccessContext struct {
	Project            *domain.Project
	Team               *domain.Team
	LeadsTeamInProject bool
	TeamMember         bool
	AssignedInProject  bool
}

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// CanPerform evaluates the capability matrix. item is nil for create checks;
// ctx.Project must be the item's (or target) project.
//
// Admins and the master admin pass every role gate, but the inactive-project
// gate is project state, not a role gate, so it blocks them too.
func CanPerform(actor *domain.User, action Action, item *domain.WorkItem, ctx AccessContext) Decision {
	if action != ActionView {
		if ctx.Project == nil || !ctx.Project.IsActive {
			return deny(DenyProjectInactive)
		}
		if actor.Role == domain.RoleOther {
			return deny(DenyReadOnlyRole)
		}
	}

	if actor.IsMasterAdmin || actor.Role == domain.RoleAdmin {
		return allow()
	}

	switch action {
	case ActionCreate:
		return canCreate(actor, ctx)
	case ActionUpdate:
		return canMutate(actor, item, ctx, true)
	case ActionDelete:
		return canMutate(actor, item, ctx, false)
	case ActionView:
		return canView(actor, item, ctx)
	}
	return deny(DenyNotVisible)
}

// canCreate: only the lead of the target team may create, and the team must
// belong to the target project.
func canCreate(actor *domain.User, ctx AccessContext) Decision {
	if ctx.Team == nil {
		return deny(DenyTeamRequired)
	}
	if ctx.Project != nil && ctx.Team.ProjectID != ctx.Project.ID {
		return deny(DenyTeamProjectMismatch)
	}
	if !ctx.Team.IsLead(actor.ID) {
		return deny(DenyNotTeamLead)
	}
	return allow()
}

// canMutate: team lead may update and delete; the assignee may update but
// never delete.
func canMutate(actor *domain.User, item *domain.WorkItem, ctx AccessContext, allowAssignee bool) Decision {
	if ctx.Team != nil && ctx.Team.IsLead(actor.ID) {
		return allow()
	}
	if allowAssignee && item != nil && item.AssigneeID != nil && *item.AssigneeID == actor.ID {
		return allow()
	}
	if allowAssignee {
		return deny(DenyNotLeadOrAssignee)
	}
	return deny(DenyNotTeamLead)
}

// canView: lead of any team in the project, member of the item's team, the
// assignee, or assignee on any other item in the same project.
func canView(actor *domain.User, item *domain.WorkItem, ctx AccessContext) Decision {
	if ctx.LeadsTeamInProject {
		return allow()
	}
	if ctx.Team != nil && ctx.Team.HasMember(actor.ID) {
		return allow()
	}
	if item != nil && item.AssigneeID != nil && *item.AssigneeID == actor.ID {
		return allow()
	}
	if ctx.AssignedInProject {
		return allow()
	}
	return deny(DenyNotVisible)
}
