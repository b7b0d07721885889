package authz

import (
	"testing"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

func strPtr(s string) *string { return &s }

func activeProject() *domain.Project {
	return &domain.Project{ID: "p1", Name: "Engine", IsActive: true}
}

func teamLedBy(userID string) *domain.Team {
	return &domain.Team{ID: "t1", ProjectID: "p1", LeadID: strPtr(userID), MemberIDs: []string{userID}}
}

func TestCreateRequiresTeamLead(t *testing.T) {
	lead := &domain.User{ID: "u1", Role: domain.RoleDeveloper}
	member := &domain.User{ID: "u2", Role: domain.RoleDeveloper}
	team := teamLedBy("u1")

	decision := CanPerform(lead, ActionCreate, nil, AccessContext{Project: activeProject(), Team: team})
	if !decision.Allowed {
		t.Fatalf("lead should create, denied with %q", decision.Reason)
	}

	decision = CanPerform(member, ActionCreate, nil, AccessContext{Project: activeProject(), Team: team})
	if decision.Allowed || decision.Reason != DenyNotTeamLead {
		t.Fatalf("non-lead create: got %+v", decision)
	}
}

func TestCreateWithoutTeamDenied(t *testing.T) {
	actor := &domain.User{ID: "u1", Role: domain.RoleDeveloper}
	decision := CanPerform(actor, ActionCreate, nil, AccessContext{Project: activeProject()})
	if decision.Allowed || decision.Reason != DenyTeamRequired {
		t.Fatalf("got %+v", decision)
	}
}

func TestCreateTeamFromOtherProjectDenied(t *testing.T) {
	actor := &domain.User{ID: "u1", Role: domain.RoleDeveloper}
	team := &domain.Team{ID: "t9", ProjectID: "p2", LeadID: strPtr("u1")}
	decision := CanPerform(actor, ActionCreate, nil, AccessContext{Project: activeProject(), Team: team})
	if decision.Allowed || decision.Reason != DenyTeamProjectMismatch {
		t.Fatalf("got %+v", decision)
	}
}

func TestInactiveProjectBlocksEveryoneIncludingAdmins(t *testing.T) {
	inactive := &domain.Project{ID: "p1", IsActive: false}
	actors := []*domain.User{
		{ID: "u1", Role: domain.RoleDeveloper},
		{ID: "u2", Role: domain.RoleAdmin},
		{ID: "u3", Role: domain.RoleDeveloper, IsMasterAdmin: true},
	}
	for _, actor := range actors {
		decision := CanPerform(actor, ActionUpdate, &domain.WorkItem{ProjectID: "p1"}, AccessContext{Project: inactive})
		if decision.Allowed || decision.Reason != DenyProjectInactive {
			t.Errorf("actor %s on inactive project: got %+v", actor.ID, decision)
		}
	}
}

func TestInactiveProjectStillViewable(t *testing.T) {
	actor := &domain.User{ID: "u1", Role: domain.RoleDeveloper}
	item := &domain.WorkItem{ProjectID: "p1", AssigneeID: strPtr("u1")}
	decision := CanPerform(actor, ActionView, item, AccessContext{})
	if !decision.Allowed {
		t.Fatalf("assignee view denied: %q", decision.Reason)
	}
}

func TestOtherRoleIsReadOnly(t *testing.T) {
	actor := &domain.User{ID: "u1", Role: domain.RoleOther}
	team := teamLedBy("u1")
	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		decision := CanPerform(actor, action, &domain.WorkItem{ProjectID: "p1"}, AccessContext{Project: activeProject(), Team: team})
		if decision.Allowed || decision.Reason != DenyReadOnlyRole {
			t.Errorf("action %s: got %+v", action, decision)
		}
	}
	decision := CanPerform(actor, ActionView, &domain.WorkItem{ProjectID: "p1"}, AccessContext{Team: team})
	if !decision.Allowed {
		t.Fatalf("OTHER team member view denied: %q", decision.Reason)
	}
}

func TestAssigneeMayUpdateButNotDelete(t *testing.T) {
	assignee := &domain.User{ID: "u2", Role: domain.RoleTester}
	item := &domain.WorkItem{ProjectID: "p1", AssigneeID: strPtr("u2")}
	team := teamLedBy("u1")

	decision := CanPerform(assignee, ActionUpdate, item, AccessContext{Project: activeProject(), Team: team})
	if !decision.Allowed {
		t.Fatalf("assignee update denied: %q", decision.Reason)
	}

	decision = CanPerform(assignee, ActionDelete, item, AccessContext{Project: activeProject(), Team: team})
	if decision.Allowed || decision.Reason != DenyNotTeamLead {
		t.Fatalf("assignee delete: got %+v", decision)
	}
}

func TestLeadMayDelete(t *testing.T) {
	lead := &domain.User{ID: "u1", Role: domain.RoleDeveloper}
	item := &domain.WorkItem{ProjectID: "p1"}
	decision := CanPerform(lead, ActionDelete, item, AccessContext{Project: activeProject(), Team: teamLedBy("u1")})
	if !decision.Allowed {
		t.Fatalf("lead delete denied: %q", decision.Reason)
	}
}

func TestAdminRolePassesRoleGates(t *testing.T) {
	admin := &domain.User{ID: "u9", Role: domain.RoleAdmin}
	item := &domain.WorkItem{ProjectID: "p1"}
	for _, action := range []Action{ActionUpdate, ActionDelete} {
		decision := CanPerform(admin, action, item, AccessContext{Project: activeProject()})
		if !decision.Allowed {
			t.Errorf("admin %s denied: %q", action, decision.Reason)
		}
	}
}

func TestViewVisibility(t *testing.T) {
	item := &domain.WorkItem{ID: "i1", ProjectID: "p1"}
	tests := []struct {
		name    string
		ctx     AccessContext
		allowed bool
	}{
		{"lead of any team in project", AccessContext{LeadsTeamInProject: true}, true},
		{"member of item team", AccessContext{Team: &domain.Team{ProjectID: "p1", MemberIDs: []string{"u5"}}}, true},
		{"assigned elsewhere in project", AccessContext{AssignedInProject: true}, true},
		{"unrelated user", AccessContext{}, false},
	}
	actor := &domain.User{ID: "u5", Role: domain.RoleDeveloper}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := CanPerform(actor, ActionView, item, tc.ctx)
			if decision.Allowed != tc.allowed {
				t.Fatalf("got %+v", decision)
			}
		})
	}
}

func TestViewModeGrantsNothing(t *testing.T) {
	// ADMIN view mode is a listing scope; an unrelated developer in ADMIN
	// mode still cannot see or touch another project's issue.
	actor := &domain.User{ID: "u7", Role: domain.RoleDeveloper, ViewMode: domain.ViewModeAdmin}
	item := &domain.WorkItem{ProjectID: "p1"}

	if decision := CanPerform(actor, ActionView, item, AccessContext{}); decision.Allowed {
		t.Fatal("view mode must not grant visibility")
	}
	decision := CanPerform(actor, ActionUpdate, item, AccessContext{Project: activeProject()})
	if decision.Allowed {
		t.Fatal("view mode must not grant update rights")
	}
}
