package workflow

import (
	"testing"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

func TestDoneBlockedByPendingChildren(t *testing.T) {
	item := &domain.WorkItem{ID: "i1", Status: domain.StatusInProgress}
	children := []domain.WorkItem{
		{ID: "c1", Status: domain.StatusDone},
		{ID: "c2", Status: domain.StatusToDo},
		{ID: "c3", Status: domain.StatusInReview},
	}
	err := CanTransition(item, domain.StatusDone, children)
	if !errorutil.IsCode(err, "BLOCKED_BY_CHILDREN") {
		t.Fatalf("got %v", err)
	}
	domainErr := errorutil.ToDomainError(err)
	if got := domainErr.Details["pending_children"]; got != 2 {
		t.Fatalf("pending count = %v, want 2", got)
	}
}

func TestDoneAllowedWhenChildrenDone(t *testing.T) {
	item := &domain.WorkItem{ID: "i1", Status: domain.StatusInProgress}
	children := []domain.WorkItem{
		{ID: "c1", Status: domain.StatusDone},
		{ID: "c2", Status: "done"},
	}
	if err := CanTransition(item, domain.StatusDone, children); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDoneAllowedWithoutChildren(t *testing.T) {
	if err := CanTransition(&domain.WorkItem{ID: "i1"}, domain.StatusDone, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNonDoneTransitionsUnrestricted(t *testing.T) {
	item := &domain.WorkItem{ID: "i1", Status: domain.StatusToDo}
	children := []domain.WorkItem{{ID: "c1", Status: domain.StatusToDo}}
	for _, status := range []domain.Status{domain.StatusInProgress, domain.StatusInReview, domain.StatusToDo} {
		if err := CanTransition(item, status, children); err != nil {
			t.Errorf("transition to %s: %v", status, err)
		}
	}
}
