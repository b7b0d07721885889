// Package workflow gates status transitions. The only enforced rule is that
// an issue may move into Done only once every direct child is Done; all other
// transitions are unrestricted.
package workflow

import (
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// CanTransition checks a status change against the item's direct children.
func CanTransition(item *domain.WorkItem, newStatus domain.Status, children []domain.WorkItem) error {
	if !newStatus.IsDone() {
		return nil
	}
	pending := 0
	for i := range children {
		if !children[i].Status.IsDone() {
			pending++
		}
	}
	if pending > 0 {
		return errorutil.NewBlockedByChildren(pending)
	}
	return nil
}
