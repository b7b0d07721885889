// Package hierarchy validates parent-child work item assignments. Epics take
// no parent, Stories nest under Epics, Tasks under Stories, Subtasks under
// Tasks, and Bugs under Stories or Tasks. Cycle detection walks the ancestor
// chain with a visited set so it terminates even over corrupted data.
package hierarchy

import (
	"context"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// parentTypes maps each child type to its permitted parent types. A missing
// entry means the type never takes a parent.
var parentTypes = map[domain.IssueType][]domain.IssueType{
	domain.TypeStory:   {domain.TypeEpic},
	domain.TypeTask:    {domain.TypeStory},
	domain.TypeSubtask: {domain.TypeTask},
	domain.TypeBug:     {domain.TypeStory, domain.TypeTask},
}

// AllowedParentTypes returns the permitted parent types for a child type.
func AllowedParentTypes(childType domain.IssueType) []domain.IssueType {
	return parentTypes[childType]
}

// ParentRequired reports whether the type cannot exist at the forest root.
// Only Subtasks require a parent; Stories, Tasks and Bugs may omit one.
func ParentRequired(childType domain.IssueType) bool {
	return childType == domain.TypeSubtask
}

// Resolver looks up work items by id during ancestry walks.
type Resolver interface {
	GetWorkItem(ctx context.Context, id string) (*domain.WorkItem, error)
}

// ValidateParent checks a candidate parent assignment for a child of the given
// type. currentID is the id of the item being reassigned, or nil on create.
func ValidateParent(ctx context.Context, resolver Resolver, candidateParentID *string, childType domain.IssueType, currentID *string) error {
	if candidateParentID == nil || *candidateParentID == "" {
		if childType == domain.TypeEpic {
			return nil
		}
		if ParentRequired(childType) {
			return errorutil.NewInvalidParent("a Subtask requires a parent Task", nil)
		}
		return nil
	}

	if childType == domain.TypeEpic {
		return errorutil.NewInvalidParent("an Epic cannot have a parent", nil)
	}

	if currentID != nil && *candidateParentID == *currentID {
		return errorutil.NewCircularDependency("an issue cannot be its own parent")
	}

	parent, err := resolver.GetWorkItem(ctx, *candidateParentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return errorutil.NewInvalidParent("parent issue does not exist", nil)
	}

	if currentID != nil {
		if err := checkAncestry(ctx, resolver, parent, *currentID); err != nil {
			return err
		}
	}

	for _, allowed := range parentTypes[childType] {
		if parent.IssueType == allowed {
			return nil
		}
	}
	return errorutil.NewInvalidParent("", map[string]any{
		"child_type":  childType,
		"parent_type": parent.IssueType,
	})
}

// checkAncestry walks upward from the candidate parent and rejects if the
// item being reassigned appears among its ancestors. The visited set
// guarantees termination over pre-existing cycles.
func checkAncestry(ctx context.Context, resolver Resolver, parent *domain.WorkItem, currentID string) error {
	visited := map[string]struct{}{}
	node := parent
	for node != nil {
		if node.ID == currentID {
			return errorutil.NewCircularDependency("")
		}
		if _, seen := visited[node.ID]; seen {
			// corrupted chain already loops; reassignment cannot make it worse
			return errorutil.NewCircularDependency("")
		}
		visited[node.ID] = struct{}{}
		if node.ParentID == nil {
			return nil
		}
		next, err := resolver.GetWorkItem(ctx, *node.ParentID)
		if err != nil {
			return err
		}
		node = next
	}
	return nil
}
