package domain

import (
	"strings"
	"time"
)

// IssueType enumerates the five work item types forming the containment
// hierarchy Epic -> Story -> Task/Bug -> Subtask.
type IssueType string

const (
	TypeEpic    IssueType = "Epic"
	TypeStory   IssueType = "Story"
	TypeTask    IssueType = "Task"
	TypeBug     IssueType = "Bug"
	TypeSubtask IssueType = "Subtask"
)

// ValidIssueType reports whether the type is one of the closed set.
func ValidIssueType(t IssueType) bool {
	switch t {
	case TypeEpic, TypeStory, TypeTask, TypeBug, TypeSubtask:
		return true
	}
	return false
}

// Status is a free-form workflow state. Only the transition into Done is gated.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusInReview   Status = "In Review"
	StatusDone       Status = "Done"
)

// IsDone compares against Done case-insensitively.
func (s Status) IsDone() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(StatusDone))
}

// Priority enumerates urgency levels.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// WorkItem is the aggregate for issues. ParentID forms a forest; ProjectID is
// immutable after creation.
type WorkItem struct {
	ID            string
	ProjectID     string
	Code          string
	TeamID        *string
	AssigneeID    *string
	Reviewer      *string
	Title         string
	Description   string
	IssueType     IssueType
	Priority      Priority
	Status        Status
	ParentID      *string
	SprintNumber  *string
	ReleaseNumber *string
	StartDate     *time.Time
	EndDate       *time.Time
	CreatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IssueSummary is a reduced projection used for parent pickers and listings.
type IssueSummary struct {
	ID        string
	Code      string
	Title     string
	IssueType IssueType
	Status    Status
}
