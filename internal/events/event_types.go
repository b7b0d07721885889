package events

import (
	"time"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated         EventType = "issue_created"
	EventIssueStatusChanged   EventType = "issue_status_changed"
	EventIssuePriorityChanged EventType = "issue_priority_changed"
	EventIssueAssigned        EventType = "issue_assigned"
	EventModeSwitchRequested  EventType = "mode_switch_requested"
	EventModeSwitchDecided    EventType = "mode_switch_decided"
)

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id,omitempty"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	ProjectID  string           `json:"project_id"`
	TeamID     *string          `json:"team_id,omitempty"`
	AssigneeID *string          `json:"assignee_id,omitempty"`
	IssueType  domain.IssueType `json:"issue_type"`
	Title      string           `json:"title"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	AssigneeID *string       `json:"assignee_id,omitempty"`
	Title      string        `json:"title"`
	OldStatus  domain.Status `json:"old_status"`
	NewStatus  domain.Status `json:"new_status"`
}

// IssuePriorityChangedPayload payload.
type IssuePriorityChangedPayload struct {
	AssigneeID  *string         `json:"assignee_id,omitempty"`
	Title       string          `json:"title"`
	OldPriority domain.Priority `json:"old_priority"`
	NewPriority domain.Priority `json:"new_priority"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
	Title      string `json:"title"`
}

// ModeSwitchRequestedPayload payload.
type ModeSwitchRequestedPayload struct {
	RequestID     string          `json:"request_id"`
	Username      string          `json:"username"`
	RequestedMode domain.ViewMode `json:"requested_mode"`
	MasterAdminID string          `json:"master_admin_id"`
}

// ModeSwitchDecidedPayload payload.
type ModeSwitchDecidedPayload struct {
	RequestID     string                  `json:"request_id"`
	UserID        string                  `json:"user_id"`
	RequestedMode domain.ViewMode         `json:"requested_mode"`
	Status        domain.ModeSwitchStatus `json:"status"`
}
