package domain

import "time"

// ActivityAction captures what an activity entry records.
type ActivityAction string

const (
	ActionCreated ActivityAction = "CREATED"
	ActionUpdated ActivityAction = "UPDATED"
)

// Activity is an immutable audit trail entry: one row per accepted mutation,
// with the aggregated field diffs collapsed into a human-readable block.
type Activity struct {
	ID          string
	WorkItemID  string
	UserID      *string
	Action      ActivityAction
	Changes     string
	ChangeCount int
	CreatedAt   time.Time
}
