package domain

import "time"

// Team is a sub-group under a single project. The lead holds elevated rights
// scoped to that project.
type Team struct {
	ID        string
	ProjectID string
	Name      string
	LeadID    *string
	MemberIDs []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasMember reports whether the user belongs to the team.
func (t *Team) HasMember(userID string) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsLead reports whether the user is the designated team lead.
func (t *Team) IsLead(userID string) bool {
	return t.LeadID != nil && *t.LeadID == userID
}
