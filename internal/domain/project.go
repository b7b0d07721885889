package domain

import (
	"strings"
	"time"
)

// Project groups teams and work items. Inactive projects are read-only except
// for the single mutation that reactivates them.
type Project struct {
	ID        string
	Name      string
	Prefix    string
	OwnerID   *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CodePrefix returns the prefix used for work item codes: the configured
// prefix, or the first two characters of the project name uppercased.
func (p *Project) CodePrefix() string {
	prefix := strings.ToUpper(strings.TrimSpace(p.Prefix))
	if prefix != "" {
		return prefix
	}
	name := []rune(strings.TrimSpace(p.Name))
	if len(name) > 2 {
		name = name[:2]
	}
	return strings.ToUpper(string(name))
}
