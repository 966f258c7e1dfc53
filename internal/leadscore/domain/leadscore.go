package domain

import "time"

// LeadScore is a single scoring event applied to a lead. Events only
// accumulate; there is no update or delete path.
type LeadScore struct {
	ID        int64
	TenantID  string
	LeadID    int64
	Event     string
	Points    int64
	Condition string
	CreatedAt time.Time
}
