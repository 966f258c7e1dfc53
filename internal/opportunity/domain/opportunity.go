package domain

import "time"

// Stage is the sales pipeline stage of an opportunity.
type Stage string

const (
	StageProspecting   Stage = "Prospecting"
	StageQualification Stage = "Qualification"
	StageProposal      Stage = "Proposal"
	StageNegotiation   Stage = "Negotiation"
	StageClosedWon     Stage = "ClosedWon"
	StageClosedLost    Stage = "ClosedLost"
)

// StageValid reports whether s is a known pipeline stage.
func StageValid(s Stage) bool {
	switch s {
	case StageProspecting, StageQualification, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost:
		return true
	}
	return false
}

// Opportunity is a potential deal derived from a lead.
type Opportunity struct {
	ID        int64
	TenantID  string
	LeadID    int64
	Stage     Stage
	Value     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
