package domain

import (
	"strings"
	"time"
)

// Status is the lead lifecycle stage.
type Status string

const (
	StatusNew       Status = "New"
	StatusContacted Status = "Contacted"
	StatusQualified Status = "Qualified"
	StatusConverted Status = "Converted"
)

// StatusValid reports whether s is a known lead status.
func StatusValid(s Status) bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusConverted:
		return true
	}
	return false
}

// Activity is an append-only event on a lead's timeline.
type Activity struct {
	Action string    `json:"action"`
	By     string    `json:"by"`
	At     time.Time `json:"at"`
}

// Note is free-form text attached to a lead.
type Note struct {
	Text string    `json:"text"`
	By   string    `json:"by"`
	At   time.Time `json:"at"`
}

// Attachment references an uploaded document on a lead.
type Attachment struct {
	Name string    `json:"name"`
	URL  string    `json:"url"`
	By   string    `json:"by"`
	At   time.Time `json:"at"`
}

// Lead is a sales prospect owned by a tenant. Activities, notes, attachments
// and tags are append-only; updates never replace prior entries.
type Lead struct {
	ID          int64
	TenantID    string
	Name        string
	Email       string
	Phone       string
	Company     string
	Source      string
	Status      Status
	Score       int64
	OwnerID     string
	AssignedTo  string
	Tags        []string
	Activities  []Activity
	Notes       []Note
	Attachments []Attachment
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SourceWeight returns the initial score contribution of an acquisition source.
func SourceWeight(source string) int64 {
	switch strings.ToLower(source) {
	case "website":
		return 20
	case "email":
		return 15
	case "social":
		return 10
	case "manual":
		return 5
	}
	return 0
}

// CompanyFromEmail derives a company name from the first label of the email
// domain. Returns "" when the email has no usable domain.
func CompanyFromEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	domain := email[at+1:]
	if dot := strings.Index(domain, "."); dot > 0 {
		domain = domain[:dot]
	}
	return domain
}
