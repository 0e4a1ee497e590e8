package models

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationSubmitted   ApplicationStatus = "submitted"
	ApplicationUnderReview ApplicationStatus = "under-review"
	ApplicationAccepted    ApplicationStatus = "accepted"
	ApplicationRejected    ApplicationStatus = "rejected"
)

func ValidApplicationStatus(s string) bool {
	switch ApplicationStatus(s) {
	case ApplicationSubmitted, ApplicationUnderReview, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Application is a bid submitted by a vendor for a tender.
type Application struct {
	ID                    uuid.UUID         `json:"id"`
	UserID                uuid.UUID         `json:"userId"`
	TenderID              uuid.UUID         `json:"tenderId"`
	CoverLetter           string            `json:"coverLetter"`
	ProposedAmount        *float64          `json:"proposedAmount"`
	DurationWeeks         *int              `json:"durationWeeks"`
	MethodStatement       string            `json:"methodStatement"`
	ComplianceDeclaration bool              `json:"complianceDeclaration"`
	Documents             StringList        `json:"documents"`
	Status                ApplicationStatus `json:"status"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`

	Tender *Tender `json:"tender,omitempty"`
}
