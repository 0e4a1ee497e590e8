package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TenderStatus string

const (
	TenderPending  TenderStatus = "pending"
	TenderApproved TenderStatus = "approved"
	TenderRejected TenderStatus = "rejected"
	TenderClosed   TenderStatus = "closed"
)

func ValidTenderStatus(s string) bool {
	switch TenderStatus(s) {
	case TenderPending, TenderApproved, TenderRejected, TenderClosed:
		return true
	}
	return false
}

type EvaluationCriterion struct {
	Criterion string  `json:"criterion"`
	Weight    float64 `json:"weight"`
}

// Tender is a procurement opportunity posted by a publisher.
type Tender struct {
	ID                       uuid.UUID                 `json:"id"`
	Title                    string                    `json:"title"`
	Description              string                    `json:"description"`
	Category                 string                    `json:"category"`
	Sector                   string                    `json:"sector"`
	Location                 string                    `json:"location"`
	BudgetMin                *float64                  `json:"budgetMin"`
	BudgetMax                *float64                  `json:"budgetMax"`
	Deadline                 *time.Time                `json:"deadline"`
	Requirements             string                    `json:"requirements"`
	RequiredDocs             StringList                `json:"requiredDocs"`
	Tags                     StringList                `json:"tags"`
	ProfessionalRequirements StringList                `json:"professionalRequirements"`
	MinYearsExperience       *int                      `json:"minYearsExperience"`
	MinCompletedProjects     *int                      `json:"minCompletedProjects"`
	SpecialisedNotes         string                    `json:"specialisedNotes"`
	SiteInspectionDate       *time.Time                `json:"siteInspectionDate"`
	SiteInspectionMandatory  bool                      `json:"siteInspectionMandatory"`
	ContractDuration         string                    `json:"contractDuration"`
	CIDBGrade                string                    `json:"cidbGrade"`
	EvaluationCriteria       List[EvaluationCriterion] `json:"evaluationCriteria"`
	CreatedBy                *uuid.UUID                `json:"createdBy"`
	Status                   TenderStatus              `json:"status"`
	CreatedAt                time.Time                 `json:"createdAt"`
}

// Normalize fills absent sequences with empty ones.
func (t *Tender) Normalize() {
	t.RequiredDocs = t.RequiredDocs.Clean()
	t.Tags = t.Tags.Clean()
	t.ProfessionalRequirements = t.ProfessionalRequirements.Clean()
	if t.EvaluationCriteria == nil {
		t.EvaluationCriteria = List[EvaluationCriterion]{}
	}
}

// BudgetBounds returns the budget range with a missing bound taken from the
// present one. ok is false when neither bound is set.
func (t Tender) BudgetBounds() (lower, upper float64, ok bool) {
	switch {
	case t.BudgetMin == nil && t.BudgetMax == nil:
		return 0, 0, false
	case t.BudgetMin == nil:
		return *t.BudgetMax, *t.BudgetMax, true
	case t.BudgetMax == nil:
		return *t.BudgetMin, *t.BudgetMin, true
	}
	return *t.BudgetMin, *t.BudgetMax, true
}

// BudgetRange formats the budget for display.
func (t Tender) BudgetRange() string {
	switch {
	case t.BudgetMin == nil && t.BudgetMax == nil:
		return ""
	case t.BudgetMin != nil && t.BudgetMax != nil:
		return fmt.Sprintf("%.0f - %.0f", *t.BudgetMin, *t.BudgetMax)
	case t.BudgetMin != nil:
		return fmt.Sprintf("From %.0f", *t.BudgetMin)
	}
	return fmt.Sprintf("Up to %.0f", *t.BudgetMax)
}

// OwnedBy reports whether userID created the tender.
func (t Tender) OwnedBy(userID uuid.UUID) bool {
	return t.CreatedBy != nil && *t.CreatedBy == userID
}
