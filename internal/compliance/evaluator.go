package compliance

import (
	"math"
	"strings"
	"time"

	"github.com/david/tender-finder/internal/models"
)

// DefaultRequiredFields are the profile field paths counted by completeness.
var DefaultRequiredFields = []string{
	"companyName",
	"registrationNumber",
	"vatNumber",
	"csdNumber",
	"bbbeeLevel",
	"phone",
	"address.street",
	"address.city",
	"address.postalCode",
	"professionalRegistrations",
	"yearsExperience",
	"completedProjects",
}

// DefaultRequiredDocTypes are the document types counted by coverage.
var DefaultRequiredDocTypes = []string{"cipc", "bbbee", "csd"}

const (
	RiskNoDirectors       = "no-directors"
	RiskDocsIncomplete    = "docs-incomplete"
	RiskProfileIncomplete = "profile-incomplete"
	RiskNoRegistrations   = "no-professional-registrations"
	RiskLowExperience     = "low-experience"
	RiskLowProjectCount   = "low-project-count"
)

// fieldPresent resolves a dotted field path. Paths it does not know are
// reported as missing.
var fieldPresent = map[string]func(p models.VendorProfile) bool{
	"companyName":               func(p models.VendorProfile) bool { return p.CompanyName != "" },
	"tradingName":               func(p models.VendorProfile) bool { return p.TradingName != "" },
	"registrationNumber":        func(p models.VendorProfile) bool { return p.RegistrationNumber != "" },
	"vatNumber":                 func(p models.VendorProfile) bool { return p.VATNumber != "" },
	"csdNumber":                 func(p models.VendorProfile) bool { return p.CSDNumber != "" },
	"bbbeeLevel":                func(p models.VendorProfile) bool { return p.BBBEELevel != "" },
	"phone":                     func(p models.VendorProfile) bool { return p.Phone != "" },
	"address.street":            func(p models.VendorProfile) bool { return p.Address.Street != "" },
	"address.city":              func(p models.VendorProfile) bool { return p.Address.City != "" },
	"address.postalCode":        func(p models.VendorProfile) bool { return p.Address.PostalCode != "" },
	"directors":                 func(p models.VendorProfile) bool { return len(p.Directors) > 0 },
	"documents":                 func(p models.VendorProfile) bool { return len(p.Documents) > 0 },
	"professionalRegistrations": func(p models.VendorProfile) bool { return len(p.ProfessionalRegistrations) > 0 },
	"yearsExperience":           func(p models.VendorProfile) bool { return !p.YearsExperience.Empty() },
	"completedProjects":         func(p models.VendorProfile) bool { return !p.CompletedProjects.Empty() },
	"coreCapabilities":          func(p models.VendorProfile) bool { return len(p.CoreCapabilities) > 0 },
	"industriesServed":          func(p models.VendorProfile) bool { return len(p.IndustriesServed) > 0 },
}

// Evaluator computes completeness and compliance metrics for vendor profiles.
type Evaluator struct {
	RequiredFields   []string
	RequiredDocTypes []string
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		RequiredFields:   DefaultRequiredFields,
		RequiredDocTypes: DefaultRequiredDocTypes,
	}
}

// Evaluation is the outcome of evaluating one profile snapshot.
type Evaluation struct {
	Metrics       models.ProfileMetrics
	Status        models.ProfileStatus
	StatusChanged bool
}

// Evaluate computes fresh metrics for p. It does not modify p.
//
// The only status transition it can produce is incomplete -> draft, taken
// when no required field and no required document is missing.
func (e *Evaluator) Evaluate(p models.VendorProfile, now time.Time) Evaluation {
	missingFields := make([]string, 0)
	for _, path := range e.RequiredFields {
		present, ok := fieldPresent[path]
		if !ok || !present(p) {
			missingFields = append(missingFields, path)
		}
	}

	docTypes := make(map[string]struct{}, len(p.Documents))
	for _, d := range p.Documents {
		docTypes[strings.ToLower(d.Type)] = struct{}{}
	}
	missingDocs := make([]string, 0)
	for _, required := range e.RequiredDocTypes {
		if _, ok := docTypes[required]; !ok {
			missingDocs = append(missingDocs, required)
		}
	}

	bodies := registrationBodies(p.ProfessionalRegistrations)
	missingRegistrations := []string{}
	if len(bodies) == 0 {
		missingRegistrations = []string{"professionalRegistrations"}
	}

	yearsExperience := p.YearsExperience.Int()
	completedProjects := p.CompletedProjects.Int()

	riskFlags := make([]string, 0)
	if len(p.Directors) == 0 {
		riskFlags = append(riskFlags, RiskNoDirectors)
	}
	if len(missingDocs) > 0 {
		riskFlags = append(riskFlags, RiskDocsIncomplete)
	}
	if len(missingFields) > 0 {
		riskFlags = append(riskFlags, RiskProfileIncomplete)
	}
	if len(bodies) == 0 {
		riskFlags = append(riskFlags, RiskNoRegistrations)
	}
	if yearsExperience < 1 {
		riskFlags = append(riskFlags, RiskLowExperience)
	}
	if completedProjects < 1 {
		riskFlags = append(riskFlags, RiskLowProjectCount)
	}

	evaluatedAt := now
	metrics := models.ProfileMetrics{
		Completeness:         ratio(len(e.RequiredFields)-len(missingFields), len(e.RequiredFields)),
		DocumentCoverage:     ratio(len(e.RequiredDocTypes)-len(missingDocs), len(e.RequiredDocTypes)),
		MissingFields:        missingFields,
		MissingDocs:          missingDocs,
		MissingRegistrations: missingRegistrations,
		RiskFlags:            riskFlags,
		ExperienceYears:      yearsExperience,
		ProjectsCompleted:    completedProjects,
		ProfessionalBodies:   len(bodies),
		LastEvaluation:       &evaluatedAt,
	}

	status := p.Status
	changed := false
	if len(missingFields) == 0 && len(missingDocs) == 0 && p.Status == models.ProfileIncomplete {
		status = models.ProfileDraft
		changed = true
	}

	return Evaluation{Metrics: metrics, Status: status, StatusChanged: changed}
}

// Apply evaluates p and writes the metrics and status back onto it.
func (e *Evaluator) Apply(p *models.VendorProfile, now time.Time) Evaluation {
	ev := e.Evaluate(*p, now)
	p.Metrics = ev.Metrics
	p.Status = ev.Status
	return ev
}

var defaultEvaluator = NewEvaluator()

// Evaluate runs the default evaluator.
func Evaluate(p models.VendorProfile, now time.Time) Evaluation {
	return defaultEvaluator.Evaluate(p, now)
}

// Apply runs the default evaluator and writes the result onto p.
func Apply(p *models.VendorProfile, now time.Time) Evaluation {
	return defaultEvaluator.Apply(p, now)
}

func registrationBodies(regs []models.Registration) []string {
	bodies := make([]string, 0, len(regs))
	for _, reg := range regs {
		if body := strings.TrimSpace(reg.Body); body != "" {
			bodies = append(bodies, body)
		}
	}
	return bodies
}

// ratio is present/total rounded to two decimals; an empty requirement list
// counts as fully satisfied.
func ratio(present, total int) float64 {
	if total == 0 {
		return 1
	}
	return math.Round(float64(present)/float64(total)*100) / 100
}
