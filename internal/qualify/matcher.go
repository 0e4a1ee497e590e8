// Package qualify decides whether a vendor meets a tender's requirements.
//
// Requirements come from the tender's structured fields and from its free
// text. Each becomes an entry keyed so that a document named in both places
// is reported once.
package qualify

import (
	"fmt"
	"strings"

	"github.com/david/tender-finder/internal/models"
)

type RequirementType string

const (
	TypeDocument     RequirementType = "document"
	TypeProfessional RequirementType = "professional"
	TypeCIDB         RequirementType = "cidb"
	TypeExperience   RequirementType = "experience"
	TypeText         RequirementType = "text"
)

// Requirement is one line of a qualification checklist. Met is nil when the
// requirement cannot be decided.
type Requirement struct {
	Key  string          `json:"key"`
	Name string          `json:"name"`
	Met  *bool           `json:"met"`
	Type RequirementType `json:"type"`
	Note string          `json:"note,omitempty"`
}

type Verdict struct {
	Qualifies bool     `json:"qualifies"`
	Missing   []string `json:"missing"`
}

// Result is the checklist plus an aggregate verdict. Verdict is nil when no
// requirement could be decided, including when there is no profile.
type Result struct {
	Requirements []Requirement `json:"requirements"`
	Verdict      *Verdict      `json:"verdict"`
}

type matcher struct {
	tender  models.Tender
	profile *models.VendorProfile
	entries []Requirement
	index   map[string]int
}

// Match builds the qualification checklist of tender for profile. profile
// may be nil, in which case every entry is undecided.
func Match(tender models.Tender, profile *models.VendorProfile) Result {
	m := &matcher{
		tender:  tender,
		profile: profile,
		entries: make([]Requirement, 0),
		index:   make(map[string]int),
	}

	for _, doc := range tender.RequiredDocs {
		if Normalize(doc) == "" {
			continue
		}
		m.document(CanonicalDocKey(doc), doc, DocLabel(doc))
	}

	for _, req := range tender.ProfessionalRequirements {
		lower := strings.ToLower(req)
		key := "prof-" + Normalize(req)
		for _, kw := range professionalKeywords {
			if strings.Contains(lower, kw) {
				key = "prof-" + kw
				break
			}
		}
		if key == "prof-" {
			continue
		}
		m.professional(key, lower, req)
	}

	if grade := strings.TrimSpace(tender.CIDBGrade); grade != "" {
		m.cidb("CIDB Grade "+grade, grade)
	}

	if n := tender.MinYearsExperience; n != nil && *n > 0 {
		m.experience("experience-years", fmt.Sprintf("Experience: need %d+ years", *n), *n,
			func(p models.VendorProfile) int { return p.YearsExperience.Int() }, "years")
	}
	if n := tender.MinCompletedProjects; n != nil && *n > 0 {
		m.experience("experience-projects", fmt.Sprintf("Projects: need %d+ similar", *n), *n,
			func(p models.VendorProfile) int { return p.CompletedProjects.Int() }, "completed projects")
	}

	for _, clause := range SplitClauses(tender.Requirements) {
		m.clause(clause)
	}

	return Result{Requirements: m.entries, Verdict: m.verdict()}
}

// put inserts r or, when its key is already present, overwrites the name,
// outcome and note while keeping the original position and type.
func (m *matcher) put(r Requirement) {
	if i, ok := m.index[r.Key]; ok {
		m.entries[i].Name = r.Name
		m.entries[i].Met = r.Met
		m.entries[i].Note = r.Note
		return
	}
	m.index[r.Key] = len(m.entries)
	m.entries = append(m.entries, r)
}

// document keys the entry by its canonical alias but matches owned types
// against needle, the requirement as written.
func (m *matcher) document(key, needle, name string) {
	r := Requirement{Key: "doc-" + key, Name: name, Type: TypeDocument}
	if m.profile != nil {
		r.Met = boolPtr(HasDocument(m.profile.DocumentTypes(), needle))
	}
	m.put(r)
}

func (m *matcher) professional(key, needle, name string) {
	r := Requirement{Key: key, Name: name, Type: TypeProfessional}
	if m.profile != nil {
		met := false
		for _, reg := range m.profile.ProfessionalRegistrations {
			if FuzzyMatch(strings.ToLower(strings.TrimSpace(reg.Body)), strings.TrimSpace(needle)) {
				met = true
				break
			}
		}
		r.Met = boolPtr(met)
	}
	m.put(r)
}

func (m *matcher) cidb(name, grade string) {
	r := Requirement{Key: "cidb", Name: name, Type: TypeCIDB}
	if m.profile != nil {
		met, note := checkCIDB(grade, *m.profile)
		r.Met, r.Note = boolPtr(met), note
	}
	m.put(r)
}

func (m *matcher) experience(key, name string, need int, have func(models.VendorProfile) int, unit string) {
	r := Requirement{Key: key, Name: name, Type: TypeExperience}
	if m.profile != nil {
		got := have(*m.profile)
		r.Met = boolPtr(got >= need)
		if got < need {
			r.Note = fmt.Sprintf("You have %d %s", got, unit)
		}
	}
	m.put(r)
}

func (m *matcher) verdict() *Verdict {
	actionable := 0
	missing := make([]string, 0)
	for _, r := range m.entries {
		if r.Met == nil {
			continue
		}
		actionable++
		if !*r.Met {
			missing = append(missing, r.Name)
		}
	}
	if actionable == 0 {
		return nil
	}
	return &Verdict{Qualifies: len(missing) == 0, Missing: missing}
}

func boolPtr(b bool) *bool { return &b }
