package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProfileStatus string

const (
	ProfileIncomplete ProfileStatus = "incomplete"
	ProfileDraft      ProfileStatus = "draft"
	ProfilePending    ProfileStatus = "pending"
	ProfileVerified   ProfileStatus = "verified"
	ProfileRejected   ProfileStatus = "rejected"
)

// ValidProfileStatus reports whether s is one of the lifecycle states.
func ValidProfileStatus(s string) bool {
	switch ProfileStatus(s) {
	case ProfileIncomplete, ProfileDraft, ProfilePending, ProfileVerified, ProfileRejected:
		return true
	}
	return false
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

type Director struct {
	Name     string `json:"name"`
	IDNumber string `json:"idNumber"`
	Role     string `json:"role"`
}

// Document is the metadata of an uploaded compliance document. The bytes
// live in file storage; only the type matters for scoring.
type Document struct {
	Type       string     `json:"type"`
	URL        string     `json:"url"`
	Filename   string     `json:"filename"`
	MimeType   string     `json:"mimeType"`
	Size       int64      `json:"size"`
	UploadedAt time.Time  `json:"uploadedAt"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	VerifiedBy *uuid.UUID `json:"verifiedBy,omitempty"`
}

type Registration struct {
	Body               string     `json:"body"`
	RegistrationNumber string     `json:"registrationNumber"`
	Grade              string     `json:"grade"`
	Expiry             *time.Time `json:"expiry,omitempty"`
	Verified           bool       `json:"verified"`
}

// ProfileMetrics is owned by the compliance evaluator and replaced wholesale
// on every evaluation.
type ProfileMetrics struct {
	Completeness         float64    `json:"completeness"`
	DocumentCoverage     float64    `json:"documentCoverage"`
	MissingFields        []string   `json:"missingFields"`
	MissingDocs          []string   `json:"missingDocs"`
	MissingRegistrations []string   `json:"missingRegistrations"`
	RiskFlags            []string   `json:"riskFlags"`
	ExperienceYears      int        `json:"experienceYears"`
	ProjectsCompleted    int        `json:"projectsCompleted"`
	ProfessionalBodies   int        `json:"professionalBodies"`
	LastEvaluation       *time.Time `json:"lastEvaluation,omitempty"`
}

// AutoExtracted holds values read from uploaded PDFs.
type AutoExtracted struct {
	RegistrationNumber string `json:"registrationNumber,omitempty"`
	BBBEELevel         string `json:"bbbeeLevel,omitempty"`
	CSDNumber          string `json:"csdNumber,omitempty"`
}

type Review struct {
	LastReviewer   *uuid.UUID `json:"lastReviewer,omitempty"`
	LastReviewedAt *time.Time `json:"lastReviewedAt,omitempty"`
}

type Note struct {
	By        uuid.UUID `json:"by"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Quantity is a numeric profile field as the vendor entered it. Forms post
// numbers as strings, so the raw text is kept and parsed on demand.
type Quantity struct {
	Raw string
	Set bool
}

// NewQuantity returns a set Quantity holding n.
func NewQuantity(n int) Quantity {
	return Quantity{Raw: strconv.Itoa(n), Set: true}
}

// Empty reports whether the field counts as not provided.
func (q Quantity) Empty() bool {
	return !q.Set || q.Raw == ""
}

// Int parses the value, falling back to 0 for empty or non-numeric input.
func (q Quantity) Int() int {
	raw := strings.TrimSpace(q.Raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*q = Quantity{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*q = Quantity{}
			return nil
		}
		*q = Quantity{Raw: s, Set: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		*q = Quantity{}
		return nil
	}
	*q = Quantity{Raw: n.String(), Set: true}
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Set {
		return []byte("null"), nil
	}
	raw := strings.TrimSpace(q.Raw)
	if raw != "" && (raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) && json.Valid([]byte(raw)) {
		return []byte(raw), nil
	}
	return json.Marshal(q.Raw)
}

// VendorProfile is a bidder's compliance and capability record, one per user.
type VendorProfile struct {
	ID                        uuid.UUID          `json:"id"`
	UserID                    uuid.UUID          `json:"userId"`
	CompanyName               string             `json:"companyName"`
	TradingName               string             `json:"tradingName"`
	RegistrationNumber        string             `json:"registrationNumber"`
	VATNumber                 string             `json:"vatNumber"`
	CSDNumber                 string             `json:"csdNumber"`
	BBBEELevel                string             `json:"bbbeeLevel"`
	Phone                     string             `json:"phone"`
	Address                   Address            `json:"address"`
	Directors                 List[Director]     `json:"directors"`
	Documents                 List[Document]     `json:"documents"`
	ProfessionalRegistrations List[Registration] `json:"professionalRegistrations"`
	YearsExperience           Quantity           `json:"yearsExperience"`
	CompletedProjects         Quantity           `json:"completedProjects"`
	CoreCapabilities          StringList         `json:"coreCapabilities"`
	IndustriesServed          StringList         `json:"industriesServed"`
	Status                    ProfileStatus      `json:"status"`
	Metrics                   ProfileMetrics     `json:"metrics"`
	AutoExtracted             AutoExtracted      `json:"autoExtracted"`
	Review                    Review             `json:"review"`
	Notes                     List[Note]         `json:"notes"`
	CreatedAt                 time.Time          `json:"createdAt"`
	UpdatedAt                 time.Time          `json:"updatedAt"`
}

// Normalize fills absent sequences with empty ones and defaults the status,
// so scoring code can rely on fully populated shapes.
func (p *VendorProfile) Normalize() {
	if p.Directors == nil {
		p.Directors = List[Director]{}
	}
	if p.Documents == nil {
		p.Documents = List[Document]{}
	}
	if p.ProfessionalRegistrations == nil {
		p.ProfessionalRegistrations = List[Registration]{}
	}
	if p.Notes == nil {
		p.Notes = List[Note]{}
	}
	p.CoreCapabilities = p.CoreCapabilities.Clean()
	p.IndustriesServed = p.IndustriesServed.Clean()
	if !ValidProfileStatus(string(p.Status)) {
		p.Status = ProfileIncomplete
	}
}

// DocumentTypes returns the type of every uploaded document.
func (p VendorProfile) DocumentTypes() []string {
	out := make([]string, 0, len(p.Documents))
	for _, d := range p.Documents {
		out = append(out, d.Type)
	}
	return out
}

// UpsertDocument adds doc, replacing any document of the same type.
func (p *VendorProfile) UpsertDocument(doc Document) {
	kept := make(List[Document], 0, len(p.Documents)+1)
	for _, d := range p.Documents {
		if d.Type != doc.Type {
			kept = append(kept, d)
		}
	}
	p.Documents = append(kept, doc)
}

// FindDocument returns the document stored under filename.
func (p VendorProfile) FindDocument(filename string) (Document, bool) {
	for _, d := range p.Documents {
		if d.Filename == filename {
			return d, true
		}
	}
	return Document{}, false
}
