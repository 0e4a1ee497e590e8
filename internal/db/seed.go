package db

import (
	"context"
	"embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/david/tender-finder/internal/models"
)

//go:embed seed/tenders.yaml
var seedFS embed.FS

type seedFile struct {
	Tenders []seedTender `yaml:"tenders"`
}

type seedTender struct {
	Title                    string   `yaml:"title"`
	Description              string   `yaml:"description"`
	Category                 string   `yaml:"category"`
	Sector                   string   `yaml:"sector"`
	Location                 string   `yaml:"location"`
	BudgetMin                *float64 `yaml:"budget_min,omitempty"`
	BudgetMax                *float64 `yaml:"budget_max,omitempty"`
	DeadlineInDays           int      `yaml:"deadline_in_days,omitempty"`
	Requirements             string   `yaml:"requirements"`
	RequiredDocs             []string `yaml:"required_docs,omitempty"`
	Tags                     []string `yaml:"tags,omitempty"`
	ProfessionalRequirements []string `yaml:"professional_requirements,omitempty"`
	CIDBGrade                string   `yaml:"cidb_grade,omitempty"`
	MinYearsExperience       *int     `yaml:"min_years_experience,omitempty"`
	MinCompletedProjects     *int     `yaml:"min_completed_projects,omitempty"`
	SiteInspectionMandatory  bool     `yaml:"site_inspection_mandatory,omitempty"`
	ContractDuration         string   `yaml:"contract_duration,omitempty"`
}

// LoadSeedTenders parses the embedded seed file into approved tenders with
// deadlines counted from now.
func LoadSeedTenders(now time.Time) ([]models.Tender, error) {
	data, err := seedFS.ReadFile("seed/tenders.yaml")
	if err != nil {
		return nil, err
	}
	return ParseSeedTenders(data, now)
}

// ParseSeedTenders parses a seed document.
func ParseSeedTenders(data []byte, now time.Time) ([]models.Tender, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed tenders: %w", err)
	}

	out := make([]models.Tender, 0, len(file.Tenders))
	for i, st := range file.Tenders {
		if st.Title == "" {
			return nil, fmt.Errorf("seed tender %d: missing title", i)
		}
		t := models.Tender{
			Title:                    st.Title,
			Description:              st.Description,
			Category:                 st.Category,
			Sector:                   st.Sector,
			Location:                 st.Location,
			BudgetMin:                st.BudgetMin,
			BudgetMax:                st.BudgetMax,
			Requirements:             st.Requirements,
			RequiredDocs:             st.RequiredDocs,
			Tags:                     st.Tags,
			ProfessionalRequirements: st.ProfessionalRequirements,
			CIDBGrade:                st.CIDBGrade,
			MinYearsExperience:       st.MinYearsExperience,
			MinCompletedProjects:     st.MinCompletedProjects,
			SiteInspectionMandatory:  st.SiteInspectionMandatory,
			ContractDuration:         st.ContractDuration,
			Status:                   models.TenderApproved,
		}
		if st.DeadlineInDays > 0 {
			d := now.AddDate(0, 0, st.DeadlineInDays)
			t.Deadline = &d
		}
		t.Normalize()
		out = append(out, t)
	}
	return out, nil
}

// SeedTenders inserts every tender whose title is not yet stored and returns
// how many were inserted.
func (s *Store) SeedTenders(ctx context.Context, tenders []models.Tender) (int, error) {
	inserted := 0
	for i := range tenders {
		exists, err := s.TenderExistsByTitle(ctx, tenders[i].Title)
		if err != nil {
			return inserted, fmt.Errorf("check %q: %w", tenders[i].Title, err)
		}
		if exists {
			continue
		}
		if err := s.CreateTender(ctx, &tenders[i]); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
