package qualify

import (
	"reflect"
	"strings"
	"testing"

	"github.com/david/tender-finder/internal/models"
)

func intPtr(n int) *int { return &n }

func findReq(t *testing.T, res Result, key string) Requirement {
	t.Helper()
	for _, r := range res.Requirements {
		if r.Key == key {
			return r
		}
	}
	t.Fatalf("no requirement %q in %+v", key, res.Requirements)
	return Requirement{}
}

func cidbVendor(grade string) *models.VendorProfile {
	return &models.VendorProfile{
		ProfessionalRegistrations: models.List[models.Registration]{{Body: "CIDB", Grade: grade}},
	}
}

func TestMatch_CIDBLevelShortfall(t *testing.T) {
	res := Match(models.Tender{CIDBGrade: "7GB"}, cidbVendor("5GB"))

	r := findReq(t, res, "cidb")
	if r.Met == nil || *r.Met {
		t.Fatalf("expected not met, got %+v", r)
	}
	if !strings.Contains(r.Note, "5GB") {
		t.Fatalf("expected note to mention vendor grade, got %q", r.Note)
	}
	if res.Verdict == nil || res.Verdict.Qualifies {
		t.Fatalf("expected failing verdict, got %+v", res.Verdict)
	}
}

func TestMatch_CIDBLevelSufficient(t *testing.T) {
	res := Match(models.Tender{CIDBGrade: "7GB"}, cidbVendor("9GB"))

	r := findReq(t, res, "cidb")
	if r.Met == nil || !*r.Met || r.Note != "" {
		t.Fatalf("expected met without note, got %+v", r)
	}
	if res.Verdict == nil || !res.Verdict.Qualifies {
		t.Fatalf("expected qualifying verdict, got %+v", res.Verdict)
	}
}

func TestMatch_CIDBEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		required string
		vendor   *models.VendorProfile
		met      bool
		note     string
	}{
		{"no registration", "7GB", &models.VendorProfile{}, false, "No CIDB registration found"},
		{"unparseable requirement", "any", cidbVendor("3CE"), true, ""},
		{"unparseable vendor grade", "7GB", cidbVendor("pending"), false, "CIDB grade is missing or invalid"},
		{"different class", "7GB", cidbVendor("8CE"), true, "Different class"},
		{"level only", "6", cidbVendor("6EP"), true, ""},
		{"four-letter class shortfall", "9CEPE", cidbVendor("5CE"), false, "Your CIDB grade is 5CE"},
		{"four-letter vendor class", "7GB", cidbVendor("7CEPE"), true, "Different class"},
		{"one-letter vendor class", "7GB", cidbVendor("7G"), true, "Different class"},
		{"grade prefix without space", "7GB", cidbVendor("Grade7GB"), true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := findReq(t, Match(models.Tender{CIDBGrade: tt.required}, tt.vendor), "cidb")
			if r.Met == nil || *r.Met != tt.met {
				t.Fatalf("expected met=%v, got %+v", tt.met, r)
			}
			if !strings.HasPrefix(r.Note, tt.note) || (tt.note == "" && r.Note != "") {
				t.Fatalf("expected note %q, got %q", tt.note, r.Note)
			}
		})
	}
}

func TestMatch_ClauseGrade(t *testing.T) {
	tests := []struct {
		name   string
		clause string
		vendor string
		met    bool
	}{
		{"keyword level only", "- CIDB grade 9 required", "1GB", false},
		{"keyword level met", "- CIDB grade 9 required", "9GB", true},
		{"level keyword with spaced class", "CIDB level 5 GB or higher", "4GB", false},
		{"compact grade", "CIDB 3CE minimum", "2CE", false},
		{"duration is not a grade", "CIDB registration valid for 12 months", "1GB", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := findReq(t, Match(models.Tender{Requirements: tt.clause}, cidbVendor(tt.vendor)), "cidb")
			if r.Met == nil || *r.Met != tt.met {
				t.Fatalf("expected met=%v, got %+v", tt.met, r)
			}
		})
	}
}

func TestGradeInClause(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"CIDB 7GB or higher", "7GB", true},
		{"CIDB grade 9 required", "9", true},
		{"CIDB Grade: 6 CE", "6 CE", true},
		{"CIDB level 4 or above", "4", true},
		{"Proof of CIDB registration (valid for 12 months)", "", false},
	}
	for _, tt := range tests {
		got, ok := gradeInClause(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("gradeInClause(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMatch_DocumentTypeSpelling(t *testing.T) {
	tests := []struct {
		name     string
		required string
		owned    string
		key      string
	}{
		{"hyphenated owned", "bbbee", "B-BBEE", "doc-bbbee"},
		{"hyphenated required", "B-BBEE", "bbbee", "doc-bbbee"},
		{"alias matches written requirement", "tax", "taxpin", "doc-taxclearance"},
		{"canonical owned", "Tax Clearance", "tax_clearance", "doc-taxclearance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vendor := &models.VendorProfile{
				Documents: models.List[models.Document]{{Type: tt.owned}},
			}
			r := findReq(t, Match(models.Tender{RequiredDocs: models.StringList{tt.required}}, vendor), tt.key)
			if r.Met == nil || !*r.Met {
				t.Fatalf("expected %q to satisfy %q, got %+v", tt.owned, tt.required, r)
			}
		})
	}
}

func TestMatch_RequirementsText(t *testing.T) {
	tender := models.Tender{
		Requirements: "- B-BBEE Level 1 certificate required\n- CIDB 3CE minimum",
	}
	vendor := &models.VendorProfile{
		Documents: models.List[models.Document]{{Type: "bee"}},
	}

	res := Match(tender, vendor)

	doc := findReq(t, res, "doc-bbbee")
	if doc.Met == nil || !*doc.Met {
		t.Fatalf("expected B-BBEE met, got %+v", doc)
	}
	cidb := findReq(t, res, "cidb")
	if cidb.Met == nil || *cidb.Met || cidb.Note != "No CIDB registration found" {
		t.Fatalf("unexpected cidb entry: %+v", cidb)
	}
	if res.Verdict == nil || res.Verdict.Qualifies {
		t.Fatalf("expected failing verdict, got %+v", res.Verdict)
	}
	if !reflect.DeepEqual(res.Verdict.Missing, []string{"CIDB 3CE minimum"}) {
		t.Fatalf("unexpected missing: %v", res.Verdict.Missing)
	}
}

func TestMatch_ClauseMergesIntoStructuredEntry(t *testing.T) {
	tender := models.Tender{
		RequiredDocs: models.StringList{"csd", "bbbee"},
		CIDBGrade:    "5GB",
		Requirements: "• Valid CSD registration\n• CIDB 7GB or higher",
	}

	res := Match(tender, cidbVendor("6GB"))

	keys := make([]string, 0, len(res.Requirements))
	for _, r := range res.Requirements {
		keys = append(keys, r.Key)
	}
	if !reflect.DeepEqual(keys, []string{"doc-csd", "doc-bbbee", "cidb"}) {
		t.Fatalf("expected entries merged in first-seen order, got %v", keys)
	}

	csd := findReq(t, res, "doc-csd")
	if csd.Name != "Valid CSD registration" {
		t.Fatalf("expected clause to overwrite name, got %q", csd.Name)
	}
	cidb := findReq(t, res, "cidb")
	if cidb.Met == nil || *cidb.Met {
		t.Fatalf("clause grade 7GB should override structured 5GB, got %+v", cidb)
	}
}

func TestMatch_ClauseFallsBackToStructuredGrade(t *testing.T) {
	tender := models.Tender{
		CIDBGrade:    "4CE",
		Requirements: "Proof of CIDB registration (valid for 12 months)",
	}

	r := findReq(t, Match(tender, cidbVendor("3CE")), "cidb")
	if r.Met == nil || *r.Met {
		t.Fatalf("expected structured grade 4CE to apply, got %+v", r)
	}
	if r.Name != tender.Requirements {
		t.Fatalf("expected clause as display name, got %q", r.Name)
	}
}

func TestMatch_UnclassifiedClauseIsInformational(t *testing.T) {
	tender := models.Tender{Requirements: "1. Attend compulsory briefing session\n2. Submit in a sealed envelope"}

	res := Match(tender, &models.VendorProfile{})

	if len(res.Requirements) != 2 {
		t.Fatalf("expected 2 entries, got %+v", res.Requirements)
	}
	for _, r := range res.Requirements {
		if r.Met != nil || r.Type != TypeText {
			t.Fatalf("expected undecided text entry, got %+v", r)
		}
	}
	if res.Requirements[0].Name != "Attend compulsory briefing session" {
		t.Fatalf("expected numbering stripped, got %q", res.Requirements[0].Name)
	}
	if res.Verdict != nil {
		t.Fatalf("unscorable tender must have no verdict, got %+v", res.Verdict)
	}
}

func TestMatch_NoProfile(t *testing.T) {
	tender := models.Tender{
		RequiredDocs:             models.StringList{"cipc", "tax"},
		ProfessionalRequirements: models.StringList{"ECSA"},
		CIDBGrade:                "7GB",
		MinYearsExperience:       intPtr(5),
		Requirements:             "COIDA letter of good standing",
	}

	res := Match(tender, nil)

	if len(res.Requirements) != 6 {
		t.Fatalf("expected 6 entries, got %+v", res.Requirements)
	}
	for _, r := range res.Requirements {
		if r.Met != nil {
			t.Fatalf("expected undecided without profile, got %+v", r)
		}
	}
	if res.Verdict != nil {
		t.Fatalf("expected nil verdict, got %+v", res.Verdict)
	}
	if got := findReq(t, res, "doc-taxclearance").Name; got != "Tax Clearance Certificate" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestMatch_ProfessionalRequirements(t *testing.T) {
	vendor := &models.VendorProfile{
		ProfessionalRegistrations: models.List[models.Registration]{{Body: "ECSA"}},
	}
	tender := models.Tender{ProfessionalRequirements: models.StringList{"ECSA Professional Engineer", "SACAP"}}

	res := Match(tender, vendor)

	if r := findReq(t, res, "prof-ecsa"); r.Met == nil || !*r.Met {
		t.Fatalf("expected ECSA met, got %+v", r)
	}
	if r := findReq(t, res, "prof-sacap"); r.Met == nil || *r.Met {
		t.Fatalf("expected SACAP not met, got %+v", r)
	}
	if !reflect.DeepEqual(res.Verdict.Missing, []string{"SACAP"}) {
		t.Fatalf("unexpected missing: %v", res.Verdict.Missing)
	}
}

func TestMatch_ExperienceGates(t *testing.T) {
	vendor := &models.VendorProfile{
		YearsExperience:   models.NewQuantity(3),
		CompletedProjects: models.Quantity{Raw: "12", Set: true},
	}
	tender := models.Tender{MinYearsExperience: intPtr(5), MinCompletedProjects: intPtr(10)}

	res := Match(tender, vendor)

	years := findReq(t, res, "experience-years")
	if years.Met == nil || *years.Met || years.Name != "Experience: need 5+ years" {
		t.Fatalf("unexpected years entry: %+v", years)
	}
	projects := findReq(t, res, "experience-projects")
	if projects.Met == nil || !*projects.Met {
		t.Fatalf("unexpected projects entry: %+v", projects)
	}
	if !reflect.DeepEqual(res.Verdict.Missing, []string{"Experience: need 5+ years"}) {
		t.Fatalf("unexpected missing: %v", res.Verdict.Missing)
	}
}

func TestMatch_EmptyTenderHasNoVerdict(t *testing.T) {
	res := Match(models.Tender{}, &models.VendorProfile{})
	if len(res.Requirements) != 0 || res.Verdict != nil {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestClauseRules_Priority(t *testing.T) {
	tests := []struct {
		clause string
		rule   string
		key    string
	}{
		{"CIDB and B-BBEE certificates", "cidb", "cidb"},
		{"Company registration documents", "document", "cipc"},
		{"Original SARS tax pin", "document", "taxclearance"},
		{"SACPCMP registered construction manager", "professional", "sacpcmp"},
	}
	for _, tt := range tests {
		lower := strings.ToLower(tt.clause)
		for _, rule := range clauseRules {
			key, ok := rule.match(lower)
			if !ok {
				continue
			}
			if rule.name != tt.rule || key != tt.key {
				t.Errorf("%q: got rule %s key %s, want %s %s", tt.clause, rule.name, key, tt.rule, tt.key)
			}
			break
		}
	}
}
