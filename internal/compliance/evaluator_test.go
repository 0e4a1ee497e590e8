package compliance

import (
	"reflect"
	"testing"
	"time"

	"github.com/david/tender-finder/internal/models"
)

func completeProfile() models.VendorProfile {
	return models.VendorProfile{
		CompanyName:        "Acme Civils",
		RegistrationNumber: "2015/123456/07",
		VATNumber:          "4123456789",
		CSDNumber:          "MAAA0123456",
		BBBEELevel:         "1",
		Phone:              "0215550101",
		Address:            models.Address{Street: "1 Main Rd", City: "Cape Town", PostalCode: "8001"},
		Directors:          models.List[models.Director]{{Name: "T. Nkosi", Role: "CEO"}},
		Documents: models.List[models.Document]{
			{Type: "cipc"}, {Type: "bbbee"}, {Type: "csd"},
		},
		ProfessionalRegistrations: models.List[models.Registration]{{Body: "CIDB", Grade: "7GB"}},
		YearsExperience:           models.NewQuantity(8),
		CompletedProjects:         models.NewQuantity(14),
		Status:                    models.ProfileIncomplete,
	}
}

func TestEvaluate_PartialProfile(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := models.VendorProfile{
		CompanyName:        "Acme",
		RegistrationNumber: "123",
		Status:             models.ProfileIncomplete,
	}

	ev := Evaluate(p, now)

	if len(ev.Metrics.MissingFields) != 10 {
		t.Fatalf("expected 10 missing fields, got %d: %v", len(ev.Metrics.MissingFields), ev.Metrics.MissingFields)
	}
	if ev.Metrics.Completeness != 0.17 {
		t.Fatalf("expected completeness 0.17, got %v", ev.Metrics.Completeness)
	}
	if !reflect.DeepEqual(ev.Metrics.MissingDocs, []string{"cipc", "bbbee", "csd"}) {
		t.Fatalf("unexpected missing docs: %v", ev.Metrics.MissingDocs)
	}
	if ev.Metrics.DocumentCoverage != 0 {
		t.Fatalf("expected coverage 0, got %v", ev.Metrics.DocumentCoverage)
	}
	if ev.Status != models.ProfileIncomplete || ev.StatusChanged {
		t.Fatalf("expected status to stay incomplete, got %s (changed=%v)", ev.Status, ev.StatusChanged)
	}
	if !reflect.DeepEqual(ev.Metrics.MissingRegistrations, []string{"professionalRegistrations"}) {
		t.Fatalf("unexpected missing registrations: %v", ev.Metrics.MissingRegistrations)
	}

	wantFlags := []string{RiskNoDirectors, RiskDocsIncomplete, RiskProfileIncomplete, RiskNoRegistrations, RiskLowExperience, RiskLowProjectCount}
	if !reflect.DeepEqual(ev.Metrics.RiskFlags, wantFlags) {
		t.Fatalf("expected flags %v, got %v", wantFlags, ev.Metrics.RiskFlags)
	}
	if ev.Metrics.LastEvaluation == nil || !ev.Metrics.LastEvaluation.Equal(now) {
		t.Fatalf("expected lastEvaluation %s, got %v", now, ev.Metrics.LastEvaluation)
	}
}

func TestEvaluate_CompleteProfilePromotesToDraft(t *testing.T) {
	p := completeProfile()

	ev := Apply(&p, time.Now())

	if ev.Metrics.Completeness != 1 || ev.Metrics.DocumentCoverage != 1 {
		t.Fatalf("expected full scores, got completeness=%v coverage=%v", ev.Metrics.Completeness, ev.Metrics.DocumentCoverage)
	}
	if p.Status != models.ProfileDraft || !ev.StatusChanged {
		t.Fatalf("expected incomplete -> draft, got %s", p.Status)
	}
	if len(ev.Metrics.RiskFlags) != 0 {
		t.Fatalf("expected no risk flags, got %v", ev.Metrics.RiskFlags)
	}
	if ev.Metrics.ProfessionalBodies != 1 || ev.Metrics.ExperienceYears != 8 || ev.Metrics.ProjectsCompleted != 14 {
		t.Fatalf("unexpected snapshot: %+v", ev.Metrics)
	}
}

func TestEvaluate_StatusIsMonotonic(t *testing.T) {
	for _, status := range []models.ProfileStatus{models.ProfileDraft, models.ProfilePending, models.ProfileVerified, models.ProfileRejected} {
		t.Run(string(status), func(t *testing.T) {
			complete := completeProfile()
			complete.Status = status
			if ev := Evaluate(complete, time.Now()); ev.Status != status || ev.StatusChanged {
				t.Fatalf("complete profile moved %s -> %s", status, ev.Status)
			}

			empty := models.VendorProfile{Status: status}
			if ev := Evaluate(empty, time.Now()); ev.Status != status || ev.StatusChanged {
				t.Fatalf("empty profile moved %s -> %s", status, ev.Status)
			}
		})
	}
}

func TestEvaluate_MissingDocBlocksPromotion(t *testing.T) {
	p := completeProfile()
	p.Documents = p.Documents[:2]

	ev := Evaluate(p, time.Now())
	if ev.Status != models.ProfileIncomplete {
		t.Fatalf("expected incomplete, got %s", ev.Status)
	}
	if ev.Metrics.DocumentCoverage != 0.67 {
		t.Fatalf("expected coverage 0.67, got %v", ev.Metrics.DocumentCoverage)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	p := completeProfile()
	p.Documents = models.List[models.Document]{{Type: "CIPC"}}

	first := Evaluate(p, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	second := Evaluate(p, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	first.Metrics.LastEvaluation = nil
	second.Metrics.LastEvaluation = nil
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical evaluations, got %+v and %+v", first, second)
	}
}

func TestEvaluate_DocumentTypeIsCaseInsensitive(t *testing.T) {
	p := completeProfile()
	p.Documents = models.List[models.Document]{{Type: "CIPC"}, {Type: "BBBEE"}, {Type: "Csd"}}

	if ev := Evaluate(p, time.Now()); len(ev.Metrics.MissingDocs) != 0 {
		t.Fatalf("expected no missing docs, got %v", ev.Metrics.MissingDocs)
	}
}

func TestEvaluate_NumericCoercion(t *testing.T) {
	p := completeProfile()
	p.YearsExperience = models.Quantity{Raw: "lots", Set: true}
	p.CompletedProjects = models.Quantity{Raw: "3", Set: true}

	ev := Evaluate(p, time.Now())
	if ev.Metrics.ExperienceYears != 0 {
		t.Fatalf("expected non-numeric experience to snapshot as 0, got %d", ev.Metrics.ExperienceYears)
	}
	if ev.Metrics.ProjectsCompleted != 3 {
		t.Fatalf("expected 3 projects, got %d", ev.Metrics.ProjectsCompleted)
	}
	for _, f := range ev.Metrics.MissingFields {
		if f == "yearsExperience" {
			t.Fatal("non-numeric but present value must not count as missing")
		}
	}
	if p.YearsExperience.Raw != "lots" {
		t.Fatal("raw field must be retained")
	}
}

func TestEvaluate_BlankRegistrationBodiesIgnored(t *testing.T) {
	p := completeProfile()
	p.ProfessionalRegistrations = models.List[models.Registration]{{Body: "   "}, {Body: " ECSA "}}

	ev := Evaluate(p, time.Now())
	if ev.Metrics.ProfessionalBodies != 1 {
		t.Fatalf("expected 1 body, got %d", ev.Metrics.ProfessionalBodies)
	}
	if len(ev.Metrics.MissingRegistrations) != 0 {
		t.Fatalf("expected no missing registrations, got %v", ev.Metrics.MissingRegistrations)
	}
}

func TestEvaluate_ConfigurableLists(t *testing.T) {
	e := &Evaluator{}
	ev := e.Evaluate(models.VendorProfile{Status: models.ProfileIncomplete}, time.Now())
	if ev.Metrics.Completeness != 1 || ev.Metrics.DocumentCoverage != 1 {
		t.Fatalf("empty requirement lists must score 1, got %+v", ev.Metrics)
	}
	if ev.Status != models.ProfileDraft {
		t.Fatalf("expected draft, got %s", ev.Status)
	}

	e = &Evaluator{RequiredFields: []string{"companyName", "does.not.exist"}}
	ev = e.Evaluate(models.VendorProfile{CompanyName: "Acme"}, time.Now())
	if ev.Metrics.Completeness != 0.5 {
		t.Fatalf("unknown paths count as missing, got %v", ev.Metrics.Completeness)
	}
}

func TestEvaluate_Bounds(t *testing.T) {
	profiles := []models.VendorProfile{
		{},
		completeProfile(),
		{Documents: models.List[models.Document]{{Type: "cipc"}, {Type: "cipc"}, {Type: "other"}, {Type: "bbbee"}}},
	}
	for i, p := range profiles {
		ev := Evaluate(p, time.Now())
		if ev.Metrics.Completeness < 0 || ev.Metrics.Completeness > 1 {
			t.Errorf("profile %d: completeness out of range: %v", i, ev.Metrics.Completeness)
		}
		if ev.Metrics.DocumentCoverage < 0 || ev.Metrics.DocumentCoverage > 1 {
			t.Errorf("profile %d: coverage out of range: %v", i, ev.Metrics.DocumentCoverage)
		}
	}
}
