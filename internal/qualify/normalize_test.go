package qualify

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"B-BBEE":         "bbbee",
		" Tax Clearance": "taxclearance",
		"CSD #123":       "csd123",
		"":               "",
		"---":            "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"bbbee", "bbbee", true},
		{"bee", "bbbee", true},
		{"bbbee", "bee", true},
		{"cipc", "csd", false},
		{"", "csd", false},
		{"csd", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := FuzzyMatch(tt.a, tt.b); got != tt.want {
			t.Errorf("FuzzyMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOwnsAll(t *testing.T) {
	owned := []string{"CIPC", "B-BBEE"}
	if !OwnsAll(owned, []string{"cipc", "bee"}) {
		t.Fatal("expected owned docs to cover requirement")
	}
	if OwnsAll(owned, []string{"cipc", "csd"}) {
		t.Fatal("csd is not owned")
	}
	if !OwnsAll(nil, nil) {
		t.Fatal("no requirements is always covered")
	}
}

func TestSplitClauses(t *testing.T) {
	in := "- CSD registration\r\n\n• B-BBEE certificate · Tax clearance\n2) CIDB 7GB\n3. CIDB 7GB\n  * Valid COIDA  letter  "
	want := []string{"CSD registration", "B-BBEE certificate", "Tax clearance", "CIDB 7GB", "Valid COIDA letter"}

	if got := SplitClauses(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitClauses = %q, want %q", got, want)
	}
	if got := SplitClauses(""); len(got) != 0 {
		t.Fatalf("expected no clauses, got %q", got)
	}
}

func TestDocLabel(t *testing.T) {
	tests := map[string]string{
		"bee":              "B-BBEE Certificate",
		"B-BBEE":           "B-BBEE Certificate",
		"taxClearance":     "Tax Clearance Certificate",
		"sars":             "SARS Tax PIN",
		"coida":            "COIDA Letter",
		"proof_of_address": "Proof Of Address",
	}
	for in, want := range tests {
		if got := DocLabel(in); got != want {
			t.Errorf("DocLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseGrade(t *testing.T) {
	tests := []struct {
		in   string
		want Grade
	}{
		{"7GB", Grade{Level: 7, Class: "GB"}},
		{"9 ce", Grade{Level: 9, Class: "CE"}},
		{"Grade 3", Grade{Level: 3}},
		{"", Grade{}},
		{"n/a", Grade{}},
		{"7CEPE", Grade{Level: 7, Class: "CEPE"}},
		{"7G", Grade{Level: 7, Class: "G"}},
		{"Grade7GB", Grade{Level: 7, Class: "GB"}},
		{"10 GB", Grade{Level: 10, Class: "GB"}},
		{"99999999999999999999GB", Grade{}},
	}
	for _, tt := range tests {
		if got := ParseGrade(tt.in); got != tt.want {
			t.Errorf("ParseGrade(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
