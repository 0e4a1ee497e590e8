package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestStringList_LenientDecode(t *testing.T) {
	tests := []struct {
		in   string
		want StringList
	}{
		{`null`, StringList{}},
		{`"cipc"`, StringList{"cipc"}},
		{`"  "`, StringList{}},
		{`["cipc", 3, "csd", null]`, StringList{"cipc", "csd"}},
		{`{"a":1}`, StringList{}},
		{`42`, StringList{}},
	}
	for _, tt := range tests {
		var got struct {
			Docs StringList `json:"docs"`
		}
		if err := json.Unmarshal([]byte(`{"docs":`+tt.in+`}`), &got); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.in, err)
		}
		if !reflect.DeepEqual(got.Docs, tt.want) {
			t.Errorf("%s: got %#v, want %#v", tt.in, got.Docs, tt.want)
		}
	}
}

func TestVendorProfile_WrongShapesDecodeEmpty(t *testing.T) {
	body := `{
		"companyName": "Acme",
		"directors": "T. Nkosi",
		"documents": {"type": "cipc"},
		"professionalRegistrations": null,
		"yearsExperience": "7",
		"completedProjects": 12
	}`

	var p VendorProfile
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	p.Normalize()

	if len(p.Directors) != 0 || len(p.Documents) != 0 || p.ProfessionalRegistrations == nil {
		t.Fatalf("expected empty sequences, got %+v", p)
	}
	if p.YearsExperience.Int() != 7 || p.CompletedProjects.Int() != 12 {
		t.Fatalf("unexpected quantities: %+v %+v", p.YearsExperience, p.CompletedProjects)
	}
	if p.Status != ProfileIncomplete {
		t.Fatalf("expected default status, got %q", p.Status)
	}
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		in      string
		empty   bool
		n       int
		encoded string
	}{
		{`null`, true, 0, `null`},
		{`""`, true, 0, `""`},
		{`"4"`, false, 4, `4`},
		{`4.8`, false, 4, `4.8`},
		{`"lots"`, false, 0, `"lots"`},
		{`"NaN"`, false, 0, `"NaN"`},
		{`true`, true, 0, `null`},
	}
	for _, tt := range tests {
		var q Quantity
		if err := json.Unmarshal([]byte(tt.in), &q); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.in, err)
		}
		if q.Empty() != tt.empty || q.Int() != tt.n {
			t.Errorf("%s: empty=%v n=%d, want %v %d", tt.in, q.Empty(), q.Int(), tt.empty, tt.n)
		}
		out, err := json.Marshal(q)
		if err != nil {
			t.Fatalf("%s: marshal: %v", tt.in, err)
		}
		if string(out) != tt.encoded {
			t.Errorf("%s: encoded %s, want %s", tt.in, out, tt.encoded)
		}
	}
}

func TestVendorProfile_UpsertDocumentReplacesSameType(t *testing.T) {
	p := VendorProfile{Documents: List[Document]{{Type: "cipc", Filename: "a.pdf"}, {Type: "csd", Filename: "b.pdf"}}}

	p.UpsertDocument(Document{Type: "cipc", Filename: "c.pdf"})

	if !reflect.DeepEqual(p.DocumentTypes(), []string{"csd", "cipc"}) {
		t.Fatalf("unexpected types: %v", p.DocumentTypes())
	}
	if _, ok := p.FindDocument("a.pdf"); ok {
		t.Fatal("replaced document should be gone")
	}
	if d, ok := p.FindDocument("c.pdf"); !ok || d.Type != "cipc" {
		t.Fatalf("expected new document, got %+v", d)
	}
}

func TestTender_BudgetBounds(t *testing.T) {
	lo, hi := 100.0, 300.0
	tests := []struct {
		tender Tender
		lower  float64
		upper  float64
		ok     bool
	}{
		{Tender{}, 0, 0, false},
		{Tender{BudgetMin: &lo}, 100, 100, true},
		{Tender{BudgetMax: &hi}, 300, 300, true},
		{Tender{BudgetMin: &lo, BudgetMax: &hi}, 100, 300, true},
	}
	for i, tt := range tests {
		l, u, ok := tt.tender.BudgetBounds()
		if l != tt.lower || u != tt.upper || ok != tt.ok {
			t.Errorf("case %d: got (%v, %v, %v)", i, l, u, ok)
		}
	}
}
