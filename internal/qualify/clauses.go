package qualify

import (
	"strings"
)

type keyword struct {
	needle string
	key    string
}

// docKeywords is checked in order; the first hit wins.
var docKeywords = []keyword{
	{"bbbee", "bbbee"},
	{"b-bbee", "bbbee"},
	{"bee certificate", "bbbee"},
	{"cipc", "cipc"},
	{"company registration", "cipc"},
	{"csd", "csd"},
	{"tax clearance", "taxclearance"},
	{"sars", "taxclearance"},
	{"coida", "coida"},
}

var professionalKeywords = []string{"ecsa", "sacpcmp", "sacap", "saps"}

// clauseRule classifies one requirement clause. match receives the clause
// lowercased; apply records the resulting requirement.
type clauseRule struct {
	name  string
	match func(lower string) (string, bool)
	apply func(m *matcher, clause, key string)
}

// clauseRules run in priority order. A clause no rule claims becomes an
// informational entry.
var clauseRules = []clauseRule{
	{
		name: "cidb",
		match: func(lower string) (string, bool) {
			return "cidb", strings.Contains(lower, "cidb")
		},
		apply: func(m *matcher, clause, _ string) {
			grade, ok := gradeInClause(clause)
			if !ok {
				grade = m.tender.CIDBGrade
			}
			m.cidb(clause, grade)
		},
	},
	{
		name: "document",
		match: func(lower string) (string, bool) {
			for _, kw := range docKeywords {
				if strings.Contains(lower, kw.needle) {
					return kw.key, true
				}
			}
			return "", false
		},
		apply: func(m *matcher, clause, key string) {
			m.document(key, key, clause)
		},
	},
	{
		name: "professional",
		match: func(lower string) (string, bool) {
			for _, kw := range professionalKeywords {
				if strings.Contains(lower, kw) {
					return kw, true
				}
			}
			return "", false
		},
		apply: func(m *matcher, clause, key string) {
			m.professional("prof-"+key, key, clause)
		},
	},
}

func (m *matcher) clause(clause string) {
	lower := strings.ToLower(clause)
	for _, rule := range clauseRules {
		if key, ok := rule.match(lower); ok {
			rule.apply(m, clause, key)
			return
		}
	}

	key := Normalize(clause)
	if key == "" {
		return
	}
	m.put(Requirement{
		Key:  "text-" + key,
		Name: clause,
		Type: TypeText,
		Note: "Cannot be verified automatically",
	})
}
