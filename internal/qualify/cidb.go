package qualify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/david/tender-finder/internal/models"
)

var (
	gradePattern = regexp.MustCompile(`(\d+)\s*([A-Za-z]*)`)

	// Inside free text a class must touch its level ("7GB", "9CEPE").
	clauseGradePattern = regexp.MustCompile(`(\d+)([A-Za-z]+)`)

	// A bare level counts only straight after a grading keyword, with an
	// optional spaced class of works ("CIDB grade 9", "level 5 GB").
	keywordGradePattern = regexp.MustCompile(`(?i)\b(?:cidb|grade|level)\b(?:[\s:-]*(?:grade|level)\b)?[\s:-]*(\d+)(?:\s+(CE|GB|EB|EP|ME|S[A-Q])\b)?`)
)

// Grade is a parsed CIDB grading such as "7GB": a numeric level and an
// optional class of works.
type Grade struct {
	Level int
	Class string
}

// ParseGrade reads the first grade in s. A level-only value ("7") is
// accepted. Level is 0 when nothing parses.
func ParseGrade(s string) Grade {
	m := gradePattern.FindStringSubmatch(s)
	if m == nil {
		return Grade{}
	}
	level, err := strconv.Atoi(m[1])
	if err != nil {
		return Grade{}
	}
	return Grade{Level: level, Class: strings.ToUpper(m[2])}
}

// gradeInClause finds a grade inside free text without reading
// "valid for 12 months" as one.
func gradeInClause(s string) (string, bool) {
	if m := clauseGradePattern.FindString(s); m != "" {
		return m, true
	}
	if m := keywordGradePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1] + " " + m[2]), true
	}
	return "", false
}

func (g Grade) String() string {
	if g.Level == 0 {
		return ""
	}
	return strconv.Itoa(g.Level) + g.Class
}

// cidbRegistration returns the vendor's CIDB registration, if any.
func cidbRegistration(p models.VendorProfile) (models.Registration, bool) {
	for _, reg := range p.ProfessionalRegistrations {
		if strings.Contains(Normalize(reg.Body), "cidb") {
			return reg, true
		}
	}
	return models.Registration{}, false
}

// checkCIDB compares the vendor's CIDB grade against the required one.
// Only the level decides; a class mismatch is reported but not failed.
func checkCIDB(required string, p models.VendorProfile) (bool, string) {
	reg, ok := cidbRegistration(p)
	if !ok {
		return false, "No CIDB registration found"
	}

	want := ParseGrade(required)
	if want.Level == 0 {
		return true, ""
	}

	have := ParseGrade(reg.Grade)
	if have.Level == 0 {
		return false, "CIDB grade is missing or invalid"
	}
	if have.Level < want.Level {
		return false, fmt.Sprintf("Your CIDB grade is %s", strings.TrimSpace(reg.Grade))
	}
	if want.Class != "" && have.Class != "" && want.Class != have.Class {
		return true, fmt.Sprintf("Different class: you have %s, tender specifies %s", have, want)
	}
	return true, ""
}
