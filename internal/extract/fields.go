package extract

import (
	"regexp"
	"strings"

	"github.com/david/tender-finder/internal/models"
)

var (
	cipcPattern  = regexp.MustCompile(`\b(?:19|20)\d{2}\s*/\s*\d{6}\s*/\s*\d{2}\b`)
	csdPattern   = regexp.MustCompile(`(?i)\bMAAA\d{5,9}\b`)
	bbbeePattern = regexp.MustCompile(`(?i)\blevel\s*(?:of\s+contribution\s*)?[:\-]?\s*([1-8])\b`)
	spaces       = regexp.MustCompile(`\s+`)
)

// Fields are the registration details found in a document.
type Fields struct {
	RegistrationNumber string
	CSDNumber          string
	BBBEELevel         string
}

// Empty reports whether nothing was found.
func (f Fields) Empty() bool {
	return f.RegistrationNumber == "" && f.CSDNumber == "" && f.BBBEELevel == ""
}

// FromText scans text for a CIPC registration number (YYYY/NNNNNN/NN), a CSD
// supplier number (MAAA followed by digits) and a B-BBEE level (Level 1..8).
// The first match of each wins.
func FromText(text string) Fields {
	var f Fields
	if m := cipcPattern.FindString(text); m != "" {
		f.RegistrationNumber = spaces.ReplaceAllString(m, "")
	}
	if m := csdPattern.FindString(text); m != "" {
		f.CSDNumber = strings.ToUpper(m)
	}
	if m := bbbeePattern.FindStringSubmatch(text); m != nil {
		f.BBBEELevel = m[1]
	}
	return f
}

// Apply records f under the profile's autoExtracted block and copies each
// value into the matching profile field when that field is still empty.
// It reports whether any profile field was filled.
func (f Fields) Apply(p *models.VendorProfile) bool {
	filled := false
	merge := func(found string, extracted, field *string) {
		if found == "" {
			return
		}
		*extracted = found
		if strings.TrimSpace(*field) == "" {
			*field = found
			filled = true
		}
	}
	merge(f.RegistrationNumber, &p.AutoExtracted.RegistrationNumber, &p.RegistrationNumber)
	merge(f.CSDNumber, &p.AutoExtracted.CSDNumber, &p.CSDNumber)
	merge(f.BBBEELevel, &p.AutoExtracted.BBBEELevel, &p.BBBEELevel)
	return filled
}
