package qualify

// docAliases maps normalised document keys onto their canonical key.
var docAliases = map[string]string{
	"bbbee":        "bbbee",
	"bee":          "bbbee",
	"cipc":         "cipc",
	"csd":          "csd",
	"taxclearance": "taxclearance",
	"tax":          "taxclearance",
	"sars":         "sars",
	"coida":        "coida",
}

var docLabels = map[string]string{
	"bbbee":        "B-BBEE Certificate",
	"cipc":         "CIPC Document",
	"csd":          "CSD Report",
	"taxclearance": "Tax Clearance Certificate",
	"sars":         "SARS Tax PIN",
	"coida":        "COIDA Letter",
}

// CanonicalDocKey returns the canonical key for a document type, or its
// normalised form when no alias exists.
func CanonicalDocKey(docType string) string {
	n := Normalize(docType)
	if c, ok := docAliases[n]; ok {
		return c
	}
	return n
}

// DocLabel returns the human label for a document type. Unknown types are
// title-cased.
func DocLabel(docType string) string {
	if label, ok := docLabels[CanonicalDocKey(docType)]; ok {
		return label
	}
	return titleCase(docType)
}
