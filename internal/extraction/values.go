// Package extraction pulls typed literals out of free-text case
// descriptions using an ordered battery of compiled patterns.
//
// Extraction is total and idempotent: it never fails, and identical
// input always yields identical Values.
package extraction

import (
	"regexp"
	"strings"
)

// Shared domain shapes, reused by sufficiency and complexity checks.
var (
	// CreditPattern matches a credit number literal.
	CreditPattern = regexp.MustCompile(`\b\d{13,16}\b`)

	// IdentifierPattern matches any identifier-sized digit run.
	IdentifierPattern = regexp.MustCompile(`\d{8,}`)
)

// Extractor applies the pattern battery. Patterns are compiled once at
// construction.
type Extractor struct {
	credit     *regexp.Regexp
	genericID  []*regexp.Regexp
	nationalID *regexp.Regexp
	amount     *regexp.Regexp
	dates      []*regexp.Regexp
	reference  *regexp.Regexp
	separators *strings.Replacer
}

// NewExtractor builds an Extractor with the fixed domain patterns.
func NewExtractor() *Extractor {
	return &Extractor{
		credit: CreditPattern,
		genericID: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bid\s*(?:de\s*)?(?:comisi[oó]n)?[:\s]\s*(\d{5,})`),
			regexp.MustCompile(`(?i)comisi[oó]n[:\s]\s*(\d{5,})`),
		},
		nationalID: regexp.MustCompile(`(?i)\b(?:c\.?c\.?|nit|c[eé]dula)[:\s.]\s*(\d+)`),
		amount:     regexp.MustCompile(`\$\s*([\d,.]+)`),
		dates: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{1,2}[-/][A-Za-z]{3}[-/]\d{2,4}\b`),
			regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`),
		},
		reference:  regexp.MustCompile(`(?i)\b(?:factura|fac)[:\s#]\s*([A-Za-z0-9-]+)`),
		separators: strings.NewReplacer(",", "", ".", ""),
	}
}

// Extract returns the first match per category. Absent patterns leave
// the corresponding field at its zero value.
func (e *Extractor) Extract(text string) Values {
	var v Values

	if m := e.credit.FindString(text); m != "" {
		v.Credit = m
	}

	for _, re := range e.genericID {
		if m := re.FindStringSubmatch(text); m != nil {
			v.GenericID = m[1]
			break
		}
	}

	if m := e.nationalID.FindStringSubmatch(text); m != nil {
		v.NationalID = m[1]
	}

	for _, m := range e.amount.FindAllStringSubmatch(text, -1) {
		v.Amounts = append(v.Amounts, e.separators.Replace(m[1]))
	}

	for _, re := range e.dates {
		if m := re.FindString(text); m != "" {
			v.Date = m
			break
		}
	}

	if m := e.reference.FindStringSubmatch(text); m != nil {
		v.Reference = m[1]
	}

	return v
}
