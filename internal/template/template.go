// Package template rewrites stored solution templates with values
// extracted from the current query.
//
// Substitution is total: every rule applies independently, fields with
// no extracted value leave the template text untouched, and applying
// the same values twice yields the same output.
package template

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/remedyd/internal/extraction"
)

// Field-name patterns capture the original spelling in group one so
// substitution never changes the template's casing.
var (
	creditAssignPattern = regexp.MustCompile(`(?i)(creditnumber\s*=\s*)'(?:\d{13,16}|\[CREDITO\])'`)
	creditHolderPattern = regexp.MustCompile(`(?i)'?\[CREDITO\]'?`)

	idHolderPattern  = regexp.MustCompile(`(?i)\[ID\]`)
	idAssignPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(commissionid\s*=\s*)\d+`),
		regexp.MustCompile(`(?i)\b(id\s*=\s*)\d+`),
	}

	nationalHolderPattern = regexp.MustCompile(`(?i)\[(?:CEDULA|NIT)\]`)
	nationalAssignPattern = regexp.MustCompile(`(?i)\b((?:identificaci[oó]n|identification)\s*=\s*)'[^']*'`)

	referenceHolderPattern = regexp.MustCompile(`(?i)\[NUM_FACTURA\]`)
	referenceAssignPattern = regexp.MustCompile(`(?i)\b(numerofactura\s*=\s*)'[^']*'`)

	amountHolderPattern = regexp.MustCompile(`(?i)\[VALOR\]`)
	dateHolderPattern   = regexp.MustCompile(`(?i)\[FECHA\]`)

	// numericAssignPattern finds bare numeric literal assignments for
	// positional amount substitution. Quoted values never match, so a
	// substituted credit number is not rewritten again.
	numericAssignPattern = regexp.MustCompile(`(=\s*)(\d+(?:\.\d+)?)`)
)

// Substitute applies extracted values to a solution template and
// returns the concrete statement. Rules apply in a fixed order: credit
// number, generic ID, national ID, invoice reference, amounts, dates.
func Substitute(template string, v extraction.Values) string {
	out := template

	if v.Credit != "" {
		out = creditAssignPattern.ReplaceAllString(out, "${1}'"+v.Credit+"'")
		out = creditHolderPattern.ReplaceAllString(out, "'"+v.Credit+"'")
	}
	if v.GenericID != "" {
		for _, re := range idAssignPatterns {
			out = re.ReplaceAllString(out, "${1}"+v.GenericID)
		}
		out = idHolderPattern.ReplaceAllString(out, v.GenericID)
	}
	if v.NationalID != "" {
		out = nationalAssignPattern.ReplaceAllString(out, "${1}'"+v.NationalID+"'")
		out = nationalHolderPattern.ReplaceAllString(out, v.NationalID)
	}
	if v.Reference != "" {
		out = referenceAssignPattern.ReplaceAllString(out, "${1}'"+v.Reference+"'")
		out = referenceHolderPattern.ReplaceAllString(out, v.Reference)
	}
	if len(v.Amounts) > 0 {
		out = amountHolderPattern.ReplaceAllString(out, v.Amounts[0])
		out = substituteAmounts(out, v.Amounts)
	}
	if v.Date != "" {
		out = dateHolderPattern.ReplaceAllString(out, v.Date)
	}

	return out
}

// substituteAmounts rewrites numeric literal assignments positionally:
// the i-th assignment in template order takes the i-th extracted
// amount. Extra amounts and extra assignments are left alone.
func substituteAmounts(template string, amounts []string) string {
	matches := numericAssignPattern.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return template
	}

	n := len(amounts)
	if len(matches) < n {
		n = len(matches)
	}

	var b strings.Builder
	prev := 0
	for i := 0; i < n; i++ {
		m := matches[i]
		// m[2]:m[3] is the "= " prefix, m[4]:m[5] the numeric literal.
		b.WriteString(template[prev:m[4]])
		b.WriteString(amounts[i])
		prev = m[5]
	}
	b.WriteString(template[prev:])
	return b.String()
}
