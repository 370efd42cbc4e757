// Package concepts maps free text onto canonical domain concept tags.
//
// Tagging is a pure function of the input text and the synonym table:
// identical input always yields the identical tag set. Tags feed the
// concept-overlap bonus in ranking and the stored tag set on each case.
package concepts

import (
	"regexp"
	"sort"
	"strings"
)

// Set is an unordered collection of canonical concept tags.
// Duplicates are impossible by construction.
type Set map[string]struct{}

// NewSet builds a Set from the given tags.
func NewSet(tags ...string) Set {
	s := make(Set, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts a tag into the set.
func (s Set) Add(tag string) {
	s[tag] = struct{}{}
}

// Has reports whether the tag is in the set.
func (s Set) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Slice returns the tags sorted lexicographically.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty.
func Jaccard(a, b Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for t := range a {
		if b.Has(t) {
			common++
		}
	}
	union := len(a) + len(b) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

// diacriticFolder applies a fixed substitution table. Deliberately not
// locale-dependent: the same input must normalize identically on every
// host.
var diacriticFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ñ", "n", "ü", "u",
)

// wordPattern tokenizes normalized text on word boundaries.
var wordPattern = regexp.MustCompile(`\w+`)

// Normalize lowercases text and strips diacritics using the fixed table.
func Normalize(text string) string {
	return diacriticFolder.Replace(strings.ToLower(text))
}

// entityDetector flags concepts from fixed patterns, independent of the
// synonym table.
type entityDetector struct {
	pattern    *regexp.Regexp
	normalized bool // match against normalized text instead of raw
	tags       []string
}

// Extractor derives concept tags from free text using an injected
// synonym table plus fixed entity detectors.
type Extractor struct {
	synonyms  map[string][]string
	canonical map[string]string // synonym -> canonical key
	detectors []entityDetector
}

// DefaultSynonyms returns the built-in synonym table for the
// commission-liquidation domain. Keys are canonical concept tags.
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		// actions
		"eliminar":   {"borrar", "quitar", "remover", "sacar", "anular", "cancelar"},
		"actualizar": {"modificar", "cambiar", "editar", "corregir", "ajustar"},
		"crear":      {"generar", "agregar", "anadir", "insertar", "registrar"},
		"consultar":  {"ver", "revisar", "buscar", "verificar"},
		"asignar":    {"asociar", "vincular", "relacionar"},

		// entities
		"comision":      {"fee", "cargo"},
		"credito":       {"prestamo"},
		"vendedor":      {"asesor", "comercial"},
		"concesionario": {"dealer"},
		"liquidacion":   {"settlement"},
		"estado":        {"status", "estatus"},
		"certificado":   {"certificate"},
		"factura":       {"invoice", "recibo"},
	}
}

// NewExtractor builds an Extractor from a synonym table. Passing nil
// uses DefaultSynonyms.
func NewExtractor(synonyms map[string][]string) *Extractor {
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}

	canonical := make(map[string]string)
	for key, syns := range synonyms {
		for _, s := range syns {
			canonical[Normalize(s)] = key
		}
	}

	return &Extractor{
		synonyms:  synonyms,
		canonical: canonical,
		detectors: []entityDetector{
			// A long digit run is a credit number even without the word.
			{pattern: regexp.MustCompile(`\d{13,}`), tags: []string{"credito"}},
			{pattern: regexp.MustCompile(`comision|liquidacion`), normalized: true, tags: []string{"comision", "liquidacion"}},
			{pattern: regexp.MustCompile(`vendedor|asesor`), normalized: true, tags: []string{"vendedor"}},
			{pattern: regexp.MustCompile(`certificado`), normalized: true, tags: []string{"certificado"}},
		},
	}
}

// Extract returns the canonical concept tags present in text.
//
// A token matching a canonical key contributes the key plus up to two of
// its synonyms; a token matching a synonym contributes its canonical
// key. Entity detectors then run over the text regardless of the
// synonym table.
func (e *Extractor) Extract(text string) Set {
	norm := Normalize(text)
	tags := make(Set)

	for _, word := range wordPattern.FindAllString(norm, -1) {
		if syns, ok := e.synonyms[word]; ok {
			tags.Add(word)
			for i, s := range syns {
				if i >= 2 {
					break
				}
				tags.Add(Normalize(s))
			}
		}
		if key, ok := e.canonical[word]; ok {
			tags.Add(key)
		}
	}

	for _, d := range e.detectors {
		input := text
		if d.normalized {
			input = norm
		}
		if d.pattern.MatchString(input) {
			for _, t := range d.tags {
				tags.Add(t)
			}
		}
	}

	return tags
}
