package rules

import (
	"fmt"
	"os"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// defaultPercentCeiling is the change percentage beyond which director
// approval is always required.
const defaultPercentCeiling = 200.0

// Ruleset bundles the state table, the amount threshold ladder, and
// the percent ceiling.
type Ruleset struct {
	States         map[int]StateRule `koanf:"-" json:"states"`
	Tiers          []ThresholdTier   `koanf:"tiers" json:"tiers"`
	PercentCeiling float64           `koanf:"percent_ceiling" json:"percent_ceiling"`
}

// rulesetFile is the YAML layout. States are a list on disk and a map
// in memory.
type rulesetFile struct {
	States         []StateRule     `koanf:"states"`
	Tiers          []ThresholdTier `koanf:"tiers"`
	PercentCeiling float64         `koanf:"percent_ceiling"`
}

// DefaultRuleset returns the built-in commission-liquidation rules.
func DefaultRuleset() Ruleset {
	return Ruleset{
		States: map[int]StateRule{
			70: {Code: 70, Name: "registrada", Next: []int{71}, AutomaticEligible: true, Criticality: CriticalityLow},
			71: {Code: 71, Name: "liquidada", Next: []int{72, 77}, AutomaticEligible: true, Criticality: CriticalityLow},
			72: {Code: 72, Name: "en revision", Next: []int{77}, RequiresHuman: true, Criticality: CriticalityMedium},
			77: {
				Code: 77, Name: "aprobada", Next: []int{79},
				RequiresHuman: true, Criticality: CriticalityHigh,
				ExtraChecks: []string{"bank_data", "contract", "amount"},
				Notify:      []string{"finanzas", "supervisor"},
			},
			79: {Code: 79, Name: "pagada", Next: []int{}, RequiresHuman: true, Criticality: CriticalityHigh},
		},
		Tiers: []ThresholdTier{
			{UpperBound: 500_000, Level: ApprovalAutomatic},
			{UpperBound: 2_000_000, Level: ApprovalSupervisor},
			{UpperBound: 5_000_000, Level: ApprovalDirector},
			{UpperBound: 0, Level: ApprovalBoard},
		},
		PercentCeiling: defaultPercentCeiling,
	}
}

// LoadRuleset reads a YAML ruleset file. Missing ceiling falls back to
// the default; everything else must be present and valid.
func LoadRuleset(path string) (Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("reading ruleset: %w", err)
	}
	return ParseRuleset(data)
}

// ParseRuleset parses YAML ruleset bytes.
func ParseRuleset(data []byte) (Ruleset, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return Ruleset{}, fmt.Errorf("parsing ruleset: %w", err)
	}

	var file rulesetFile
	if err := k.Unmarshal("", &file); err != nil {
		return Ruleset{}, fmt.Errorf("decoding ruleset: %w", err)
	}

	rs := Ruleset{
		States:         make(map[int]StateRule, len(file.States)),
		Tiers:          file.Tiers,
		PercentCeiling: file.PercentCeiling,
	}
	for _, s := range file.States {
		rs.States[s.Code] = s
	}
	if rs.PercentCeiling == 0 {
		rs.PercentCeiling = defaultPercentCeiling
	}

	if err := rs.Validate(); err != nil {
		return Ruleset{}, err
	}
	return rs, nil
}

// Validate checks structural consistency: every next-state reference
// must exist, tiers must ascend, and the last tier must be unbounded.
func (rs Ruleset) Validate() error {
	if len(rs.States) == 0 {
		return fmt.Errorf("%w: no states defined", ErrInvalidRuleset)
	}
	if len(rs.Tiers) == 0 {
		return fmt.Errorf("%w: no threshold tiers defined", ErrInvalidRuleset)
	}
	if rs.PercentCeiling <= 0 {
		return fmt.Errorf("%w: percent ceiling must be positive", ErrInvalidRuleset)
	}

	codes := make([]int, 0, len(rs.States))
	for code := range rs.States {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		s := rs.States[code]
		if s.Code != code {
			return fmt.Errorf("%w: state %d keyed under %d", ErrInvalidRuleset, s.Code, code)
		}
		for _, next := range s.Next {
			if _, ok := rs.States[next]; !ok {
				return fmt.Errorf("%w: state %d references unknown state %d", ErrInvalidRuleset, code, next)
			}
		}
	}

	for i, tier := range rs.Tiers {
		switch tier.Level {
		case ApprovalAutomatic, ApprovalSupervisor, ApprovalDirector, ApprovalBoard:
		default:
			return fmt.Errorf("%w: unknown approval level %q", ErrInvalidRuleset, tier.Level)
		}
		if i == len(rs.Tiers)-1 {
			if tier.UpperBound > 0 {
				return fmt.Errorf("%w: last tier must be unbounded", ErrInvalidRuleset)
			}
			continue
		}
		if tier.UpperBound <= 0 {
			return fmt.Errorf("%w: only the last tier may be unbounded", ErrInvalidRuleset)
		}
		if i > 0 && tier.UpperBound <= rs.Tiers[i-1].UpperBound {
			return fmt.Errorf("%w: tier bounds must ascend", ErrInvalidRuleset)
		}
	}

	return nil
}
