package rules

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Amount advisory thresholds. These warn but never block.
const (
	largeChangePercent = 100.0
	largeAmount        = 3_000_000.0
	smallAmount        = 50_000.0
	smallDelta         = 10_000.0
)

// Engine evaluates transitions, amount changes, and vendor records
// against a validated ruleset.
type Engine struct {
	ruleset Ruleset
	logger  *zap.Logger
}

// NewEngine creates an Engine. The ruleset is validated up front so
// every later decision can assume a consistent table.
func NewEngine(ruleset Ruleset, logger *zap.Logger) (*Engine, error) {
	if err := ruleset.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{ruleset: ruleset, logger: logger}, nil
}

// Ruleset returns the engine's rule tables.
func (e *Engine) Ruleset() Ruleset {
	return e.ruleset
}

// ValidateTransition checks whether current may move to target. Both
// states must exist and target must be in current's exit list. The
// decision carries the target state's approval requirements.
func (e *Engine) ValidateTransition(current, target int) (TransitionDecision, error) {
	from, ok := e.ruleset.States[current]
	if !ok {
		return TransitionDecision{}, fmt.Errorf("%w: %d", ErrUnknownState, current)
	}
	to, ok := e.ruleset.States[target]
	if !ok {
		return TransitionDecision{}, fmt.Errorf("%w: %d", ErrUnknownState, target)
	}

	allowed := false
	for _, next := range from.Next {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return TransitionDecision{}, fmt.Errorf("%w: %d -> %d", ErrIllegalTransition, current, target)
	}

	level, requiresApproval := approvalForState(to)

	decision := TransitionDecision{
		From:              current,
		To:                target,
		ToName:            to.Name,
		RequiresApproval:  requiresApproval,
		AutomaticEligible: to.AutomaticEligible,
		ApprovalLevel:     level,
		Criticality:       to.Criticality,
		RequiredChecks:    append([]string(nil), to.ExtraChecks...),
		Notifications:     append([]string(nil), to.Notify...),
	}

	e.logger.Debug("transition evaluated",
		zap.Int("from", current),
		zap.Int("to", target),
		zap.Bool("requires_approval", requiresApproval),
		zap.String("approval_level", string(level)))
	return decision, nil
}

// approvalForState derives the approval level from the target state.
// High criticality always escalates to the director, regardless of the
// automatic-eligibility flag.
func approvalForState(s StateRule) (ApprovalLevel, bool) {
	switch {
	case s.Criticality == CriticalityHigh:
		return ApprovalDirector, true
	case s.AutomaticEligible:
		return ApprovalAutomatic, false
	case s.Criticality == CriticalityMedium:
		return ApprovalSupervisor, true
	default:
		return ApprovalAutomatic, s.RequiresHuman
	}
}

// ValidateAmountChange evaluates a commission amount change. The check
// is total for non-negative finite inputs: every such change yields a
// decision, with escalation and advisories instead of rejection.
func (e *Engine) ValidateAmountChange(current, proposed float64) (AmountDecision, error) {
	if err := checkAmount("current", current); err != nil {
		return AmountDecision{}, err
	}
	if err := checkAmount("proposed", proposed); err != nil {
		return AmountDecision{}, err
	}

	percent := percentChange(current, proposed)
	decision := AmountDecision{
		Permitted:     true,
		PercentChange: percent,
		ApprovalLevel: e.tierFor(proposed),
	}

	if percent > e.ruleset.PercentCeiling {
		decision.ApprovalLevel = ApprovalDirector
		decision.Warnings = append(decision.Warnings,
			fmt.Sprintf("change of %.1f%% exceeds the %.0f%% ceiling", percent, e.ruleset.PercentCeiling))
	} else if percent > largeChangePercent {
		decision.Warnings = append(decision.Warnings,
			fmt.Sprintf("change of %.1f%% is unusually large", percent))
	}

	if proposed > largeAmount {
		decision.Warnings = append(decision.Warnings,
			fmt.Sprintf("proposed amount %.0f is above the large-amount mark", proposed))
	}
	if proposed > 0 && proposed < smallAmount {
		decision.Warnings = append(decision.Warnings,
			fmt.Sprintf("proposed amount %.0f is unusually small", proposed))
	}
	if delta := math.Abs(proposed - current); delta > 0 && delta < smallDelta {
		decision.Warnings = append(decision.Warnings,
			fmt.Sprintf("change of %.0f is below the minimum meaningful delta", delta))
	}

	return decision, nil
}

func checkAmount(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s amount %v", ErrInvalidAmount, field, v)
	}
	return nil
}

// percentChange returns the relative change in percent. A zero current
// amount is treated as a 100% change by convention, so new amounts
// always register as significant.
func percentChange(current, proposed float64) float64 {
	if current == 0 {
		if proposed == 0 {
			return 0
		}
		return 100
	}
	return math.Abs(proposed-current) / current * 100
}

// tierFor walks the threshold ladder and returns the approval level
// for the amount. The last tier is unbounded, so every amount lands
// somewhere.
func (e *Engine) tierFor(amount float64) ApprovalLevel {
	for i, tier := range e.ruleset.Tiers {
		if i == len(e.ruleset.Tiers)-1 {
			return tier.Level
		}
		if amount <= tier.UpperBound {
			return tier.Level
		}
	}
	return ApprovalBoard
}
