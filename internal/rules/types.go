// Package rules implements the deterministic policy engine for
// liquidation state transitions, amount changes, and vendor records.
//
// All decisions are pure functions of the ruleset and the inputs; the
// same inputs always produce the same decision.
package rules

import "errors"

var (
	// ErrUnknownState indicates a state code absent from the ruleset.
	ErrUnknownState = errors.New("unknown state")

	// ErrIllegalTransition indicates a transition the state table does
	// not allow.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrInvalidAmount indicates a negative or non-finite amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRuleset indicates a ruleset that fails validation.
	ErrInvalidRuleset = errors.New("invalid ruleset")
)

// ApprovalLevel is the authority required to apply a change.
type ApprovalLevel string

const (
	ApprovalAutomatic  ApprovalLevel = "automatic"
	ApprovalSupervisor ApprovalLevel = "supervisor"
	ApprovalDirector   ApprovalLevel = "director"
	ApprovalBoard      ApprovalLevel = "board"
)

// Criticality classifies how sensitive a state is.
type Criticality string

const (
	CriticalityLow    Criticality = "low"
	CriticalityMedium Criticality = "medium"
	CriticalityHigh   Criticality = "high"
)

// StateRule describes one liquidation state and its allowed exits.
type StateRule struct {
	Code          int         `koanf:"code" json:"code"`
	Name          string      `koanf:"name" json:"name"`
	Next          []int       `koanf:"next" json:"next"`
	RequiresHuman bool        `koanf:"requires_human" json:"requires_human"`
	// AutomaticEligible marks states a change can enter without any
	// review. High criticality overrides it.
	AutomaticEligible bool        `koanf:"automatic_eligible" json:"automatic_eligible"`
	Criticality       Criticality `koanf:"criticality" json:"criticality"`
	// ExtraChecks are validations the operator must complete before
	// entering this state.
	ExtraChecks []string `koanf:"extra_checks" json:"extra_checks,omitempty"`
	// Notify lists the roles informed when this state is entered.
	Notify []string `koanf:"notify" json:"notify,omitempty"`
}

// ThresholdTier maps an amount ceiling to an approval level. An
// UpperBound of zero or below means unbounded; only the last tier may
// be unbounded.
type ThresholdTier struct {
	UpperBound float64       `koanf:"upper_bound" json:"upper_bound"`
	Level      ApprovalLevel `koanf:"level" json:"level"`
}

// VendorRecord is the payment profile checked before vendor updates.
type VendorRecord struct {
	UserID            int    `json:"user_id"`
	Identification    string `json:"identification"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	BankID            int    `json:"bank_id"`
	AccountNumber     string `json:"account_number"`
	TypeAccountBankID int    `json:"type_account_bank_id"`
	TypeUserID        int    `json:"type_user_id"`
}

// TransitionDecision is the outcome of a state transition check.
type TransitionDecision struct {
	From              int           `json:"from"`
	To                int           `json:"to"`
	ToName            string        `json:"to_name"`
	RequiresApproval  bool          `json:"requires_approval"`
	AutomaticEligible bool          `json:"automatic_eligible"`
	ApprovalLevel     ApprovalLevel `json:"approval_level"`
	Criticality       Criticality   `json:"criticality"`
	RequiredChecks    []string      `json:"required_checks,omitempty"`
	Notifications     []string      `json:"notifications,omitempty"`
}

// AmountDecision is the outcome of an amount change check.
type AmountDecision struct {
	Permitted     bool          `json:"permitted"`
	ApprovalLevel ApprovalLevel `json:"approval_level"`
	PercentChange float64       `json:"percent_change"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// VendorDecision is the outcome of a vendor record check.
type VendorDecision struct {
	Valid    bool     `json:"valid"`
	Missing  []string `json:"missing,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
