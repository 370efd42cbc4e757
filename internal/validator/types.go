// Package validator runs generated statements through the safety
// policy and the rules engine, and keeps an append-only audit trail of
// every decision.
package validator

import (
	"errors"
	"time"

	"github.com/fyrsmithlabs/remedyd/internal/rules"
)

// ErrInput indicates a malformed validation request: an empty
// statement, an unusable amount, or a vendor operation without a
// vendor record.
var ErrInput = errors.New("invalid input")

// OperationType classifies what a statement is trying to do.
type OperationType string

const (
	OpStateChange  OperationType = "state_change"
	OpAmountChange OperationType = "amount_change"
	OpVendorUpdate OperationType = "vendor_update"
)

// OperationContext carries the domain facts needed to judge a
// statement. Fields irrelevant to the operation type are ignored.
type OperationContext struct {
	CurrentState   int                 `json:"current_state,omitempty"`
	TargetState    int                 `json:"target_state,omitempty"`
	CurrentAmount  float64             `json:"current_amount,omitempty"`
	ProposedAmount float64             `json:"proposed_amount,omitempty"`
	CreditNumber   string              `json:"credit_number,omitempty"`
	Vendor         *rules.VendorRecord `json:"vendor,omitempty"`
}

// Decision is one audited validation outcome. Errors use a stable
// prefix taxonomy (PolicyViolation, IllegalTransition, UnknownState,
// ContextInconsistency) so callers can classify without parsing prose.
type Decision struct {
	ID               string              `json:"id"`
	Timestamp        time.Time           `json:"timestamp"`
	Operation        OperationType       `json:"operation"`
	Statement        string              `json:"statement"`
	Valid            bool                `json:"valid"`
	Blocked          bool                `json:"blocked"`
	RequiresApproval bool                `json:"requires_approval"`
	ApprovalLevel    rules.ApprovalLevel `json:"approval_level"`
	// Reason is the first error, or empty for a valid decision.
	Reason   string   `json:"reason,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
