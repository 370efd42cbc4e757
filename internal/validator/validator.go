package validator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/rules"
	"github.com/fyrsmithlabs/remedyd/internal/safety"
)

var validatorTracer = otel.Tracer("remedyd.validator")

// creditNumberPattern is the only credit number shape the domain uses.
var creditNumberPattern = regexp.MustCompile(`^\d{13,16}$`)

// Validator joins the safety checker and the rules engine into one
// decision pipeline. Checks short-circuit: safety first, then the
// operation rule, then context consistency.
type Validator struct {
	engine  *rules.Engine
	checker *safety.Checker
	logger  *zap.Logger

	mu      sync.Mutex
	history []Decision
}

// NewValidator creates a Validator.
func NewValidator(engine *rules.Engine, checker *safety.Checker, logger *zap.Logger) (*Validator, error) {
	if engine == nil {
		return nil, errors.New("rules engine required")
	}
	if checker == nil {
		return nil, errors.New("safety checker required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{engine: engine, checker: checker, logger: logger}, nil
}

// Validate judges one statement. Malformed requests return ErrInput
// without an audit entry; every well-formed request produces an
// audited Decision, valid or not.
func (v *Validator) Validate(ctx context.Context, op OperationType, statement string, opCtx OperationContext) (Decision, error) {
	_, span := validatorTracer.Start(ctx, "validator.validate")
	defer span.End()

	if statement == "" {
		return Decision{}, fmt.Errorf("%w: statement required", ErrInput)
	}
	if op == OpVendorUpdate && opCtx.Vendor == nil {
		return Decision{}, fmt.Errorf("%w: vendor record required for vendor_update", ErrInput)
	}

	decision := Decision{
		ID:            "val_" + uuid.New().String(),
		Timestamp:     time.Now().UTC(),
		Operation:     op,
		Statement:     statement,
		Valid:         true,
		ApprovalLevel: rules.ApprovalAutomatic,
	}

	report, err := v.checker.Check(statement)
	decision.Warnings = append(decision.Warnings, report.Warnings...)
	if err != nil {
		decision.Valid = false
		decision.Blocked = true
		decision.Errors = append(decision.Errors, "PolicyViolation: "+report.Reason)
		return v.record(decision), nil
	}

	v.applyOperationRule(op, opCtx, &decision)
	if decision.Valid {
		v.applyContextChecks(opCtx, &decision)
	}

	return v.record(decision), nil
}

// applyOperationRule runs the rule matching the operation type. An
// unknown type never fails outright; it escalates to a supervisor.
func (v *Validator) applyOperationRule(op OperationType, opCtx OperationContext, decision *Decision) {
	switch op {
	case OpStateChange:
		td, err := v.engine.ValidateTransition(opCtx.CurrentState, opCtx.TargetState)
		if err != nil {
			decision.Valid = false
			switch {
			case errors.Is(err, rules.ErrUnknownState):
				decision.Errors = append(decision.Errors, "UnknownState: "+err.Error())
			case errors.Is(err, rules.ErrIllegalTransition):
				decision.Errors = append(decision.Errors, "IllegalTransition: "+err.Error())
			default:
				decision.Errors = append(decision.Errors, err.Error())
			}
			return
		}
		decision.RequiresApproval = td.RequiresApproval
		decision.ApprovalLevel = td.ApprovalLevel
		for _, check := range td.RequiredChecks {
			decision.Warnings = append(decision.Warnings, "complete check before applying: "+check)
		}
		for _, role := range td.Notifications {
			decision.Warnings = append(decision.Warnings, "notify on apply: "+role)
		}

	case OpAmountChange:
		ad, err := v.engine.ValidateAmountChange(opCtx.CurrentAmount, opCtx.ProposedAmount)
		if err != nil {
			decision.Valid = false
			decision.Errors = append(decision.Errors, "ContextInconsistency: "+err.Error())
			return
		}
		decision.ApprovalLevel = ad.ApprovalLevel
		decision.RequiresApproval = ad.ApprovalLevel != rules.ApprovalAutomatic
		decision.Warnings = append(decision.Warnings, ad.Warnings...)

	case OpVendorUpdate:
		vd := v.engine.ValidateVendor(*opCtx.Vendor)
		decision.Warnings = append(decision.Warnings, vd.Warnings...)
		if !vd.Valid {
			decision.Valid = false
			decision.Errors = append(decision.Errors,
				fmt.Sprintf("ContextInconsistency: vendor record missing %v", vd.Missing))
			return
		}
		decision.RequiresApproval = true
		decision.ApprovalLevel = rules.ApprovalSupervisor

	default:
		decision.RequiresApproval = true
		decision.ApprovalLevel = rules.ApprovalSupervisor
		decision.Warnings = append(decision.Warnings,
			fmt.Sprintf("unknown operation type %q, escalating to supervisor", op))
	}
}

// applyContextChecks verifies the operation context against the
// statement's domain shapes.
func (v *Validator) applyContextChecks(opCtx OperationContext, decision *Decision) {
	if opCtx.CreditNumber != "" && !creditNumberPattern.MatchString(opCtx.CreditNumber) {
		decision.Valid = false
		decision.Errors = append(decision.Errors,
			fmt.Sprintf("ContextInconsistency: credit number %q is not 13-16 digits", opCtx.CreditNumber))
	}
}

// record appends the decision to the audit trail and returns it.
func (v *Validator) record(decision Decision) Decision {
	if len(decision.Errors) > 0 {
		decision.Reason = decision.Errors[0]
	}

	v.mu.Lock()
	v.history = append(v.history, decision)
	v.mu.Unlock()

	v.logger.Info("statement validated",
		zap.String("decision_id", decision.ID),
		zap.String("operation", string(decision.Operation)),
		zap.Bool("valid", decision.Valid),
		zap.Bool("blocked", decision.Blocked),
		zap.String("approval_level", string(decision.ApprovalLevel)))
	return decision
}

// History returns a snapshot of all decisions in order.
func (v *Validator) History() []Decision {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Decision, len(v.history))
	copy(out, v.history)
	return out
}
