// Package safety screens generated statements for destructive shapes
// before they reach a human or an executor.
//
// The check is deny-by-pattern: a fixed blocklist plus structural
// rules, evaluated on an uppercased copy of the statement. Blocked
// statements carry the reason; risky-but-allowed shapes carry
// advisories.
package safety

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ErrPolicyViolation indicates a statement the policy refuses outright.
var ErrPolicyViolation = errors.New("policy violation")

// blocklist contains fragments that are never acceptable in a
// generated statement, regardless of context.
var blocklist = []string{
	"DELETE FROM USER",
	"DROP TABLE",
	"DROP DATABASE",
	"TRUNCATE",
	"ALTER TABLE",
	"CREATE TABLE",
	"DROP INDEX",
}

// Structural rules. Go's regexp has no lookaround, so the absence of a
// WHERE clause is checked separately from the statement-shape match.
var (
	deletePattern   = regexp.MustCompile(`(?i)\bDELETE\s+FROM\b`)
	updatePattern   = regexp.MustCompile(`(?i)\bUPDATE\s+\S+\s+SET\b`)
	wherePattern    = regexp.MustCompile(`(?i)\bWHERE\b`)
	limitPattern    = regexp.MustCompile(`(?i)\bLIMIT\b`)
	chainedPattern  = regexp.MustCompile(`(?i);[^;]*\b(DELETE|DROP|TRUNCATE)\b`)
	dropWordPattern = regexp.MustCompile(`(?i)\b(DROP|TRUNCATE)\b`)
)

// Report is the outcome of one safety check.
type Report struct {
	Blocked  bool     `json:"blocked"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Checker applies the policy. It holds no mutable state and is safe
// for concurrent use.
type Checker struct {
	logger *zap.Logger
}

// NewChecker creates a Checker.
func NewChecker(logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{logger: logger}
}

// Check screens a statement. A blocked statement returns a Report with
// Blocked set and an error wrapping ErrPolicyViolation; allowed
// statements return advisories only.
func (c *Checker) Check(statement string) (Report, error) {
	upper := strings.ToUpper(statement)

	for _, fragment := range blocklist {
		if strings.Contains(upper, fragment) {
			return c.block(statement, fmt.Sprintf("statement contains blocked fragment %q", fragment))
		}
	}

	hasWhere := wherePattern.MatchString(statement)

	if deletePattern.MatchString(statement) && !hasWhere {
		return c.block(statement, "DELETE without a WHERE clause")
	}
	if updatePattern.MatchString(statement) && !hasWhere {
		return c.block(statement, "UPDATE without a WHERE clause")
	}
	if dropWordPattern.MatchString(statement) {
		return c.block(statement, "statement contains DROP or TRUNCATE")
	}
	if chainedPattern.MatchString(statement) {
		return c.block(statement, "chained destructive statement")
	}

	var report Report
	if deletePattern.MatchString(statement) {
		report.Warnings = append(report.Warnings, "DELETE statement, verify the WHERE clause before running")
	}
	if (deletePattern.MatchString(statement) || updatePattern.MatchString(statement)) && !limitPattern.MatchString(statement) {
		report.Warnings = append(report.Warnings, "statement has no LIMIT clause")
	}
	return report, nil
}

func (c *Checker) block(statement, reason string) (Report, error) {
	c.logger.Warn("statement blocked",
		zap.String("reason", reason),
		zap.String("statement", statement))
	return Report{Blocked: true, Reason: reason}, fmt.Errorf("%w: %s", ErrPolicyViolation, reason)
}
