// Package casestore persists solved support cases and their embeddings.
//
// Typed case records live in a JSON-backed in-memory index; the vector
// store holds one embedded document per case, keyed by case ID. The two
// are kept in lockstep: a case is either fully present in both or in
// neither.
package casestore

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the case ID does not exist.
	ErrNotFound = errors.New("case not found")

	// ErrInvalidCase indicates a case missing required fields.
	ErrInvalidCase = errors.New("invalid case")

	// ErrInvalidConfig indicates invalid store configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Rating is caller feedback on a retrieved case.
type Rating string

const (
	RatingHelpful    Rating = "helpful"
	RatingNotHelpful Rating = "not_helpful"
)

// Case is one solved support case: a problem description paired with
// the parameterized statement template that resolved it.
type Case struct {
	ID               string    `json:"id"`
	Category         string    `json:"category"`
	Problem          string    `json:"problem"`
	SolutionTemplate string    `json:"solution_template"`
	Response         string    `json:"response,omitempty"`
	UsageCount       int       `json:"usage_count"`
	Effectiveness    int       `json:"effectiveness"`
	ConceptTags      []string  `json:"concept_tags,omitempty"`
	Complexity       int       `json:"complexity"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validate checks the fields callers must supply.
func (c Case) Validate() error {
	if c.Problem == "" {
		return errors.New("problem description required")
	}
	if c.SolutionTemplate == "" {
		return errors.New("solution template required")
	}
	return nil
}

// clone returns a deep copy so callers cannot mutate stored state.
func (c Case) clone() Case {
	out := c
	if c.ConceptTags != nil {
		out.ConceptTags = append([]string(nil), c.ConceptTags...)
	}
	return out
}
