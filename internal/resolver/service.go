// Package resolver is the service facade: it retrieves similar solved
// cases, concretizes the best template with values from the query, and
// validates the result before anyone sees it.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/casestore"
	"github.com/fyrsmithlabs/remedyd/internal/concepts"
	"github.com/fyrsmithlabs/remedyd/internal/extraction"
	"github.com/fyrsmithlabs/remedyd/internal/ranker"
	"github.com/fyrsmithlabs/remedyd/internal/template"
	"github.com/fyrsmithlabs/remedyd/internal/validator"
)

var resolverTracer = otel.Tracer("remedyd.resolver")

var (
	// ErrEmptyQuery indicates a request without a problem description.
	ErrEmptyQuery = errors.New("empty query")

	// ErrNoMatch indicates no stored case could be retrieved.
	ErrNoMatch = errors.New("no matching case")
)

// defaultTopK bounds retrieval when the caller does not ask for a
// specific number of matches.
const defaultTopK = 5

// identifierPattern spots identifier-sized digit runs during
// sufficiency screening.
var identifierPattern = extraction.IdentifierPattern

// TeachRequest describes a new solved case.
type TeachRequest struct {
	Category         string `json:"category"`
	Problem          string `json:"problem"`
	SolutionTemplate string `json:"solution_template"`
	Response         string `json:"response,omitempty"`
}

// ResolveRequest asks for a concrete, validated statement for a query.
type ResolveRequest struct {
	Query     string                     `json:"query"`
	Operation validator.OperationType    `json:"operation"`
	Context   validator.OperationContext `json:"context"`
	TopK      int                        `json:"top_k,omitempty"`
}

// ResolveResult is a concretized statement plus its validation verdict.
type ResolveResult struct {
	Match     ranker.Match       `json:"match"`
	Values    extraction.Values  `json:"values"`
	Statement string             `json:"statement"`
	Decision  validator.Decision `json:"decision"`
	Warnings  []string           `json:"warnings,omitempty"`
}

// Service wires the retrieval and validation pipeline together.
type Service struct {
	cases     *casestore.Store
	ranker    *ranker.Ranker
	values    *extraction.Extractor
	concepts  *concepts.Extractor
	validator *validator.Validator
	logger    *zap.Logger
	metrics   *Metrics
}

// NewService creates the resolver service. All collaborators are
// required except the logger.
func NewService(cases *casestore.Store, rk *ranker.Ranker, vals *extraction.Extractor, tags *concepts.Extractor, val *validator.Validator, logger *zap.Logger) (*Service, error) {
	if cases == nil {
		return nil, errors.New("case store required")
	}
	if rk == nil {
		return nil, errors.New("ranker required")
	}
	if vals == nil {
		return nil, errors.New("value extractor required")
	}
	if tags == nil {
		tags = concepts.NewExtractor(nil)
	}
	if val == nil {
		return nil, errors.New("validator required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cases:     cases,
		ranker:    rk,
		values:    vals,
		concepts:  tags,
		validator: val,
		logger:    logger,
		metrics:   NewMetrics(),
	}, nil
}

// Retrieve returns the top matches for a query, with sufficiency
// advisories when the query looks too thin to retrieve well.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]ranker.Match, []string, error) {
	ctx, span := resolverTracer.Start(ctx, "resolver.retrieve")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = defaultTopK
	}
	s.metrics.retrievalsTotal.Inc()

	warnings := screenSufficiency(query)
	matches, err := s.ranker.Rank(ctx, query, k)
	if err != nil {
		return nil, nil, err
	}
	return matches, warnings, nil
}

// Resolve retrieves the best case for the query, substitutes the
// extracted values into its template, and validates the result. A
// valid decision counts as one more use of the case.
func (s *Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	ctx, span := resolverTracer.Start(ctx, "resolver.resolve")
	defer span.End()

	start := time.Now()
	result := "error"
	defer func() {
		s.metrics.RecordResolve(result, time.Since(start))
	}()

	matches, warnings, err := s.Retrieve(ctx, req.Query, req.TopK)
	if err != nil {
		return ResolveResult{}, err
	}
	if len(matches) == 0 {
		result = "no_match"
		return ResolveResult{}, fmt.Errorf("%w: %q", ErrNoMatch, req.Query)
	}
	best := matches[0]

	values := s.values.Extract(req.Query)
	statement := template.Substitute(best.Case.SolutionTemplate, values)

	decision, err := s.validator.Validate(ctx, req.Operation, statement, req.Context)
	if err != nil {
		return ResolveResult{}, err
	}

	if decision.Valid {
		result = "valid"
		if err := s.cases.RecordUsage(best.Case.ID); err != nil {
			s.logger.Warn("recording case usage failed",
				zap.String("case_id", best.Case.ID),
				zap.Error(err))
		}
	} else {
		result = "invalid"
	}

	s.logger.Info("query resolved",
		zap.String("case_id", best.Case.ID),
		zap.Float64("score", best.Score),
		zap.Bool("valid", decision.Valid))

	return ResolveResult{
		Match:     best,
		Values:    values,
		Statement: statement,
		Decision:  decision,
		Warnings:  warnings,
	}, nil
}

// Teach stores a new solved case, deriving its concept tags and
// complexity from the problem text.
func (s *Service) Teach(ctx context.Context, req TeachRequest) (casestore.Case, error) {
	ctx, span := resolverTracer.Start(ctx, "resolver.teach")
	defer span.End()

	c := casestore.Case{
		Category:         req.Category,
		Problem:          req.Problem,
		SolutionTemplate: req.SolutionTemplate,
		Response:         req.Response,
		ConceptTags:      s.concepts.Extract(req.Problem).Slice(),
		Complexity:       detectComplexity(req.Problem),
	}

	taught, err := s.cases.Teach(ctx, c)
	if err != nil {
		return casestore.Case{}, err
	}
	s.metrics.casesTaught.Inc()
	return taught, nil
}

// ValidateStatement runs a statement through the validation pipeline
// without retrieval, for callers that already have one in hand.
func (s *Service) ValidateStatement(ctx context.Context, op validator.OperationType, statement string, opCtx validator.OperationContext) (validator.Decision, error) {
	return s.validator.Validate(ctx, op, statement, opCtx)
}

// Feedback applies a helpfulness rating to a case.
func (s *Service) Feedback(_ context.Context, id string, rating casestore.Rating) (casestore.Case, error) {
	return s.cases.ApplyFeedback(id, rating)
}

// Remove deletes a case and its embedding.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.cases.Remove(ctx, id)
}

// Cases lists all stored cases in insertion order.
func (s *Service) Cases() []casestore.Case {
	return s.cases.All()
}

// AuditHistory returns every validation decision made so far.
func (s *Service) AuditHistory() []validator.Decision {
	return s.validator.History()
}

// screenSufficiency flags queries unlikely to retrieve anything
// useful. Advisory only; retrieval still runs.
func screenSufficiency(query string) []string {
	words := len(strings.Fields(query))
	var warnings []string

	switch {
	case words < 10:
		warnings = append(warnings, "query is very short, retrieval quality may be poor")
	case words < 20 && !identifierPattern.MatchString(query):
		warnings = append(warnings, "query has no identifier and little detail, consider adding a credit or case number")
	}
	return warnings
}

// detectComplexity estimates how involved a problem is on a 1-3 scale.
func detectComplexity(problem string) int {
	words := len(strings.Fields(problem))
	lines := strings.Count(problem, "\n") + 1
	hasCredit := extraction.CreditPattern.MatchString(problem)
	hasValues := strings.Contains(problem, "$")

	if (words > 100 || lines > 10) && (hasCredit || hasValues) {
		return 3
	}
	if words > 50 || lines > 5 {
		return 2
	}
	return 1
}
