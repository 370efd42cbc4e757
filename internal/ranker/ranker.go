// Package ranker orders stored cases against a query by combining
// semantic similarity with deterministic domain signals.
//
// The composite score is cosine similarity (clamped to [0,1]) plus a
// concept-overlap bonus and a shared-identifier bonus, capped at 1.0.
// Ties break on usage count, then on case insertion order, so identical
// inputs always rank identically.
package ranker

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/casestore"
	"github.com/fyrsmithlabs/remedyd/internal/concepts"
	"github.com/fyrsmithlabs/remedyd/internal/vectorstore"
)

var rankerTracer = otel.Tracer("remedyd.ranker")

const (
	// conceptWeight scales the Jaccard overlap of concept tags.
	conceptWeight = 0.15
	// idBonus is added when query and case share a long numeric token.
	idBonus = 0.05
)

// sharedIDPattern matches identifier-sized numeric tokens.
var sharedIDPattern = regexp.MustCompile(`\d{5,}`)

// Match is one ranked case with its score breakdown.
type Match struct {
	Case         casestore.Case `json:"case"`
	Score        float64        `json:"score"`
	Cosine       float64        `json:"cosine"`
	ConceptBonus float64        `json:"concept_bonus"`
	IDBonus      float64        `json:"id_bonus"`
}

// Ranker joins vector-store search results back to typed cases and
// applies the composite scoring.
type Ranker struct {
	cases     *casestore.Store
	vectors   vectorstore.Store
	extractor *concepts.Extractor
	logger    *zap.Logger
}

// New creates a Ranker. Passing a nil extractor uses the default
// synonym table.
func New(cases *casestore.Store, vectors vectorstore.Store, extractor *concepts.Extractor, logger *zap.Logger) (*Ranker, error) {
	if cases == nil {
		return nil, fmt.Errorf("case store required")
	}
	if vectors == nil {
		return nil, fmt.Errorf("vector store required")
	}
	if extractor == nil {
		extractor = concepts.NewExtractor(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{cases: cases, vectors: vectors, extractor: extractor, logger: logger}, nil
}

// Rank scores every stored case against the query and returns the top k
// matches in descending score order. An empty store yields an empty
// result, never an error.
func (r *Ranker) Rank(ctx context.Context, query string, k int) ([]Match, error) {
	ctx, span := rankerTracer.Start(ctx, "ranker.rank")
	defer span.End()

	all := r.cases.All()
	if len(all) == 0 || k <= 0 {
		return []Match{}, nil
	}

	// Search across every case so the join below sees a cosine for each
	// cached embedding. IDs absent from the results have no embedding
	// yet and get re-embedded lazily.
	cosines, err := r.searchAll(ctx, query, all)
	if err != nil {
		return nil, err
	}

	queryTags := r.extractor.Extract(query)
	queryIDs := numericTokens(query)

	matches := make([]Match, 0, len(all))
	for _, c := range all {
		cos, ok := cosines[c.ID]
		if !ok {
			continue
		}

		m := Match{Case: c, Cosine: clamp01(float64(cos))}
		m.ConceptBonus = concepts.Jaccard(queryTags, concepts.NewSet(c.ConceptTags...)) * conceptWeight
		if sharesNumericToken(queryIDs, c.Problem) {
			m.IDBonus = idBonus
		}
		m.Score = clamp01(m.Cosine + m.ConceptBonus + m.IDBonus)
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Case.UsageCount > matches[j].Case.UsageCount
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// searchAll returns a cosine similarity per case ID, re-embedding any
// case missing from the vector store before the final search.
func (r *Ranker) searchAll(ctx context.Context, query string, all []casestore.Case) (map[string]float32, error) {
	results, err := r.vectors.Search(ctx, query, len(all))
	if err != nil {
		return nil, fmt.Errorf("searching cases: %w", err)
	}

	cosines := make(map[string]float32, len(results))
	for _, res := range results {
		cosines[res.ID] = res.Score
	}

	var missing []vectorstore.Document
	for _, c := range all {
		if _, ok := cosines[c.ID]; !ok {
			missing = append(missing, vectorstore.Document{
				ID:      c.ID,
				Content: c.Problem,
				Metadata: map[string]string{
					"category": c.Category,
				},
			})
		}
	}
	if len(missing) == 0 {
		return cosines, nil
	}

	r.logger.Info("re-embedding cases missing from vector store",
		zap.Int("count", len(missing)))

	if _, err := r.vectors.AddDocuments(ctx, missing); err != nil {
		return nil, fmt.Errorf("re-embedding cases: %w", err)
	}

	results, err = r.vectors.Search(ctx, query, len(all))
	if err != nil {
		return nil, fmt.Errorf("searching cases: %w", err)
	}
	for _, res := range results {
		cosines[res.ID] = res.Score
	}
	return cosines, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func numericTokens(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range sharedIDPattern.FindAllString(text, -1) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

func sharesNumericToken(queryTokens map[string]struct{}, problem string) bool {
	if len(queryTokens) == 0 {
		return false
	}
	for _, tok := range sharedIDPattern.FindAllString(problem, -1) {
		if _, ok := queryTokens[tok]; ok {
			return true
		}
	}
	return false
}
