package vectorstore

import (
	"context"
	"hash/fnv"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// hashEmbedder produces deterministic unit vectors from text content so
// tests never need a real model.
type hashEmbedder struct{}

func (hashEmbedder) embed(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, 8)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33)) / float32(math.MaxInt32)
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (e hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{
		Path:       t.TempDir(),
		VectorSize: 8,
	}, hashEmbedder{}, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestNewChromemStore_RequiresEmbedder(t *testing.T) {
	_, err := NewChromemStore(ChromemConfig{Path: t.TempDir()}, nil, zap.NewNop())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestChromemStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	docs := []Document{
		{ID: "case_1", Content: "comision incorrecta del credito", Metadata: map[string]string{"category": "comisiones"}},
		{ID: "case_2", Content: "cambiar estado de liquidacion"},
	}

	ids, err := store.AddDocuments(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"case_1", "case_2"}, ids)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Searching for the exact text of case_1 must rank it first with
	// similarity ~1.
	results, err := store.Search(ctx, "comision incorrecta del credito", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "case_1", results[0].ID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-4)
	assert.Equal(t, "comisiones", results[0].Metadata["category"])
}

func TestChromemStore_SearchEmptyCollection(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemStore_SearchCapsK(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.AddDocuments(ctx, []Document{{ID: "case_1", Content: "solo uno"}})
	require.NoError(t, err)

	results, err := store.Search(ctx, "solo uno", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestChromemStore_DeleteDocuments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.AddDocuments(ctx, []Document{
		{ID: "case_1", Content: "uno"},
		{ID: "case_2", Content: "dos"},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocuments(ctx, []string{"case_1"}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Deleting nothing is a no-op.
	require.NoError(t, store.DeleteDocuments(ctx, nil))
}

func TestChromemStore_AddRejectsMissingID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddDocuments(context.Background(), []Document{{Content: "sin id"}})
	require.ErrorIs(t, err, ErrEmptyDocuments)

	_, err = store.AddDocuments(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyDocuments)
}
