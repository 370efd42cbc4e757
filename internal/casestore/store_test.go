package casestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/vectorstore"
)

// fakeVectors records documents in memory so tests never touch an
// embedding backend.
type fakeVectors struct {
	docs    map[string]vectorstore.Document
	addErr  error
	deleted []string
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{docs: make(map[string]vectorstore.Document)}
}

func (f *fakeVectors) AddDocuments(_ context.Context, docs []vectorstore.Document) ([]string, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		f.docs[d.ID] = d
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (f *fakeVectors) Search(context.Context, string, int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeVectors) DeleteDocuments(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.docs, id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

func (f *fakeVectors) Count(context.Context) (int, error) { return len(f.docs), nil }
func (f *fakeVectors) Close() error                       { return nil }

func newTestStore(t *testing.T) (*Store, *fakeVectors) {
	t.Helper()
	vectors := newFakeVectors()
	store, err := New(filepath.Join(t.TempDir(), "cases.json"), vectors, zap.NewNop())
	require.NoError(t, err)
	return store, vectors
}

func validCase() Case {
	return Case{
		Category:         "comisiones",
		Problem:          "la comision del credito quedo en estado incorrecto",
		SolutionTemplate: "UPDATE formatexceldlle SET EstadoLiquidacionVendedor = 77 WHERE CreditNumber = '[CREDITO]'",
		ConceptTags:      []string{"comision", "credito", "estado"},
		Complexity:       2,
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New("", newFakeVectors(), zap.NewNop())
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(filepath.Join(t.TempDir(), "cases.json"), nil, zap.NewNop())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStore_TeachAndGet(t *testing.T) {
	store, vectors := newTestStore(t)

	taught, err := store.Teach(context.Background(), validCase())
	require.NoError(t, err)
	assert.NotEmpty(t, taught.ID)
	assert.False(t, taught.CreatedAt.IsZero())

	got, err := store.Get(taught.ID)
	require.NoError(t, err)
	assert.Equal(t, taught.Problem, got.Problem)

	// The embedding document mirrors the problem text.
	doc, ok := vectors.docs[taught.ID]
	require.True(t, ok)
	assert.Equal(t, taught.Problem, doc.Content)
	assert.Equal(t, "comisiones", doc.Metadata["category"])
}

func TestStore_TeachRejectsIncomplete(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Teach(context.Background(), Case{Problem: "sin solucion"})
	require.ErrorIs(t, err, ErrInvalidCase)

	_, err = store.Teach(context.Background(), Case{SolutionTemplate: "UPDATE x SET y = 1"})
	require.ErrorIs(t, err, ErrInvalidCase)
}

func TestStore_TeachEmbeddingFailure(t *testing.T) {
	store, vectors := newTestStore(t)
	vectors.addErr = errors.New("backend down")

	_, err := store.Teach(context.Background(), validCase())
	require.Error(t, err)
	assert.Zero(t, store.Count())
}

func TestStore_AllPreservesInsertionOrder(t *testing.T) {
	store, _ := newTestStore(t)

	first := validCase()
	first.Problem = "primer caso registrado en el sistema"
	second := validCase()
	second.Problem = "segundo caso registrado en el sistema"

	a, err := store.Teach(context.Background(), first)
	require.NoError(t, err)
	b, err := store.Teach(context.Background(), second)
	require.NoError(t, err)

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, b.ID, all[1].ID)
}

func TestStore_PersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json")
	vectors := newFakeVectors()

	store, err := New(path, vectors, zap.NewNop())
	require.NoError(t, err)

	taught, err := store.Teach(context.Background(), validCase())
	require.NoError(t, err)

	reopened, err := New(path, vectors, zap.NewNop())
	require.NoError(t, err)

	got, err := reopened.Get(taught.ID)
	require.NoError(t, err)
	assert.Equal(t, taught.SolutionTemplate, got.SolutionTemplate)
	assert.Equal(t, []string{"comision", "credito", "estado"}, got.ConceptTags)
}

func TestStore_RecordUsage(t *testing.T) {
	store, _ := newTestStore(t)

	taught, err := store.Teach(context.Background(), validCase())
	require.NoError(t, err)

	require.NoError(t, store.RecordUsage(taught.ID))
	require.NoError(t, store.RecordUsage(taught.ID))

	got, err := store.Get(taught.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)

	require.ErrorIs(t, store.RecordUsage("case_missing"), ErrNotFound)
}

func TestStore_ApplyFeedback(t *testing.T) {
	store, _ := newTestStore(t)

	taught, err := store.Teach(context.Background(), validCase())
	require.NoError(t, err)

	updated, err := store.ApplyFeedback(taught.ID, RatingHelpful)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Effectiveness)

	updated, err = store.ApplyFeedback(taught.ID, RatingNotHelpful)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Effectiveness)

	_, err = store.ApplyFeedback(taught.ID, Rating("meh"))
	require.ErrorIs(t, err, ErrInvalidCase)

	_, err = store.ApplyFeedback("case_missing", RatingHelpful)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Remove(t *testing.T) {
	store, vectors := newTestStore(t)

	taught, err := store.Teach(context.Background(), validCase())
	require.NoError(t, err)

	require.NoError(t, store.Remove(context.Background(), taught.ID))
	assert.Zero(t, store.Count())
	assert.Contains(t, vectors.deleted, taught.ID)

	_, err = store.Get(taught.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.Remove(context.Background(), taught.ID), ErrNotFound)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)

	taught, err := store.Teach(context.Background(), validCase())
	require.NoError(t, err)

	got, err := store.Get(taught.ID)
	require.NoError(t, err)
	got.ConceptTags[0] = "mutated"

	again, err := store.Get(taught.ID)
	require.NoError(t, err)
	assert.Equal(t, "comision", again.ConceptTags[0])
}
