package casestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/vectorstore"
)

var storeTracer = otel.Tracer("remedyd.casestore")

// Store holds case records in memory, persists them as JSON, and keeps
// one embedded document per case in the vector store.
type Store struct {
	path    string
	vectors vectorstore.Store
	logger  *zap.Logger

	mu    sync.RWMutex
	cases map[string]*Case
	order []string
}

// persistedState is the on-disk layout. Order is kept explicitly so
// insertion order survives restarts.
type persistedState struct {
	Cases []Case `json:"cases"`
}

// New creates a store backed by the given JSON file and vector store.
// An existing file is loaded; a missing one starts empty.
func New(path string, vectors vectorstore.Store, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path required", ErrInvalidConfig)
	}
	if vectors == nil {
		return nil, fmt.Errorf("%w: vector store required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		path:    path,
		vectors: vectors,
		logger:  logger,
		cases:   make(map[string]*Case),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("loading cases: %w", err)
	}

	logger.Info("case store ready",
		zap.String("path", path),
		zap.Int("cases", len(s.order)))
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}

	for i := range state.Cases {
		c := state.Cases[i]
		s.cases[c.ID] = &c
		s.order = append(s.order, c.ID)
	}
	return nil
}

// persist writes the full state atomically. Callers hold the lock.
func (s *Store) persist() error {
	state := persistedState{Cases: make([]Case, 0, len(s.order))}
	for _, id := range s.order {
		state.Cases = append(state.Cases, *s.cases[id])
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cases: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// Teach adds a new solved case. The embedding is written first; if the
// record cannot be persisted the embedding is rolled back so the two
// stores never diverge.
func (s *Store) Teach(ctx context.Context, c Case) (Case, error) {
	ctx, span := storeTracer.Start(ctx, "casestore.teach")
	defer span.End()

	if err := c.Validate(); err != nil {
		return Case{}, fmt.Errorf("%w: %v", ErrInvalidCase, err)
	}

	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = "case_" + uuid.New().String()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.vectors.AddDocuments(ctx, []vectorstore.Document{{
		ID:      c.ID,
		Content: c.Problem,
		Metadata: map[string]string{
			"category": c.Category,
		},
	}}); err != nil {
		return Case{}, fmt.Errorf("embedding case: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.cases[c.ID]
	if existed {
		c.CreatedAt = prev.CreatedAt
	} else {
		s.order = append(s.order, c.ID)
	}
	s.cases[c.ID] = &c

	if err := s.persist(); err != nil {
		if existed {
			s.cases[c.ID] = prev
		} else {
			delete(s.cases, c.ID)
			s.order = s.order[:len(s.order)-1]
			if delErr := s.vectors.DeleteDocuments(ctx, []string{c.ID}); delErr != nil {
				s.logger.Warn("rollback of case embedding failed",
					zap.String("case_id", c.ID),
					zap.Error(delErr))
			}
		}
		return Case{}, err
	}

	s.logger.Info("case taught",
		zap.String("case_id", c.ID),
		zap.String("category", c.Category),
		zap.Int("complexity", c.Complexity))
	return c.clone(), nil
}

// Get returns a copy of the case with the given ID.
func (s *Store) Get(id string) (Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return Case{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.clone(), nil
}

// All returns copies of every case in insertion order.
func (s *Store) All() []Case {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Case, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.cases[id].clone())
	}
	return out
}

// RecordUsage bumps the usage counter after a case resolves a query.
func (s *Store) RecordUsage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.UsageCount++
	c.UpdatedAt = time.Now().UTC()
	return s.persist()
}

// ApplyFeedback adjusts the effectiveness score: helpful ratings add
// one, unhelpful ratings subtract one.
func (s *Store) ApplyFeedback(id string, rating Rating) (Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return Case{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	switch rating {
	case RatingHelpful:
		c.Effectiveness++
	case RatingNotHelpful:
		c.Effectiveness--
	default:
		return Case{}, fmt.Errorf("%w: unknown rating %q", ErrInvalidCase, rating)
	}
	c.UpdatedAt = time.Now().UTC()

	if err := s.persist(); err != nil {
		return Case{}, err
	}
	return c.clone(), nil
}

// Remove deletes the case record and its embedding.
func (s *Store) Remove(ctx context.Context, id string) error {
	ctx, span := storeTracer.Start(ctx, "casestore.remove")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cases[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := s.vectors.DeleteDocuments(ctx, []string{id}); err != nil {
		return fmt.Errorf("deleting case embedding: %w", err)
	}

	delete(s.cases, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.logger.Info("case removed", zap.String("case_id", id))
	return s.persist()
}

// Count returns the number of stored cases.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
