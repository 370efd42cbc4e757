package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// defaultTimeout bounds a single embedding call. Embedding is the one
// blocking external call in the retrieval path; it must never hang the
// caller.
const defaultTimeout = 10 * time.Second

// Config holds configuration for the embedding service.
type Config struct {
	// BaseURL is the base URL for the embedding API.
	BaseURL string

	// Model is the embedding model to use.
	Model string

	// Timeout bounds each HTTP call. Defaults to 10s.
	Timeout time.Duration
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// Service generates embeddings via a TEI-compatible HTTP endpoint.
type Service struct {
	config    Config
	client    *http.Client
	logger    *zap.Logger
	dimension int
	metrics   *Metrics
}

// NewService creates a new embedding service with the given
// configuration.
func NewService(config Config, logger *zap.Logger) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Service{
		config:    config,
		client:    &http.Client{Timeout: config.Timeout},
		logger:    logger,
		dimension: detectDimensionFromModel(config.Model),
		metrics:   NewMetrics(),
	}, nil
}

// teiRequest is the request body for the TEI embed endpoint.
type teiRequest struct {
	Inputs   interface{} `json:"inputs"`
	Truncate bool        `json:"truncate"`
}

// EmbedDocuments generates embeddings for multiple texts.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		s.metrics.RecordGeneration("embed_documents", time.Since(start), len(texts), genErr)
	}()

	if len(texts) == 0 {
		genErr = fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
		return nil, genErr
	}

	embeddings, err := s.post(ctx, teiRequest{Inputs: texts, Truncate: true})
	if err != nil {
		genErr = err
		return nil, err
	}

	if len(embeddings) != len(texts) {
		genErr = fmt.Errorf("%w: got %d embeddings for %d texts", ErrBackendUnavailable, len(embeddings), len(texts))
		return nil, genErr
	}

	return embeddings, nil
}

// EmbedQuery generates an embedding for a single query.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		s.metrics.RecordGeneration("embed_query", time.Since(start), 1, genErr)
	}()

	if text == "" {
		genErr = fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
		return nil, genErr
	}

	embeddings, err := s.post(ctx, teiRequest{Inputs: []string{text}, Truncate: true})
	if err != nil {
		genErr = err
		return nil, err
	}

	if len(embeddings) != 1 {
		genErr = fmt.Errorf("%w: got %d embeddings for one query", ErrBackendUnavailable, len(embeddings))
		return nil, genErr
	}

	return embeddings[0], nil
}

// post sends one embed request and decodes the vectors. All transport
// and status failures map to ErrBackendUnavailable.
func (s *Service) post(ctx context.Context, req teiRequest) ([][]float32, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, resp.StatusCode, msg)
	}

	var embeddings [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrBackendUnavailable, err)
	}

	return embeddings, nil
}

// Dimension returns the embedding dimension based on the configured
// model.
func (s *Service) Dimension() int {
	return s.dimension
}

// Close is a no-op for the HTTP client.
func (s *Service) Close() error {
	return nil
}

// Ensure Service implements Provider.
var _ Provider = (*Service)(nil)
