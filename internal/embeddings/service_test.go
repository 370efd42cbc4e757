package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTEIServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req teiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		inputs, ok := req.Inputs.([]interface{})
		require.True(t, ok)

		out := make([][]float32, len(inputs))
		for i := range out {
			vec := make([]float32, dim)
			vec[0] = 1
			out[i] = vec
		}
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}))
}

func TestService_EmbedQuery(t *testing.T) {
	srv := newTEIServer(t, 384)
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL, Model: "BAAI/bge-small-en-v1.5"}, zap.NewNop())
	require.NoError(t, err)

	vec, err := svc.EmbedQuery(context.Background(), "cambiar estado del credito")
	require.NoError(t, err)
	assert.Len(t, vec, 384)
	assert.Equal(t, 384, svc.Dimension())
}

func TestService_EmbedDocuments(t *testing.T) {
	srv := newTEIServer(t, 8)
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	vecs, err := svc.EmbedDocuments(context.Background(), []string{"uno", "dos", "tres"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
}

func TestService_EmptyInput(t *testing.T) {
	svc, err := NewService(Config{BaseURL: "http://localhost:1"}, zap.NewNop())
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.EmbedQuery(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestService_BackendDown(t *testing.T) {
	// Nothing listens on this port.
	svc, err := NewService(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "hola")
	require.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestService_BackendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "hola")
	require.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestService_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "hola")
	require.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestNewService_RequiresBaseURL(t *testing.T) {
	_, err := NewService(Config{}, zap.NewNop())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDetectDimensionFromModel(t *testing.T) {
	assert.Equal(t, 384, detectDimensionFromModel("BAAI/bge-small-en-v1.5"))
	assert.Equal(t, 768, detectDimensionFromModel("BAAI/bge-base-en-v1.5"))
	assert.Equal(t, 1024, detectDimensionFromModel("BAAI/bge-large-en-v1.5"))
	assert.Equal(t, 384, detectDimensionFromModel("unknown-model"))
}
