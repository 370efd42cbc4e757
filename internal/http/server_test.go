package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/casestore"
	"github.com/fyrsmithlabs/remedyd/internal/concepts"
	"github.com/fyrsmithlabs/remedyd/internal/extraction"
	"github.com/fyrsmithlabs/remedyd/internal/ranker"
	"github.com/fyrsmithlabs/remedyd/internal/resolver"
	"github.com/fyrsmithlabs/remedyd/internal/rules"
	"github.com/fyrsmithlabs/remedyd/internal/safety"
	"github.com/fyrsmithlabs/remedyd/internal/validator"
	"github.com/fyrsmithlabs/remedyd/internal/vectorstore"
)

// memoryVectors is a minimal in-memory stand-in for the vector store.
type memoryVectors struct {
	docs map[string]string
}

func (m *memoryVectors) AddDocuments(_ context.Context, docs []vectorstore.Document) ([]string, error) {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		m.docs[d.ID] = d.Content
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (m *memoryVectors) Search(_ context.Context, _ string, k int) ([]vectorstore.SearchResult, error) {
	var out []vectorstore.SearchResult
	for id := range m.docs {
		out = append(out, vectorstore.SearchResult{ID: id, Score: 0.8})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (m *memoryVectors) DeleteDocuments(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.docs, id)
	}
	return nil
}

func (m *memoryVectors) Count(context.Context) (int, error) { return len(m.docs), nil }
func (m *memoryVectors) Close() error                       { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	vectors := &memoryVectors{docs: make(map[string]string)}

	cases, err := casestore.New(filepath.Join(t.TempDir(), "cases.json"), vectors, logger)
	require.NoError(t, err)
	tags := concepts.NewExtractor(nil)
	rk, err := ranker.New(cases, vectors, tags, logger)
	require.NoError(t, err)
	engine, err := rules.NewEngine(rules.DefaultRuleset(), logger)
	require.NoError(t, err)
	val, err := validator.NewValidator(engine, safety.NewChecker(logger), logger)
	require.NoError(t, err)
	svc, err := resolver.NewService(cases, rk, extraction.NewExtractor(), tags, val, logger)
	require.NoError(t, err)

	server, err := NewServer(svc, logger, nil)
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echoContentType, echoJSON)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

const (
	echoContentType = "Content-Type"
	echoJSON        = "application/json"
)

func teachCase(t *testing.T, s *Server) casestore.Case {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/v1/cases", `{
		"category": "liquidaciones",
		"problem": "la comision del credito quedo liquidada y debe pasar a estado aprobado",
		"solution_template": "UPDATE formatexceldlle SET EstadoLiquidacionVendedor = 77 WHERE CreditNumber = '[CREDITO]'"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var c casestore.Case
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	return c
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTeachAndListCases(t *testing.T) {
	s := newTestServer(t)
	taught := teachCase(t, s)
	assert.NotEmpty(t, taught.ID)
	assert.Contains(t, taught.ConceptTags, "comision")

	rec := doJSON(t, s, http.MethodGet, "/api/v1/cases", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CasesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Cases, 1)
	assert.Equal(t, taught.ID, resp.Cases[0].ID)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/cases/"+taught.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/cases/case_absent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveEndpoint(t *testing.T) {
	s := newTestServer(t)
	teachCase(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/resolve", `{
		"query": "la comision del credito 5800325002956151 esta liquidada y debe quedar aprobada cuanto antes",
		"operation": "state_change",
		"context": {"current_state": 71, "target_state": 77, "credit_number": "5800325002956151"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result resolver.ResolveResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t,
		"UPDATE formatexceldlle SET EstadoLiquidacionVendedor = 77 WHERE CreditNumber = '5800325002956151'",
		result.Statement)
	assert.True(t, result.Decision.Valid)
	assert.Equal(t, rules.ApprovalDirector, result.Decision.ApprovalLevel)
}

func TestResolveEndpoint_Errors(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/resolve", `{"query": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/resolve", `{
		"query": "la comision del credito 5800325002956151 esta liquidada y debe quedar aprobada"
	}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRetrieveEndpoint(t *testing.T) {
	s := newTestServer(t)
	teachCase(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/retrieve", `{
		"query": "la comision del credito sigue liquidada y el vendedor espera que quede aprobada",
		"top_k": 3
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RetrieveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/validate", `{
		"operation": "state_change",
		"statement": "UPDATE formatexceldlle SET EstadoLiquidacionVendedor = 71 WHERE CreditNumber = '5800325002956151'",
		"context": {"current_state": 79, "target_state": 71}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var decision validator.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.False(t, decision.Valid)
	assert.Contains(t, decision.Errors[0], "IllegalTransition")

	// Empty statement is a malformed request.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/validate", `{"operation": "state_change", "statement": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedbackAndRemoveEndpoints(t *testing.T) {
	s := newTestServer(t)
	taught := teachCase(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/cases/"+taught.ID+"/feedback", `{"rating": "helpful"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated casestore.Case
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 1, updated.Effectiveness)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/cases/"+taught.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/cases/"+taught.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditEndpoint(t *testing.T) {
	s := newTestServer(t)
	teachCase(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/resolve", `{
		"query": "la comision del credito 5800325002956151 esta liquidada y debe quedar aprobada cuanto antes",
		"operation": "state_change",
		"context": {"current_state": 71, "target_state": 77}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuditResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Decisions, 1)
	assert.True(t, resp.Decisions[0].Valid)
}
