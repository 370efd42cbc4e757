package http

import (
	"github.com/fyrsmithlabs/remedyd/internal/casestore"
	"github.com/fyrsmithlabs/remedyd/internal/ranker"
	"github.com/fyrsmithlabs/remedyd/internal/validator"
)

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// RetrieveRequest is the request body for POST /api/v1/retrieve.
type RetrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// RetrieveResponse is the response body for POST /api/v1/retrieve.
type RetrieveResponse struct {
	Matches  []ranker.Match `json:"matches"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ValidateRequest is the request body for POST /api/v1/validate.
type ValidateRequest struct {
	Operation validator.OperationType    `json:"operation"`
	Statement string                     `json:"statement"`
	Context   validator.OperationContext `json:"context"`
}

// FeedbackRequest is the request body for POST /api/v1/cases/:id/feedback.
type FeedbackRequest struct {
	Rating casestore.Rating `json:"rating"`
}

// CasesResponse is the response body for GET /api/v1/cases.
type CasesResponse struct {
	Cases []casestore.Case `json:"cases"`
}

// AuditResponse is the response body for GET /api/v1/audit.
type AuditResponse struct {
	Decisions []validator.Decision `json:"decisions"`
}
