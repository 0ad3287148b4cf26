package dto

import (
	"encoding/json"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateWorkflowRequest defines the data needed to create a workflow entity.
type CreateWorkflowRequest struct {
	Period  domain.Period   `json:"period"`
	Payload json.RawMessage `json:"payload" swaggertype:"object"`
	// Submit moves the new entity straight into review.
	Submit bool `json:"submit,omitempty"`
}

// EditWorkflowRequest replaces the payload of an editable entity.
type EditWorkflowRequest struct {
	Payload         json.RawMessage `json:"payload" swaggertype:"object"`
	ExpectedVersion *int64          `json:"expectedVersion,omitempty"`
}

// TransitionRequest carries the optional inputs of a state transition.
// Payload is only honoured by submit; Reason is required by reject.
type TransitionRequest struct {
	Payload         json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
	Comments        *string         `json:"comments,omitempty"`
	Reason          *string         `json:"reason,omitempty"`
	ExpectedVersion *int64          `json:"expectedVersion,omitempty"`
}

// ListWorkflowParams defines the query parameters for listing workflow entities.
type ListWorkflowParams struct {
	Owner     string   `form:"owner"`
	Session   string   `form:"session"`
	Term      string   `form:"term"`
	Status    []string `form:"status"`                                  // repeatable or comma separated
	Limit     int      `form:"limit" binding:"omitempty,min=1,max=500"` // 0 or absent uses the default page size
	NextToken *string  `form:"nextToken"`
}

// WorkflowEntityResponse is the API view of a workflow entity.
type WorkflowEntityResponse struct {
	domain.WorkflowEntity
	// NetBalance is derived for financial reports.
	NetBalance *decimal.Decimal `json:"netBalance,omitempty"`
}

// ListWorkflowResponse is one page of workflow entities.
type ListWorkflowResponse struct {
	Items     []WorkflowEntityResponse `json:"items"`
	NextToken *string                  `json:"nextToken,omitempty"`
}

// ListHistoryResponse is an entity's transition history, oldest first.
type ListHistoryResponse struct {
	EntityID string                    `json:"entityId"`
	Records  []domain.TransitionRecord `json:"records"`
}

// ToWorkflowEntityResponse converts a domain entity, adding derived fields.
func ToWorkflowEntityResponse(e domain.WorkflowEntity) WorkflowEntityResponse {
	resp := WorkflowEntityResponse{WorkflowEntity: e}
	if e.Kind == domain.KindFinancialReport {
		var p domain.FinancialReportPayload
		if err := json.Unmarshal(e.Payload, &p); err == nil {
			nb := p.NetBalance()
			resp.NetBalance = &nb
		}
	}
	return resp
}

// ToWorkflowEntityResponses converts a slice of domain entities.
func ToWorkflowEntityResponses(es []domain.WorkflowEntity) []WorkflowEntityResponse {
	out := make([]WorkflowEntityResponse, len(es))
	for i, e := range es {
		out[i] = ToWorkflowEntityResponse(e)
	}
	return out
}
