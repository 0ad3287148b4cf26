package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/SscSPs/school_workflow_app/internal/dto"
	"github.com/SscSPs/school_workflow_app/internal/export"
	"github.com/SscSPs/school_workflow_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// maxExportRows bounds a single spreadsheet export.
const maxExportRows = 10000

// workflowHandler handles HTTP requests for workflow entities of every kind.
type workflowHandler struct {
	workflowService    portssvc.WorkflowSvcFacade
	aggregationService portssvc.AggregationSvc
}

func newWorkflowHandler(ws portssvc.WorkflowSvcFacade, as portssvc.AggregationSvc) *workflowHandler {
	return &workflowHandler{workflowService: ws, aggregationService: as}
}

// registerWorkflowRoutes registers routes for workflow entities.
func registerWorkflowRoutes(rg *gin.RouterGroup, ws portssvc.WorkflowSvcFacade, as portssvc.AggregationSvc) {
	h := newWorkflowHandler(ws, as)

	workflow := rg.Group("/workflow/:kind")
	{
		workflow.POST("", h.createEntity)
		workflow.GET("", h.listEntities)
		workflow.GET("/export", h.exportEntities)
		workflow.GET("/aggregate", h.periodAggregate)
		workflow.GET("/:id", h.getEntity)
		workflow.PUT("/:id", h.editEntity)
		workflow.DELETE("/:id", h.deleteEntity)
		workflow.POST("/:id/submit", h.submitEntity)
		workflow.POST("/:id/approve", h.approveEntity)
		workflow.POST("/:id/reject", h.rejectEntity)
		workflow.POST("/:id/complete", h.completeEntity)
		workflow.GET("/:id/history", h.entityHistory)
		workflow.GET("/:id/aggregate", h.entityAggregate)
	}
}

func kindParam(c *gin.Context) domain.Kind {
	return domain.Kind(c.Param("kind"))
}

func etag(version int64) string {
	return fmt.Sprintf("%q", strconv.FormatInt(version, 10))
}

// expectedVersion reads the If-Match header, falling back to the version in the body.
func expectedVersion(c *gin.Context, fromBody *int64) (*int64, error) {
	header := strings.TrimSpace(c.GetHeader("If-Match"))
	if header == "" || header == "*" {
		return fromBody, nil
	}
	header = strings.TrimPrefix(header, "W/")
	v, err := strconv.ParseInt(strings.Trim(header, `"`), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: If-Match must carry an entity version", apperrors.ErrValidation)
	}
	return &v, nil
}

func respondWithEntity(c *gin.Context, status int, e *domain.WorkflowEntity) {
	c.Header("ETag", etag(e.Version))
	c.JSON(status, dto.ToWorkflowEntityResponse(*e))
}

// bindTransition binds an optional transition body. An empty body is allowed.
func bindTransition(c *gin.Context) (dto.TransitionRequest, error) {
	var req dto.TransitionRequest
	if c.Request.ContentLength == 0 {
		return req, nil
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, fmt.Errorf("%w: invalid request format: %s", apperrors.ErrValidation, err.Error())
	}
	return req, nil
}

// createEntity godoc
// @Summary Create a workflow entity
// @Description Creates an expenditure request, financial report or exam report in draft, or straight in review when submit is set
// @Tags workflow
// @Accept  json
// @Produce  json
// @Param   kind path string true "Entity kind" Enums(expenditure, financial-report, exam-report)
// @Param   entity body dto.CreateWorkflowRequest true "Period and payload"
// @Success 201 {object} dto.WorkflowEntityResponse
// @Failure 400 {object} map[string]string "Invalid input or payload validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Role may not create this kind"
// @Failure 500 {object} map[string]string "Failed to create entity"
// @Security BearerAuth
// @Router /workflow/{kind} [post]
func (h *workflowHandler) createEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateEntity", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}

	e, err := h.workflowService.CreateEntity(c.Request.Context(), actor, kindParam(c), req)
	if err != nil {
		respondWithError(c, err, "Failed to create entity")
		return
	}
	respondWithEntity(c, http.StatusCreated, e)
}

// listEntities godoc
// @Summary List workflow entities
// @Description Lists entities of a kind visible to the caller, newest first
// @Tags workflow
// @Produce  json
// @Param   kind path string true "Entity kind"
// @Param   owner query string false "Owner id"
// @Param   session query string false "Academic session, e.g. 2023/2024"
// @Param   term query string false "Term, e.g. First Term"
// @Param   status query []string false "Statuses, repeatable or comma separated" collectionFormat(multi)
// @Param   limit query int false "Page size (max 500)"
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListWorkflowResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list entities"
// @Security BearerAuth
// @Router /workflow/{kind} [get]
func (h *workflowHandler) listEntities(c *gin.Context) {
	params, actor, ok := bindListParams(c)
	if !ok {
		return
	}
	resp, err := h.workflowService.ListEntities(c.Request.Context(), actor, kindParam(c), params)
	if err != nil {
		respondWithError(c, err, "Failed to list entities")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func bindListParams(c *gin.Context) (dto.ListWorkflowParams, domain.Principal, bool) {
	var params dto.ListWorkflowParams
	if err := c.ShouldBindQuery(&params); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind query for ListEntities", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return params, domain.Principal{}, false
	}
	actor, ok := principalFromContext(c)
	return params, actor, ok
}

// exportEntities godoc
// @Summary Export workflow entities
// @Description Exports the filtered listing as an XLSX workbook
// @Tags workflow
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param   kind path string true "Entity kind"
// @Param   owner query string false "Owner id"
// @Param   session query string false "Academic session"
// @Param   term query string false "Term"
// @Param   status query []string false "Statuses" collectionFormat(multi)
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to export entities"
// @Security BearerAuth
// @Router /workflow/{kind}/export [get]
func (h *workflowHandler) exportEntities(c *gin.Context) {
	params, actor, ok := bindListParams(c)
	if !ok {
		return
	}
	kind := kindParam(c)
	params.Limit = 500

	var items []dto.WorkflowEntityResponse
	for {
		page, err := h.workflowService.ListEntities(c.Request.Context(), actor, kind, params)
		if err != nil {
			respondWithError(c, err, "Failed to export entities")
			return
		}
		items = append(items, page.Items...)
		if page.NextToken == nil || len(items) >= maxExportRows {
			break
		}
		params.NextToken = page.NextToken
	}

	var buf bytes.Buffer
	if err := export.WriteWorkflowXLSX(&buf, kind, items); err != nil {
		respondWithError(c, err, "Failed to export entities")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, kind))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

// getEntity godoc
// @Summary Get a workflow entity
// @Description Retrieves one entity; the ETag header carries its version
// @Tags workflow
// @Produce  json
// @Param   kind path string true "Entity kind"
// @Param   id path string true "Entity ID"
// @Success 200 {object} dto.WorkflowEntityResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Entity belongs to another user"
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /workflow/{kind}/{id} [get]
func (h *workflowHandler) getEntity(c *gin.Context) {
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}
	e, err := h.workflowService.GetEntity(c.Request.Context(), actor, kindParam(c), c.Param("id"))
	if err != nil {
		respondWithError(c, err, "Failed to retrieve entity")
		return
	}
	respondWithEntity(c, http.StatusOK, e)
}

// editEntity godoc
// @Summary Edit a workflow entity
// @Description Replaces the payload of an entity in draft, pending or rejected. Owner only.
// @Tags workflow
// @Accept  json
// @Produce  json
// @Param   kind path string true "Entity kind"
// @Param   id path string true "Entity ID"
// @Param   If-Match header string false "Expected version"
// @Param   entity body dto.EditWorkflowRequest true "New payload"
// @Success 200 {object} dto.WorkflowEntityResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Entity not found"
// @Failure 409 {object} map[string]string "Not editable or version conflict"
// @Security BearerAuth
// @Router /workflow/{kind}/{id} [put]
func (h *workflowHandler) editEntity(c *gin.Context) {
	var req dto.EditWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}
	version, err := expectedVersion(c, req.ExpectedVersion)
	if err != nil {
		respondWithError(c, err, "Failed to edit entity")
		return
	}
	e, err := h.workflowService.EditEntity(c.Request.Context(), actor, kindParam(c), c.Param("id"), req.Payload, version)
	if err != nil {
		respondWithError(c, err, "Failed to edit entity")
		return
	}
	respondWithEntity(c, http.StatusOK, e)
}

// deleteEntity godoc
// @Summary Delete a workflow entity
// @Description Deletes an entity in draft, pending or rejected. Owner only.
// @Tags workflow
// @Param   kind path string true "Entity kind"
// @Param   id path string true "Entity ID"
// @Param   If-Match header string false "Expected version"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Entity not found"
// @Failure 409 {object} map[string]string "Not deletable or version conflict"
// @Security BearerAuth
// @Router /workflow/{kind}/{id} [delete]
func (h *workflowHandler) deleteEntity(c *gin.Context) {
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}
	version, err := expectedVersion(c, nil)
	if err != nil {
		respondWithError(c, err, "Failed to delete entity")
		return
	}
	if err := h.workflowService.DeleteEntity(c.Request.Context(), actor, kindParam(c), c.Param("id"), version); err != nil {
		respondWithError(c, err, "Failed to delete entity")
		return
	}
	c.Status(http.StatusNoContent)
}

type transitionFunc func(ctx context.Context, actor domain.Principal, kind domain.Kind, entityID string, req dto.TransitionRequest) (*domain.WorkflowEntity, error)

// applyTransition binds the optional body and the If-Match header, then runs one transition.
func (h *workflowHandler) applyTransition(c *gin.Context, action domain.Action, apply transitionFunc) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	req, err := bindTransition(c)
	if err != nil {
		respondWithError(c, err, "Failed to apply transition")
		return
	}
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}
	if req.ExpectedVersion, err = expectedVersion(c, req.ExpectedVersion); err != nil {
		respondWithError(c, err, "Failed to apply transition")
		return
	}

	e, err := apply(c.Request.Context(), actor, kindParam(c), c.Param("id"), req)
	if err != nil {
		respondWithError(c, err, "Failed to apply transition")
		return
	}
	logger.Info("Workflow transition succeeded", slog.String("action", string(action)), slog.String("entity_id", e.EntityID))
	respondWithEntity(c, http.StatusOK, e)
}

// submitEntity godoc
// @Summary Submit a workflow entity for review
// @Description Moves a draft or rejected entity to pending, optionally replacing its payload. Owner only.
// @Tags workflow
// @Accept  json
// @Produce  json
// @Param   kind path string true "Entity kind"
// @Param   id path string true "Entity ID"
// @Param   If-Match header string false "Expected version"
// @Param   body body dto.TransitionRequest false "Optional replacement payload"
// @Success 200 {object} dto.WorkflowEntityResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 409 {object} map[string]string "Invalid transition or version conflict"
// @Security BearerAuth
// @Router /workflow/{kind}/{id}/submit [post]
func (h *workflowHandler) submitEntity(c *gin.Context) {
	h.applyTransition(c, domain.ActionSubmit, h.workflowService.SubmitEntity)
}

// approveEntity godoc
// @Summary Approve a workflow entity
// @Tags workflow
// @Accept  json
// @Produce  json
// @Param   kind path string true "Entity kind"
// @Param   id path string true "Entity ID"
// @Param   If-Match header string false "Expected version"
// @Param   body body dto.TransitionRequest false "Optional comments"
// @Success 200 {object} dto.WorkflowEntityResponse
// @Failure 403 {object} map[string]string "Role may not review, or reviewing own entity"
// @Failure 409 {object} map[string]string "Invalid transition or version conflict"
// @Security BearerAuth
// @Router /workflow/{kind}/{id}/approve [post]
func (h *workflowHandler) approveEntity(c *gin.Context) {
	h.applyTransition(c, domain.ActionApprove, h.workflowService.ApproveEntity)
}

// rejectEntity godoc
// @Summary Reject a workflow entity
// @Description A non-blank reason is required
// @Tags workflow
// @Accept  json
// @Produce  json
// @Param   kind path string true "Entity kind"
// @Param   id path string true "Entity ID"
// @Param   If-Match header string false "Expected version"
// @Param   body body dto.TransitionRequest true "Reason and optional comments"
// @Success 200 {object} dto.WorkflowEntityResponse
// @Failure 400 {object} map[string]string "Missing reason"
// @Failure 403 {object} map[string]string "Role may not review, or reviewing own entity"
// @Failure 409 {object} map[string]string "Invalid transition or version conflict"
// @Security BearerAuth
// @Router /workflow/{kind}/{id}/reject [post]
func (h *workflowHandler) rejectEntity(c *gin.Context) {
	h.applyTransition(c, domain.ActionReject, h.workflowService.RejectEntity)
}

// completeEntity godoc
// @Summary Complete an approved expenditure
// @Tags workflow
// @Accept  json
// @Produce  json
// @Param   kind path string true "Entity kind" Enums(expenditure)
// @Param   id path string true "Entity ID"
// @Param   If-Match header string false "Expected version"
// @Param   body body dto.TransitionRequest false "Optional comments"
// @Success 200 {object} dto.WorkflowEntityResponse
// @Failure 403 {object} map[string]string "Role may not complete"
// @Failure 409 {object} map[string]string "Invalid transition or version conflict"
// @Security BearerAuth
// @Router /workflow/{kind}/{id}/complete [post]
func (h *workflowHandler) completeEntity(c *gin.Context) {
	h.applyTransition(c, domain.ActionComplete, h.workflowService.CompleteEntity)
}

// entityHistory godoc
// @Summary List the transition history of a workflow entity
// @Tags workflow
// @Produce  json
// @Param   kind path string true "Entity kind"
// @Param   id path string true "Entity ID"
// @Success 200 {object} dto.ListHistoryResponse
// @Failure 403 {object} map[string]string "Entity belongs to another user"
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /workflow/{kind}/{id}/history [get]
func (h *workflowHandler) entityHistory(c *gin.Context) {
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")
	records, err := h.workflowService.History(c.Request.Context(), actor, kindParam(c), id)
	if err != nil {
		respondWithError(c, err, "Failed to retrieve history")
		return
	}
	c.JSON(http.StatusOK, dto.ListHistoryResponse{EntityID: id, Records: records})
}

// revenueQuery parses the optional revenue query parameter.
func revenueQuery(c *gin.Context) (*decimal.Decimal, error) {
	raw, ok := c.GetQuery("revenue")
	if !ok || raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: revenue must be a number", apperrors.ErrValidation)
	}
	return &d, nil
}

// periodAggregate godoc
// @Summary Funds summary of a period
// @Description Total approved, total pending and available funds for expenditures of a period
// @Tags aggregation
// @Produce  json
// @Param   kind path string true "Entity kind" Enums(expenditure)
// @Param   session query string true "Academic session, e.g. 2023/2024"
// @Param   term query string true "Term"
// @Param   revenue query string false "Revenue override; defaults to the recorded revenue"
// @Success 200 {object} domain.FundsSummary
// @Failure 400 {object} map[string]string "Invalid period or revenue"
// @Failure 403 {object} map[string]string "Role may not view the summary"
// @Failure 404 {object} map[string]string "Kind has no aggregate"
// @Security BearerAuth
// @Router /workflow/{kind}/aggregate [get]
func (h *workflowHandler) periodAggregate(c *gin.Context) {
	if kindParam(c) != domain.KindExpenditure {
		c.JSON(http.StatusNotFound, gin.H{"error": "aggregates exist for expenditures only"})
		return
	}
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}
	revenue, err := revenueQuery(c)
	if err != nil {
		respondWithError(c, err, "Failed to compute summary")
		return
	}
	period := domain.Period{AcademicSession: c.Query("session"), Term: domain.Term(c.Query("term"))}
	summary, err := h.aggregationService.Summary(c.Request.Context(), actor, period, revenue)
	if err != nil {
		respondWithError(c, err, "Failed to compute summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// entityAggregate godoc
// @Summary Funds summary for one expenditure
// @Description Summary of the expenditure's period plus the sufficiency of its amount
// @Tags aggregation
// @Produce  json
// @Param   kind path string true "Entity kind" Enums(expenditure)
// @Param   id path string true "Entity ID"
// @Param   revenue query string false "Revenue override; defaults to the recorded revenue"
// @Success 200 {object} domain.EntityAggregate
// @Failure 400 {object} map[string]string "Invalid revenue"
// @Failure 403 {object} map[string]string "Entity belongs to another user"
// @Failure 404 {object} map[string]string "Entity not found"
// @Security BearerAuth
// @Router /workflow/{kind}/{id}/aggregate [get]
func (h *workflowHandler) entityAggregate(c *gin.Context) {
	if kindParam(c) != domain.KindExpenditure {
		c.JSON(http.StatusNotFound, gin.H{"error": "aggregates exist for expenditures only"})
		return
	}
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}
	revenue, err := revenueQuery(c)
	if err != nil {
		respondWithError(c, err, "Failed to compute aggregate")
		return
	}
	agg, err := h.aggregationService.EntityAggregate(c.Request.Context(), actor, c.Param("id"), revenue)
	if err != nil {
		respondWithError(c, err, "Failed to compute aggregate")
		return
	}
	c.JSON(http.StatusOK, agg)
}
