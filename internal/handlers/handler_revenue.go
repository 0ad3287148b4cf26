package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/SscSPs/school_workflow_app/internal/dto"
	"github.com/SscSPs/school_workflow_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// revenueHandler handles HTTP requests for period revenue.
type revenueHandler struct {
	revenueService portssvc.RevenueSvcFacade
}

func registerRevenueRoutes(rg *gin.RouterGroup, rs portssvc.RevenueSvcFacade) {
	h := &revenueHandler{revenueService: rs}

	revenue := rg.Group("/revenue")
	{
		revenue.GET("/:session/:term", h.getRevenue)
		revenue.PUT("/:session/:term", h.recordRevenue)
	}
}

// periodParam reads a period from the path. The session uses "-" in place of "/", e.g. 2023-2024.
func periodParam(c *gin.Context) domain.Period {
	return domain.Period{
		AcademicSession: strings.ReplaceAll(c.Param("session"), "-", "/"),
		Term:            domain.Term(c.Param("term")),
	}
}

// getRevenue godoc
// @Summary Get the revenue of a period
// @Tags revenue
// @Produce  json
// @Param   session path string true "Academic session with a dash, e.g. 2023-2024"
// @Param   term path string true "Term, e.g. First Term"
// @Success 200 {object} domain.PeriodRevenue
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 404 {object} map[string]string "No revenue recorded"
// @Security BearerAuth
// @Router /revenue/{session}/{term} [get]
func (h *revenueHandler) getRevenue(c *gin.Context) {
	if _, ok := principalFromContext(c); !ok {
		return
	}
	rev, err := h.revenueService.GetRevenue(c.Request.Context(), periodParam(c))
	if err != nil {
		respondWithError(c, err, "Failed to retrieve revenue")
		return
	}
	c.JSON(http.StatusOK, rev)
}

// recordRevenue godoc
// @Summary Record the revenue of a period
// @Description Inserts or replaces the revenue figure. Bursar or admin only.
// @Tags revenue
// @Accept  json
// @Produce  json
// @Param   session path string true "Academic session with a dash, e.g. 2023-2024"
// @Param   term path string true "Term, e.g. First Term"
// @Param   revenue body dto.RecordRevenueRequest true "Amount"
// @Success 200 {object} domain.PeriodRevenue
// @Failure 400 {object} map[string]string "Invalid period or amount"
// @Failure 403 {object} map[string]string "Role may not record revenue"
// @Security BearerAuth
// @Router /revenue/{session}/{term} [put]
func (h *revenueHandler) recordRevenue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordRevenue", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actor, ok := principalFromContext(c)
	if !ok {
		return
	}
	rev, err := h.revenueService.RecordRevenue(c.Request.Context(), actor, periodParam(c), req.Amount)
	if err != nil {
		respondWithError(c, err, "Failed to record revenue")
		return
	}
	c.JSON(http.StatusOK, rev)
}
